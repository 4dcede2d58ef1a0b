package dashboard

import (
	"codeberg.org/mutker/chatdash/internal/analytics"
	"github.com/charmbracelet/lipgloss"
)

type card struct {
	title   string
	value   string
	caption string
	accent  lipgloss.Color
}

func snapshotCards(s analytics.Snapshot) []card {
	return []card{
		{title: "Total Messages", value: s.Messages, caption: "Last 24 hours", accent: colorBlue},
		{title: "Active Users", value: s.ActiveUsers, caption: "Currently online", accent: colorGreen},
		{title: "API Cost", value: s.APICost, caption: "Last 24 hours", accent: colorPeach},
		{title: "Rate Limit", value: s.RateLimit, caption: "Remaining quota", accent: colorYellow},
	}
}

// renderCards lays the cards out side by side within width.
func renderCards(cards []card, width int) string {
	cardW := max(width/len(cards)-2, 16)

	rendered := make([]string, 0, len(cards))
	for _, c := range cards {
		body := lipgloss.JoinVertical(lipgloss.Left,
			labelStyle.Render(c.title),
			cardValueStyle.Foreground(c.accent).Render(c.value),
			dimStyle.Render(c.caption),
		)
		rendered = append(rendered, cardStyle.Width(cardW).Render(body))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
