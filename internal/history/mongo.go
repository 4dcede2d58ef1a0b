package history

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/mutker/chatdash/internal/errors"
	"codeberg.org/mutker/chatdash/internal/logger"
	"codeberg.org/mutker/chatdash/internal/metrics"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const hourKeyLayout = "2006-01-02T15:00"

// MongoStore keeps one collection per metric in a document database.
// Documents are {timestamp: <date>, <field>: <number>}.
type MongoStore struct {
	client  *mongo.Client
	db      *mongo.Database
	logger   logger.Logger
	timeout  time.Duration
	readOnly bool
}

func OpenMongo(ctx context.Context, cfg Config, log logger.Logger) (*MongoStore, error) {
	errFactory := errors.New()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetConnectTimeout(timeout))
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "connect",
			Error: err.Error(),
		})
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "ping",
			Error: err.Error(),
		})
	}

	log.Info().
		Str("database", cfg.Database).
		Bool("read_only", cfg.ReadOnly).
		Msg("History store connected")

	return &MongoStore{
		client:   client,
		db:       client.Database(cfg.Database),
		logger:   log,
		timeout:  timeout,
		readOnly: cfg.ReadOnly,
	}, nil
}

func (s *MongoStore) collection(m metrics.Metric) *mongo.Collection {
	return s.db.Collection(m.Collection())
}

func (s *MongoStore) Append(ctx context.Context, sample metrics.Sample) error {
	if s.readOnly {
		return errors.New().WithData(ErrReadOnly, string(sample.Metric))
	}
	if err := checkMetric(sample.Metric); err != nil {
		return err
	}

	var value any = sample.Value
	if sample.Metric != metrics.APICost {
		value = int64(sample.Value)
	}

	doc := bson.D{
		{Key: "timestamp", Value: sample.Timestamp},
		{Key: sample.Metric.Field(), Value: value},
	}
	if _, err := s.collection(sample.Metric).InsertOne(ctx, doc); err != nil {
		return errors.New().WithData(ErrAppendFailed, struct {
			Metric string
			Error  string
		}{
			Metric: string(sample.Metric),
			Error:  err.Error(),
		})
	}

	return nil
}

func (s *MongoStore) Range(ctx context.Context, m metrics.Metric, from, to time.Time) ([]metrics.Sample, error) {
	if err := checkMetric(m); err != nil {
		return nil, err
	}

	errFactory := errors.New()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection(m).Find(ctx, timeFilter(from, to), opts)
	if err != nil {
		return nil, errFactory.Wrap(ErrQueryFailed, err)
	}
	defer cursor.Close(ctx)

	var samples []metrics.Sample
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, errFactory.Wrap(ErrQueryFailed, err)
		}

		sample, ok := sampleFromDocument(m, doc)
		if !ok {
			s.logger.Debug().
				Str("collection", m.Collection()).
				Interface("id", doc["_id"]).
				Msg("Skipping malformed document")
			continue
		}
		samples = append(samples, sample)
	}
	if err := cursor.Err(); err != nil {
		return nil, errFactory.Wrap(ErrQueryFailed, err)
	}

	return samples, nil
}

func (s *MongoStore) HourlyTotals(
	ctx context.Context, m metrics.Metric, from, to time.Time, loc *time.Location,
) ([]metrics.Point, error) {
	if err := checkMetric(m); err != nil {
		return nil, err
	}

	errFactory := errors.New()

	cursor, err := s.collection(m).Aggregate(ctx, hourlyPipeline(m, from, to, mongoTimezone(loc, to)))
	if err != nil {
		return nil, errFactory.Wrap(ErrQueryFailed, err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Hour  string  `bson:"_id"`
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, errFactory.Wrap(ErrQueryFailed, err)
	}

	points := make([]metrics.Point, 0, len(rows))
	for _, row := range rows {
		t, err := time.ParseInLocation(hourKeyLayout, row.Hour, loc)
		if err != nil {
			return nil, errFactory.Wrap(ErrQueryFailed, err)
		}
		points = append(points, metrics.Point{Time: t, Value: row.Total})
	}

	return points, nil
}

func (s *MongoStore) WeekHourTotals(
	ctx context.Context, m metrics.Metric, from, to time.Time, loc *time.Location,
) ([]metrics.Cell, error) {
	if err := checkMetric(m); err != nil {
		return nil, err
	}

	errFactory := errors.New()

	cursor, err := s.collection(m).Aggregate(ctx, weekHourPipeline(m, from, to, mongoTimezone(loc, to)))
	if err != nil {
		return nil, errFactory.Wrap(ErrQueryFailed, err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID struct {
			Day  int `bson:"day"`
			Hour int `bson:"hour"`
		} `bson:"_id"`
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, errFactory.Wrap(ErrQueryFailed, err)
	}

	cells := make([]metrics.Cell, 0, len(rows))
	for _, row := range rows {
		if row.ID.Day < 1 || row.ID.Day > 7 || row.ID.Hour < 0 || row.ID.Hour > 23 {
			continue
		}
		cells = append(cells, metrics.Cell{
			Day:   mondayIndexFromMongo(row.ID.Day),
			Hour:  row.ID.Hour,
			Value: row.Total,
		})
	}

	return cells, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.Disconnect(ctx); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	s.logger.Info().Msg("History store disconnected")

	return nil
}

func timeFilter(from, to time.Time) bson.M {
	return bson.M{"timestamp": bson.M{"$gte": from, "$lte": to}}
}

func hourlyPipeline(m metrics.Metric, from, to time.Time, tz string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: timeFilter(from, to)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.M{"$dateToString": bson.M{
				"format":   "%Y-%m-%dT%H:00",
				"date":     "$timestamp",
				"timezone": tz,
			}}},
			{Key: "total", Value: bson.M{"$sum": "$" + m.Field()}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

func weekHourPipeline(m metrics.Metric, from, to time.Time, tz string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: timeFilter(from, to)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "day", Value: bson.M{"$dayOfWeek": bson.M{"date": "$timestamp", "timezone": tz}}},
				{Key: "hour", Value: bson.M{"$hour": bson.M{"date": "$timestamp", "timezone": tz}}},
			}},
			{Key: "total", Value: bson.M{"$sum": "$" + m.Field()}},
		}}},
	}
}

// mongoTimezone returns a timezone argument for date operators. Named zones
// pass through as Olson identifiers; the process-local zone has no portable
// name and is sent as its UTC offset at the given instant.
func mongoTimezone(loc *time.Location, at time.Time) string {
	if loc == nil {
		return "UTC"
	}

	switch name := loc.String(); name {
	case "", "Local":
		_, offset := at.In(loc).Zone()
		sign := '+'
		if offset < 0 {
			sign = '-'
			offset = -offset
		}
		return fmt.Sprintf("%c%02d:%02d", sign, offset/3600, offset%3600/60)
	default:
		return name
	}
}

// $dayOfWeek yields 1 for Sunday through 7 for Saturday.
func mondayIndexFromMongo(day int) int {
	return (day + 5) % 7
}

func sampleFromDocument(m metrics.Metric, doc bson.M) (metrics.Sample, bool) {
	var ts time.Time
	switch v := doc["timestamp"].(type) {
	case primitive.DateTime:
		ts = v.Time()
	case time.Time:
		ts = v
	default:
		return metrics.Sample{}, false
	}

	value, ok := toFloat(doc[m.Field()])
	if !ok {
		return metrics.Sample{}, false
	}

	return metrics.Sample{Timestamp: ts, Metric: m, Value: value}, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
