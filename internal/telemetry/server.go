package telemetry

import (
	"context"
	"net"
	"net/http"
	"time"

	"codeberg.org/mutker/chatdash/internal/errors"
	"codeberg.org/mutker/chatdash/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// Serve exposes gatherer on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, log logger.Logger) error {
	errFactory := errors.New()

	if addr == "" {
		return errFactory.WithMessage(ErrInvalidConfig, "metrics address is empty")
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return errFactory.Wrap(ErrServeFailed, err)
	}

	return serve(ctx, lis, gatherer, log)
}

func serve(ctx context.Context, lis net.Listener, gatherer prometheus.Gatherer, log logger.Logger) error {
	errFactory := errors.New()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", lis.Addr().String()).Msg("Serving metrics")

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errFactory.Wrap(ErrServeFailed, err)
	}

	if err := <-done; err != nil {
		return errFactory.Wrap(ErrShutdown, err)
	}

	log.Debug().Msg("Metrics server stopped")

	return nil
}
