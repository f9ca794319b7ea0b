package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	httpadapter "github.com/aretw0/furrow/pkg/adapters/http"
	"github.com/aretw0/furrow/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMetricsRouter exposes the registry on /metrics and a liveness probe on
// /healthz. With a store it also mounts the report API under /api.
func NewMetricsRouter(reg *prometheus.Registry, store ports.ReportStore, opts ...httpadapter.Option) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	if store != nil {
		r.Mount("/api", httpadapter.NewHandler(store, opts...))
	}
	return r
}

// serveMetrics runs the metrics server until ctx ends.
func serveMetrics(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown incomplete", "err", err)
			_ = srv.Close()
		}
	}()
}
