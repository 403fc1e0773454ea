// Package ops exposes the operational HTTP surface: health checks and Prometheus metrics.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/postbot/core/buildinfo"
	"github.com/m3rciful/postbot/core/logger"
)

// Check is the state of one dependency probed by /healthz.
type Check struct {
	Status  string `json:"status"` // "pass" or "fail"
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status    string           `json:"status"` // "healthy" or "degraded"
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	Timestamp string           `json:"timestamp"`
}

// Probe reports whether a dependency is reachable.
type Probe func(ctx context.Context) error

// NewRouter builds the ops router. Probes are keyed by dependency name.
func NewRouter(probes map[string]Probe) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", healthHandler(probes))
	return r
}

func healthHandler(probes map[string]Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := make(map[string]Check, len(probes))
		healthy := true
		for name, probe := range probes {
			start := time.Now()
			if err := probe(ctx); err != nil {
				checks[name] = Check{Status: "fail", Message: err.Error()}
				healthy = false
				continue
			}
			checks[name] = Check{Status: "pass", Latency: logger.RoundMS(time.Since(start)).String()}
		}

		resp := HealthResponse{
			Status:    "healthy",
			Version:   buildinfo.Version,
			Checks:    checks,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		code := http.StatusOK
		if !healthy {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Ops.Debug("request",
			slog.String("event", "ops.request"),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("code", ww.Status()),
			slog.String("rid", chimw.GetReqID(r.Context())),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	})
}

// Serve runs the ops HTTP server until ctx is cancelled. An empty addr disables it.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	if addr == "" {
		return nil
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Ops.Info("ops server started",
			slog.String("event", "ops.start"),
			slog.String("listen", addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			logger.Ops.Error("ops server failed",
				slog.String("event", "ops.start"),
				slog.String("err", err.Error()),
			)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Ops.Info("ops server stopped", slog.String("event", "ops.stop"))
	return nil
}
