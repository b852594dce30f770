// Package httpapi exposes the planner over HTTP. It builds the root chi
// router, mounts the versioned API, and runs the server with graceful
// shutdown.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pland/internal/config"
	v1 "pland/internal/httpapi/v1"
	logx "pland/pkg/logx"
)

// NewHandler builds the root router and mounts all versioned subrouters
// under /api/{version}.
func NewHandler(cfg config.ServerConfig, h *v1.Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(durationOr(h.Log, "server.request_timeout", cfg.RequestTimeout, 15*time.Second)))
	if rps := cfg.RatePerSec; rps >= 0 {
		if rps == 0 {
			rps = 20
		}
		r.Use(rateLimit(rps, cfg.Burst))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Default 404: nudge callers toward versioned paths.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found","message":"Use a versioned path like /api/v1/...","supported":["v1"]}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Mount("/v1", v1.Router(h))
	})

	return r
}

// durationOr parses a config duration string, falling back to def when the
// field is empty or malformed. A bad value is a warning, never a crash.
func durationOr(log logx.Logger, path, raw string, def time.Duration) time.Duration {
	d, err := config.ParseDurationOrDefault(path, raw, def)
	if err != nil {
		log.Warn("invalid duration, using default",
			logx.String("field", path),
			logx.Duration("default", def),
			logx.Err(err))
		return def
	}
	return d
}

// Serve runs the HTTP server until ctx is canceled, then shuts it down
// gracefully.
func Serve(ctx context.Context, cfg config.ServerConfig, handler http.Handler, log logx.Logger) error {
	if log.IsZero() {
		log = logx.Nop()
	}
	addr := cfg.Addr
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  durationOr(log, "server.read_timeout", cfg.ReadTimeout, 10*time.Second),
		WriteTimeout: durationOr(log, "server.write_timeout", cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:  durationOr(log, "server.idle_timeout", cfg.IdleTimeout, 60*time.Second),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", logx.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			_ = srv.Close()
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
