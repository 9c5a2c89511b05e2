// Package admin serves the operational HTTP surface: health, metrics and the
// rebuild trigger.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"lotto-mcp/internal/history"
	"lotto-mcp/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Rebuilder replaces the active snapshot.
type Rebuilder interface {
	Rebuild(ctx context.Context) (history.Info, error)
}

// NewRouter builds the admin routes. POST /admin/rebuild is mounted only when
// token is set and then requires it in the X-Admin-Token header.
func NewRouter(store *history.Store, rebuilder Rebuilder, m *metrics.Metrics, token string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		info := store.Current().Info()
		status := http.StatusOK
		state := "ok"
		if info.Count == 0 {
			status = http.StatusServiceUnavailable
			state = "empty"
		}
		writeJSON(w, status, map[string]any{"status": state, "snapshot": info})
	})

	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/admin", func(r chi.Router) {
		r.Get("/snapshot", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, store.Current().Info())
		})
		if token == "" {
			log.Warn().Msg("ADMIN_TOKEN is not set, POST /admin/rebuild is disabled")
			return
		}
		r.With(requireToken(token)).Post("/rebuild", func(w http.ResponseWriter, req *http.Request) {
			info, err := rebuilder.Rebuild(req.Context())
			if err != nil {
				log.Error().Err(err).Msg("Admin rebuild failed")
				writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, info)
		})
	})

	return r
}

func requireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Admin-Token") != token {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid admin token"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("Admin request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write admin response")
	}
}

// Serve runs the router on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Admin server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
