// Package api exposes the operational HTTP interface: health probes,
// Prometheus metrics and read-only record lookups.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alperaydin/kapmirror/internal/mirror"
)

const (
	defaultSampleSize = 5
	maxSampleSize     = 100
	lookupTimeout     = 3 * time.Second
)

// Server wires the HTTP routes to the record store.
type Server struct {
	router chi.Router
	store  mirror.Store
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(store mirror.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{store: store, logger: logger}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.status)
		r.Route("/records", func(r chi.Router) {
			r.Get("/sample", s.sampleRecords)
			r.Get("/{record_id}", s.getRecord)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks serving requests until ctx is canceled, then shuts
// the listener down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), lookupTimeout)
	defer cancel()

	if _, err := s.store.Stats(ctx); err != nil && !errors.Is(err, mirror.ErrEmpty) {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// status reports the mirrored id range, the frontier and how many ids inside
// the range are missing.
func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), lookupTimeout)
	defer cancel()

	stats, err := s.store.Stats(ctx)
	if errors.Is(err, mirror.ErrEmpty) {
		writeJSON(w, http.StatusOK, map[string]any{"count": 0})
		return
	}
	if err != nil {
		s.logger.Error("status lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load status")
		return
	}
	span := stats.MaxID - stats.MinID + 1
	writeJSON(w, http.StatusOK, map[string]any{
		"min_id":  stats.MinID,
		"max_id":  stats.MaxID,
		"count":   stats.Count,
		"missing": span - stats.Count,
	})
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "record_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "record id must be numeric")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), lookupTimeout)
	defer cancel()

	rec, err := s.store.GetByID(ctx, id)
	if errors.Is(err, mirror.ErrNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		s.logger.Error("record lookup failed", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load record")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": rec})
}

func (s *Server) sampleRecords(w http.ResponseWriter, r *http.Request) {
	n := defaultSampleSize
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxSampleSize {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("n must be in 1..%d", maxSampleSize))
			return
		}
		n = parsed
	}
	ctx, cancel := context.WithTimeout(r.Context(), lookupTimeout)
	defer cancel()

	recs, err := s.store.RandomRecords(ctx, n)
	if err != nil {
		s.logger.Error("sample lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to sample records")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": recs})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", uuid.NewString())
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("panic", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
