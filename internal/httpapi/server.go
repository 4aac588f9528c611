// Package httpapi exposes the engine as JSON over HTTP for the dashboard.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hammamikhairi/hppkit/internal/domain"
	"github.com/hammamikhairi/hppkit/internal/engine"
	"github.com/hammamikhairi/hppkit/internal/logger"
	"github.com/hammamikhairi/hppkit/internal/notify"
)

// Option configures the server.
type Option func(*Server)

// WithInbox serves /notifications from the inbox.
func WithInbox(in *notify.Inbox) Option {
	return func(s *Server) {
		s.inbox = in
	}
}

// WithWebSocket mounts a live notification stream at /ws.
func WithWebSocket(h http.Handler) Option {
	return func(s *Server) {
		s.ws = h
	}
}

// Server routes HTTP requests to the engine.
type Server struct {
	eng     *engine.Engine
	inbox   *notify.Inbox
	ws      http.Handler
	log     *logger.Logger
	router  chi.Router
	started time.Time
}

// New builds the router.
func New(eng *engine.Engine, log *logger.Logger, opts ...Option) *Server {
	s := &Server{
		eng:     eng,
		log:     log,
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)

	r.Route("/recipes/{id}", func(r chi.Router) {
		r.Get("/cost", s.handleComputeCost)
		r.Get("/cost/cached", s.handleCachedCost)
		r.Get("/snapshots", s.handleSnapshots)
		r.Get("/drift", s.handleDrift)
	})

	r.Post("/ingredients/{id}/price", s.handlePriceChange)
	r.Get("/ingredients/{id}/history", s.handlePriceHistory)

	r.Get("/operational-costs", s.handleListCosts)
	r.Put("/operational-costs/{id}", s.handleUpdateCost)
	r.Post("/operational-costs/{id}/toggle-auto", s.handleToggleAuto)

	r.Post("/recalculate", s.handleRecalculateAll)
	r.Get("/cache/stats", s.handleCacheStats)
	r.Get("/monitor/status", s.handleMonitorStatus)
	r.Post("/monitor/check", s.handleForceCheck)

	if s.inbox != nil {
		r.Get("/notifications", s.handleListNotifications)
		r.Post("/notifications/read-all", s.handleMarkAllRead)
		r.Post("/notifications/{id}/read", s.handleMarkRead)
	}
	if s.ws != nil {
		r.Get("/ws", s.ws.ServeHTTP)
	}

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http: %s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Microsecond))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrExternalFetch):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrNotConfigured):
		status = http.StatusNotImplemented
	case errors.Is(err, domain.ErrMonitorRunning):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.log.Error("http: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Invalid("body", "%v", err)
	}
	return nil
}

func queryLimit(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.Invalid("limit", "must be a non-negative integer, got %q", raw)
	}
	return n, nil
}
