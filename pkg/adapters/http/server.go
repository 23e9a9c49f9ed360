// Package http exposes a launcher session over HTTP.
//
// Routes:
//
//	GET  /state     current view
//	POST /input     {"text": "gh react"}
//	POST /press     {"index": 0, "modifiers": "cmd"}
//	POST /preview   {"index": 0, "modifiers": "cmd"}
//	POST /back
//	GET  /history   ?limit=20
//	GET  /events    server-sent view updates
//	GET  /metrics   Prometheus exposition
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/arvis/internal/logging"
	"github.com/aretw0/arvis/pkg/domain"
	"github.com/aretw0/arvis/pkg/ports"
	"github.com/aretw0/arvis/pkg/session"
)

// Session is the part of session.Session the server drives.
type Session interface {
	Type(ctx context.Context, text string) error
	Press(ctx context.Context, index int, mod domain.Modifier) error
	Preview(ctx context.Context, index int, mod domain.Modifier) error
	Back(ctx context.Context) error
	Snapshot(ctx context.Context) (session.View, error)
}

// Server handles the launcher routes.
type Server struct {
	Session  Session
	History  ports.HistoryStore
	Streams  *StreamManager
	Gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithHistory serves GET /history from store.
func WithHistory(store ports.HistoryStore) Option {
	return func(s *Server) { s.History = store }
}

// WithStreams serves GET /events from streams.
func WithStreams(streams *StreamManager) Option {
	return func(s *Server) { s.Streams = streams }
}

// WithGatherer serves GET /metrics from g.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.Gatherer = g }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewHandler creates the HTTP handler for sess.
func NewHandler(sess Session, opts ...Option) http.Handler {
	s := &Server{
		Session: sess,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/state", s.State)
	r.Post("/input", s.Input)
	r.Post("/press", s.Press)
	r.Post("/preview", s.Preview)
	r.Post("/back", s.Back)
	r.Get("/history", s.ListHistory)
	r.Get("/events", s.SubscribeEvents)
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// InputRequest is the body of POST /input.
type InputRequest struct {
	Text string `json:"text"`
}

// RowRequest is the body of POST /press and POST /preview.
type RowRequest struct {
	Index     int    `json:"index"`
	Modifiers string `json:"modifiers,omitempty"`
}

// State handles GET /state.
func (s *Server) State(w http.ResponseWriter, r *http.Request) {
	s.respondView(w, r)
}

// Input handles POST /input.
func (s *Server) Input(w http.ResponseWriter, r *http.Request) {
	var body InputRequest
	if !s.decode(w, r, &body) {
		return
	}
	if err := s.Session.Type(r.Context(), body.Text); err != nil {
		s.fail(w, "input", err)
		return
	}
	s.respondView(w, r)
}

// Press handles POST /press.
func (s *Server) Press(w http.ResponseWriter, r *http.Request) {
	var body RowRequest
	if !s.decode(w, r, &body) {
		return
	}
	if err := s.Session.Press(r.Context(), body.Index, domain.ParseModifier(body.Modifiers)); err != nil {
		s.fail(w, "press", err)
		return
	}
	s.respondView(w, r)
}

// Preview handles POST /preview.
func (s *Server) Preview(w http.ResponseWriter, r *http.Request) {
	var body RowRequest
	if !s.decode(w, r, &body) {
		return
	}
	if err := s.Session.Preview(r.Context(), body.Index, domain.ParseModifier(body.Modifiers)); err != nil {
		s.fail(w, "preview", err)
		return
	}
	s.respondView(w, r)
}

// Back handles POST /back.
func (s *Server) Back(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.Back(r.Context()); err != nil {
		s.fail(w, "back", err)
		return
	}
	s.respondView(w, r)
}

// ListHistory handles GET /history.
func (s *Server) ListHistory(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		http.Error(w, "History is disabled", http.StatusNotFound)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := s.History.List(r.Context(), limit)
	if err != nil {
		s.fail(w, "history", err)
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	s.respond(w, entries)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("invalid request body", "path", r.URL.Path, "error", err)
		return false
	}
	return true
}

func (s *Server) respondView(w http.ResponseWriter, r *http.Request) {
	view, err := s.Session.Snapshot(r.Context())
	if err != nil {
		s.fail(w, "snapshot", err)
		return
	}
	if view.Rows == nil {
		view.Rows = []session.Row{}
	}
	s.respond(w, view)
}

func (s *Server) respond(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNoRow):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrMissingCommand), errors.Is(err, domain.ErrNotScriptFilter):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "op", op, "error", err)
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), status)
}
