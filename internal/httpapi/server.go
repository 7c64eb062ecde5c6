// Package httpapi serves a read-only JSON view of the recorded probe rows
// and sent alerts.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/sitechecker/internal/domain"
	apimw "github.com/hamed0406/sitechecker/internal/httpapi/middleware"
	"github.com/hamed0406/sitechecker/internal/repo"
)

const (
	DefaultWindow = 2 * time.Hour
	DefaultLimit  = 50
	MaxLimit      = 500
)

type Server struct {
	Logger  *zap.Logger
	History repo.HistoryReader
}

func NewServer(l *zap.Logger, h repo.HistoryReader) *Server {
	return &Server{Logger: l, History: h}
}

type RouterConfig struct {
	Keys           []string
	AllowedOrigins []string // empty allows any origin
	RatePerMin     int
	Burst          int
}

func (s *Server) Router(rc RouterConfig) http.Handler {
	r := chi.NewRouter()

	origins := rc.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "X-API-Key"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(apimw.RateLimit(rc.RatePerMin, rc.Burst))
		api.Use(apimw.RequireKey(rc.Keys))

		api.Get("/status/latest", s.handleLatest)
		api.Get("/sites/{site}/history", s.handleHistory)
		api.Get("/messages", s.handleMessages)
	})

	return r
}

// probeView is a status row plus the derived fields clients plot with.
type probeView struct {
	domain.ProbeResult
	Success   bool      `json:"success"`
	CheckedAt time.Time `json:"checked_at"`
}

type messageView struct {
	domain.MessageSent
	SentAt time.Time `json:"sent_at"`
}

func toViews(rows []domain.ProbeResult) []probeView {
	out := make([]probeView, 0, len(rows))
	for _, r := range rows {
		out = append(out, probeView{ProbeResult: r, Success: r.Success(), CheckedAt: r.CheckedAt()})
	}
	return out
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	rows, err := s.History.Latest(r.Context())
	if err != nil {
		s.fail(w, "latest", err)
		return
	}
	writeJSON(w, http.StatusOK, toViews(rows))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")
	window := DefaultWindow
	if raw := r.URL.Query().Get("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "window must be a positive duration such as 2h or 30m")
			return
		}
		window = d
	}

	rows, err := s.History.History(r.Context(), site, window)
	if err != nil {
		s.fail(w, "history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"site":   site,
		"window": window.String(),
		"rows":   toViews(rows),
	})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	limit := DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(MaxLimit))
			return
		}
		limit = n
	}

	msgs, err := s.History.Messages(r.Context(), limit)
	if err != nil {
		s.fail(w, "messages", err)
		return
	}
	out := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageView{MessageSent: m, SentAt: m.SentAt()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	s.Logger.Error("api_query_failed", zap.String("op", op), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "storage unavailable")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
