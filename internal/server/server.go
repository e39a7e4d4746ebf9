package server

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"uptimeboard/internal/fetcher"
	"uptimeboard/internal/metrics"
	"uptimeboard/internal/render"
	"uptimeboard/internal/storage"
)

const defaultHistoryLimit = 2000

// Server serves the rendered dashboard and the documents behind it.
type Server struct {
	httpServer   *http.Server
	fetcher      fetcher.Fetcher
	renderer     *render.Renderer
	docs         *storage.Documents
	history      storage.HistoryStore
	log          *slog.Logger
	historyLimit int
}

// New creates a configured HTTP server for the dashboard.
func New(addr string, f fetcher.Fetcher, r *render.Renderer, docs *storage.Documents, history storage.HistoryStore, log *slog.Logger) *Server {
	s := &Server{
		fetcher:      f,
		renderer:     r,
		docs:         docs,
		history:      history,
		log:          log,
		historyLimit: defaultHistoryLimit,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run blocks and serves HTTP traffic.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleDashboard)
	r.Get("/data/{file}", s.handleDocument)
	r.Get("/api/uptime", s.handleUptime)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

// handleDashboard performs one fetch and one render per page load.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.fetcher.Fetch(r.Context())
	if err != nil {
		s.log.Error("load snapshot", "err", err)
		http.Error(w, "status data unavailable", http.StatusBadGateway)
		return
	}
	page, err := s.renderer.Page(snap)
	if err != nil {
		s.log.Error("render dashboard", "err", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	data, err := s.docs.Read(chi.URLParam(r, "file"))
	switch {
	case errors.Is(err, storage.ErrUnknownDocument), errors.Is(err, fs.ErrNotExist):
		http.NotFound(w, r)
		return
	case err != nil:
		s.log.Error("read document", "file", chi.URLParam(r, "file"), "err", err)
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleUptime(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, s.historyLimit)
	events, err := s.history.Events(r.Context(), limit)
	if err != nil {
		s.log.Error("load history", "err", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, metrics.ComputeUptime(events))
}

func parseLimit(r *http.Request, fallback int) int {
	if fallback <= 0 {
		return fallback
	}
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > fallback {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
