// Package web serves the local browser UI for the analysis client.
package web

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/hyperjump/bunka/internal/config"
	"github.com/hyperjump/bunka/internal/session"
)

// Server is the HTTP server for the browser UI. All state lives in the
// session store; handlers translate form posts into store events.
type Server struct {
	store    *session.Store
	config   *config.UIConfig
	logger   *zap.Logger
	page     *template.Template
	markdown goldmark.Markdown
	upgrader websocket.Upgrader
	server   *http.Server
}

// NewServer creates a server over store.
func NewServer(store *session.Store, cfg *config.UIConfig, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:    store,
		config:   cfg,
		logger:   logger,
		markdown: goldmark.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	page, err := template.New("index.html").Funcs(s.funcs()).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	s.page = page
	return s, nil
}

// Routes returns the router. Exposed for tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5, "text/html", "application/json"))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Get("/api/state", s.handleState)
	r.Get("/ws", s.handleLive)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Logger)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/example/{n}", s.handleExample)
		r.Post("/language", s.handleLanguage)
		r.Post("/dismiss", s.handleDismiss)
		r.Post("/history/refresh", s.handleHistoryRefresh)
		r.Post("/history/{id}/select", s.handleSelect)
		r.Post("/history/{id}/delete", s.handleDelete)
		r.Post("/toggle/history", s.handleToggle(s.store.ToggleHistoryPanel))
		r.Post("/toggle/timeline", s.handleToggle(s.store.ToggleTimeline))
		r.Post("/toggle/map", s.handleToggle(s.store.ToggleMap))
		r.Post("/toggle/concept/{i}", s.handleToggleConcept)
	})
	return r
}

// Start fetches history in the background and serves until Stop is called.
func (s *Server) Start() error {
	go func() {
		_ = s.store.RefreshHistory(context.Background())
	}()

	addr := s.config.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting UI", zap.String("url", "http://"+addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
