// Package web serves the bot's health and status endpoints.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/blockedby/megamd/internal/bot"
	"github.com/blockedby/megamd/internal/channelinfo"
)

// Config holds server configuration
type Config struct {
	Port int
}

// ConnectionChecker reports the state of an outside connection (WhatsApp, NATS).
type ConnectionChecker interface {
	IsConnected() bool
}

// CommandLister lists registered commands.
type CommandLister interface {
	Commands() []bot.Info
}

// Deps are the components the status endpoints report on. Nil fields are omitted.
type Deps struct {
	WhatsApp ConnectionChecker
	Events   ConnectionChecker
	Commands CommandLister
	Channel  *channelinfo.Metadata
}

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	config     *Config
	mu         sync.Mutex
	listener   net.Listener
	deps       Deps
	startedAt  time.Time
}

// StatusResponse is returned by GET /api/v1/status.
type StatusResponse struct {
	WhatsApp      string     `json:"whatsapp"`
	Events        string     `json:"events"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	Commands      []bot.Info `json:"commands"`
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config, deps Deps) *Server {
	srv := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		deps:      deps,
		startedAt: time.Now(),
	}

	srv.setupMiddleware()
	srv.setupRoutes()

	srv.httpServer = &http.Server{
		Handler:           srv.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return srv
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(10 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.status)
		r.Get("/channel-info", s.channelInfo)
	})
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		WhatsApp:      connState(s.deps.WhatsApp),
		Events:        connState(s.deps.Events),
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Commands:      []bot.Info{},
	}
	if s.deps.Commands != nil {
		resp.Commands = s.deps.Commands.Commands()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) channelInfo(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Channel == nil {
		http.Error(w, "channel forwarding disabled", http.StatusNotFound)
		return
	}
	m := s.deps.Channel
	writeJSON(w, http.StatusOK, map[string]any{
		"forwardingScore": m.ForwardingScore,
		"isForwarded":     m.IsForwarded,
		"newsletterJid":   m.NewsletterJID,
		"newsletterName":  m.NewsletterName,
		"serverMessageId": m.ServerMessageID,
	})
}

func connState(c ConnectionChecker) string {
	switch {
	case c == nil:
		return "disabled"
	case c.IsConnected():
		return "connected"
	default:
		return "disconnected"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	// returns http.ErrServerClosed when Stop ran first
	return s.httpServer.Serve(listener)
}

// Stop gracefully stops the server. It is safe to call before or during Start.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// BaseURL returns the server's base URL
func (s *Server) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Sprintf("http://%s", s.listener.Addr().String())
	}
	return fmt.Sprintf("http://localhost:%d", s.config.Port)
}
