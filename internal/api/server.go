package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/feedr/feedr/internal/serverdb"
)

// Server is the HTTP API server for feedr-server.
type Server struct {
	config      Config
	http        *http.Server
	store       *serverdb.ServerDB
	hub         *Hub
	metrics     *Metrics
	rateLimiter *RateLimiter

	// keepaliveEvery is the SSE keepalive interval; shortened in tests.
	keepaliveEvery time.Duration
}

// NewServer creates a new Server with the given config and store.
func NewServer(cfg Config, store *serverdb.ServerDB) (*Server, error) {
	s := &Server{
		config:         cfg,
		store:          store,
		hub:            NewHub(),
		metrics:        NewMetrics(),
		rateLimiter:    NewRateLimiter(),
		keepaliveEvery: 25 * time.Second,
	}

	s.http = &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     s.routes(),
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays zero: /v1/changes streams indefinitely.
		IdleTimeout: 120 * time.Second,
	}

	return s, nil
}

func (s *Server) keepaliveTicker() *time.Ticker {
	return time.NewTicker(s.keepaliveEvery)
}

// Start begins listening for HTTP requests (non-blocking).
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("http server", "err", err)
		}
	}()

	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// routes builds the HTTP handler with all routes and middleware.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health & metrics
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /metricz", s.handleMetrics)

	// Auth
	mux.HandleFunc("POST /v1/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /v1/auth/logout", s.requireAuth(s.handleLogout))
	mux.HandleFunc("GET /v1/auth/session", s.requireAuth(s.handleSession))

	// Profiles
	mux.HandleFunc("POST /v1/profiles", s.requireAuth(s.withRateLimit(s.handleCreateProfile, s.config.RateLimitMutate)))

	// Pets
	mux.HandleFunc("GET /v1/pets", s.requireAuth(s.withRateLimit(s.handleListPets, s.config.RateLimitRead)))
	mux.HandleFunc("POST /v1/pets", s.requireAuth(s.withRateLimit(s.handleCreatePet, s.config.RateLimitMutate)))
	mux.HandleFunc("DELETE /v1/pets/{id}", s.requireAuth(s.withRateLimit(s.handleDeletePet, s.config.RateLimitMutate)))

	// Feeds
	mux.HandleFunc("GET /v1/feeds", s.requireAuth(s.withRateLimit(s.handleListFeeds, s.config.RateLimitRead)))
	mux.HandleFunc("POST /v1/feeds", s.requireAuth(s.withRateLimit(s.handleInsertFeed, s.config.RateLimitMutate)))
	mux.HandleFunc("POST /v1/feeds/{id}/status", s.requireAuth(s.withRateLimit(s.handleSetFeedStatus, s.config.RateLimitMutate)))

	// Schedules
	mux.HandleFunc("GET /v1/schedules", s.requireAuth(s.withRateLimit(s.handleListSchedules, s.config.RateLimitRead)))
	mux.HandleFunc("POST /v1/schedules", s.requireAuth(s.withRateLimit(s.handleCreateSchedule, s.config.RateLimitMutate)))
	mux.HandleFunc("PATCH /v1/schedules/{id}", s.requireAuth(s.withRateLimit(s.handleUpdateSchedule, s.config.RateLimitMutate)))
	mux.HandleFunc("DELETE /v1/schedules/{id}", s.requireAuth(s.withRateLimit(s.handleDeleteSchedule, s.config.RateLimitMutate)))

	// Change streams
	mux.HandleFunc("GET /v1/changes", s.requireAuth(s.handleChanges))

	return chain(mux, recoveryMiddleware, requestIDMiddleware, loggerMiddleware, metricsMiddleware(s.metrics), loggingMiddleware, maxBytesMiddleware(1<<20), authRateLimitMiddleware(s.rateLimiter, s.config.RateLimitAuth))
}

// handleHealth returns a health check response, pinging the server DB.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "detail": "db unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMetrics returns a snapshot of server metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}
