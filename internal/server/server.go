// Package server provides the HTTP backend-for-frontend for the yowyob client.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/yowyob/internal/api"
	"github.com/hyperjump/yowyob/internal/auth"
	"github.com/hyperjump/yowyob/internal/config"
	"github.com/hyperjump/yowyob/internal/fallback"
	"github.com/hyperjump/yowyob/internal/search"
	"github.com/hyperjump/yowyob/internal/storage"
)

// Server is the HTTP server for the yowyob BFF. Every browser gets its own
// search state and orchestrator, keyed by a session cookie.
type Server struct {
	client    *api.Client
	engine    *search.Engine
	auth      *auth.Service
	storage   storage.Storage
	dataset   *fallback.Dataset
	index     *fallback.SuggestionIndex
	suggester *search.Suggester
	config    *config.Config
	logger    *zap.Logger
	router    chi.Router
	server    *http.Server
	sessions  map[string]*clientSession
	mu        sync.Mutex
	janitor   chan struct{}
	stopOnce  sync.Once
}

// NewServer creates a server with the given dependencies. index may be nil.
func NewServer(
	client *api.Client,
	engine *search.Engine,
	authSvc *auth.Service,
	st storage.Storage,
	dataset *fallback.Dataset,
	index *fallback.SuggestionIndex,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	s := &Server{
		client:   client,
		engine:   engine,
		auth:     authSvc,
		storage:  st,
		dataset:  dataset,
		index:    index,
		config:   cfg,
		logger:   logger,
		sessions: make(map[string]*clientSession),
		janitor:  make(chan struct{}),
	}
	opts := []search.SuggesterOption{
		search.WithSuggestionLimits(cfg.Search.SuggestionMinLength, cfg.Search.MaxSuggestions),
		search.WithSuggesterLogger(logger),
	}
	if index != nil {
		opts = append(opts, search.WithLocalSuggester(index))
	}
	s.suggester = search.NewSuggester(client, opts...)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Get("/search", s.handleSearch)
		r.Post("/search/live", s.handleLiveUpdate)
		r.Get("/search/state", s.handleSearchState)
		r.Get("/suggestions", s.handleSuggestions)

		r.Get("/history", s.handleHistoryList)
		r.Delete("/history", s.handleHistoryClear)
		r.Delete("/history/{entry}", s.handleHistoryRemove)

		r.Get("/filters", s.handleFiltersGet)
		r.Put("/filters", s.handleFiltersUpdate)
		r.Delete("/filters", s.handleFiltersReset)

		r.Get("/preferences", s.handlePreferencesGet)
		r.Put("/preferences", s.handlePreferencesUpdate)

		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/google", s.handleGoogle)
		r.Post("/auth/logout", s.handleLogout)

		r.Get("/profile", s.handleProfileGet)
		r.Put("/profile", s.handleProfileUpdate)

		r.Get("/listings", s.handleListingsList)
		r.Post("/listings", s.handleListingsCreate)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	go s.sweepLoop(time.Minute)
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server and releases every session.
func (s *Server) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.janitor) })
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	s.closeSessions()
	return err
}
