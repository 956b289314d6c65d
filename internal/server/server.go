// Package server provides the HTTP server and routing for the valuation API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/quantnote/internal/config"
	"github.com/aristath/quantnote/internal/database"
	historicalhandlers "github.com/aristath/quantnote/internal/modules/historical/handlers"
	valuationhandlers "github.com/aristath/quantnote/internal/modules/valuation/handlers"
)

// Config holds server configuration
type Config struct {
	Port              int
	Log               zerolog.Logger
	Config            *config.Config
	DevMode           bool
	HistoryDB         *database.DB
	SnapshotDB        *database.DB
	ValuationHandlers *valuationhandlers.Handler
	HistoryHandlers   *historicalhandlers.Handler
}

// Server represents the HTTP server
type Server struct {
	router            *chi.Mux
	server            *http.Server
	log               zerolog.Logger
	cfg               *config.Config
	historyDB         *database.DB
	snapshotDB        *database.DB
	valuationHandlers *valuationhandlers.Handler
	historyHandlers   *historicalhandlers.Handler
	systemHandlers    *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:            chi.NewRouter(),
		log:               cfg.Log.With().Str("component", "server").Logger(),
		cfg:               cfg.Config,
		historyDB:         cfg.HistoryDB,
		snapshotDB:        cfg.SnapshotDB,
		valuationHandlers: cfg.ValuationHandlers,
		historyHandlers:   cfg.HistoryHandlers,
	}
	s.systemHandlers = NewSystemHandlers(cfg.Log, cfg.HistoryDB, cfg.SnapshotDB)

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // large path counts take a while
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.systemHandlers.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.systemHandlers.HandleHealth)
		r.Get("/system/status", s.systemHandlers.HandleSystemStatus)

		r.Route("/valuation", func(r chi.Router) {
			s.valuationHandlers.RegisterRoutes(r)
		})

		r.Route("/history", func(r chi.Router) {
			s.historyHandlers.RegisterRoutes(r)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the router for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
