// Package server provides the HTTP server and routing for QuantDesk.
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

	"github.com/aristath/quantdesk/internal/config"
	"github.com/aristath/quantdesk/internal/marketdata"
	marketdatahandlers "github.com/aristath/quantdesk/internal/marketdata/handlers"
	"github.com/aristath/quantdesk/internal/modules/correlation"
	"github.com/aristath/quantdesk/internal/modules/options"
	optionshandlers "github.com/aristath/quantdesk/internal/modules/options/handlers"
	"github.com/aristath/quantdesk/internal/modules/portfolio"
	portfoliohandlers "github.com/aristath/quantdesk/internal/modules/portfolio/handlers"
	"github.com/aristath/quantdesk/internal/modules/strategies"
	strategieshandlers "github.com/aristath/quantdesk/internal/modules/strategies/handlers"
)

// Deps carries the services the route handlers are built from.
type Deps struct {
	Log         zerolog.Logger
	Config      *config.Config
	Provider    *marketdata.Provider
	Cache       *marketdata.Cache
	Evaluator   *strategies.Evaluator
	Compositor  *portfolio.Compositor
	Correlation *correlation.Engine
	Simulator   *options.Simulator
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	deps           Deps
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(deps Deps) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            deps.Log.With().Str("component", "server").Logger(),
		cfg:            deps.Config,
		deps:           deps,
		systemHandlers: NewSystemHandlers(deps.Log, deps.Cache),
	}

	s.setupMiddleware(deps.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", deps.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // hedging simulations can run long
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
	s.router.Use(middleware.Timeout(120 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
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
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// System monitoring
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Post("/cache/clear", s.systemHandlers.HandleCacheClear)
		})

		// Raw asset data
		assetHandler := marketdatahandlers.NewHandler(s.deps.Provider, s.deps.Log)
		assetHandler.RegisterRoutes(r)

		// Strategy backtests and ML forecast
		backtestHandler := strategieshandlers.NewHandler(
			s.deps.Provider,
			s.deps.Evaluator,
			s.cfg.DefaultPeriod,
			s.deps.Log,
		)
		backtestHandler.RegisterRoutes(r)

		// Portfolio composition and correlation
		portfolioHandler := portfoliohandlers.NewHandler(
			s.deps.Provider,
			s.deps.Compositor,
			s.deps.Correlation,
			s.deps.Evaluator,
			s.cfg.DefaultPeriod,
			s.deps.Log,
		)
		portfolioHandler.RegisterRoutes(r)

		// Options pricing, stress and hedging
		optionsHandler := optionshandlers.NewHandler(s.deps.Simulator, s.deps.Log)
		optionsHandler.RegisterRoutes(r)
	})
}

// handleHealth serves the liveness probe
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
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
