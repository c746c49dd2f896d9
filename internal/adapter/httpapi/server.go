package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	APIToken     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server exposes the rebalance core over a JSON HTTP API
type Server struct {
	router   *mux.Router
	server   *http.Server
	handlers *Handlers
	config   ServerConfig
	log      zerolog.Logger
}

// NewServer creates a new HTTP server instance
func NewServer(config ServerConfig, handlers *Handlers, log zerolog.Logger) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		handlers: handlers,
		config:   config,
		log:      log,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

// Router exposes the configured router (used by tests)
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(jsonContentTypeMiddleware)

	// Liveness stays unauthenticated
	s.router.HandleFunc("/healthz", s.handlers.Healthz).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware(s.config.APIToken))

	api.HandleFunc("/overlays", s.handlers.ListOverlays).Methods(http.MethodGet)
	api.HandleFunc("/overlays", s.handlers.CreateOverlay).Methods(http.MethodPost)
	api.HandleFunc("/overlays/search", s.handlers.SearchOverlays).Methods(http.MethodGet)
	api.HandleFunc("/overlays/import", s.handlers.ImportOverlay).Methods(http.MethodPost)
	api.HandleFunc("/overlays/{id}", s.handlers.GetOverlay).Methods(http.MethodGet)
	api.HandleFunc("/overlays/{id}", s.handlers.UpdateOverlay).Methods(http.MethodPatch)
	api.HandleFunc("/overlays/{id}", s.handlers.DeleteOverlay).Methods(http.MethodDelete)
	api.HandleFunc("/overlays/{id}/rules", s.handlers.AddRule).Methods(http.MethodPost)
	api.HandleFunc("/overlays/{id}/rules/{ruleId}", s.handlers.UpdateRule).Methods(http.MethodPut)
	api.HandleFunc("/overlays/{id}/rules/{ruleId}", s.handlers.RemoveRule).Methods(http.MethodDelete)
	api.HandleFunc("/overlays/{id}/validate", s.handlers.ValidateOverlay).Methods(http.MethodPost)
	api.HandleFunc("/overlays/{id}/backtest", s.handlers.BacktestOverlay).Methods(http.MethodPost)
	api.HandleFunc("/overlays/{id}/clone", s.handlers.CloneOverlay).Methods(http.MethodPost)
	api.HandleFunc("/overlays/{id}/export", s.handlers.ExportOverlay).Methods(http.MethodGet)

	api.HandleFunc("/templates", s.handlers.ListTemplates).Methods(http.MethodGet)
	api.HandleFunc("/templates/{id}/instantiate", s.handlers.CreateFromTemplate).Methods(http.MethodPost)

	api.HandleFunc("/schedule", s.handlers.GetSchedule).Methods(http.MethodGet)
	api.HandleFunc("/schedule", s.handlers.PutSchedule).Methods(http.MethodPut)

	api.HandleFunc("/proposals", s.handlers.PendingProposals).Methods(http.MethodGet)
	api.HandleFunc("/proposals/{id}/confirm", s.handlers.ConfirmProposal).Methods(http.MethodPost)
	api.HandleFunc("/proposals/{id}/skip", s.handlers.SkipProposal).Methods(http.MethodPost)
	api.HandleFunc("/history", s.handlers.History).Methods(http.MethodGet)

	api.HandleFunc("/portfolio/health", s.handlers.PortfolioHealth).Methods(http.MethodGet)
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.server.Shutdown(ctx)
}
