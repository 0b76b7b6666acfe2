// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"

	"hub-backoffice/internal/common/config"
	"hub-backoffice/internal/common/logger"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the back-office HTTP API.
type Server struct {
	router      *mux.Router
	httpServer  *http.Server
	handlers    *Handlers
	healthCheck *HealthCheck
	logger      logger.Logger
	cfg         config.ServerConfig
}

func NewServer(cfg config.ServerConfig, svc StatsService, checks map[string]Checker, log logger.Logger) *Server {
	router := mux.NewRouter()
	log = log.WithFields(map[string]interface{}{"component": "api"})

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
			WriteTimeout: config.GetDuration(cfg.WriteTimeout),
			IdleTimeout:  config.GetDuration(cfg.IdleTimeout),
		},
		handlers:    NewHandlers(svc, log),
		healthCheck: NewHealthCheck(checks, log),
		logger:      log,
		cfg:         cfg,
	}
}

// SetupRoutes registers middleware and every route.
func (s *Server) SetupRoutes() {
	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	middlewareChain := []func(http.Handler) http.Handler{
		Recovery(s.logger),
		RequestID,
		Logging(s.logger),
		CORS(origins),
	}
	if s.cfg.RateLimit.Enabled {
		limiter := NewRateLimiter(s.cfg.RateLimit.RequestsPerSecond, s.cfg.RateLimit.Burst, s.logger)
		middlewareChain = append(middlewareChain, limiter.Limit)
	}
	middlewareChain = append(middlewareChain, Timeout(config.GetDuration(s.cfg.RequestTimeout)))

	s.router.Use(mux.MiddlewareFunc(Chain(middlewareChain...)))

	s.router.HandleFunc("/health", s.healthCheck.LivenessHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", s.healthCheck.ReadinessHandler).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/hubs", s.handlers.ListHubs).Methods(http.MethodGet)
	v1.HandleFunc("/stats", s.handlers.GetGlobalStats).Methods(http.MethodGet)
	v1.HandleFunc("/hubs/{hub}/stats", s.handlers.GetHubStats).Methods(http.MethodGet)
	v1.HandleFunc("/onboarding", s.handlers.GetGlobalOnboarding).Methods(http.MethodGet)
	v1.HandleFunc("/onboarding/export", s.handlers.ExportOnboarding).Methods(http.MethodGet)
	v1.HandleFunc("/hubs/{hub}/onboarding", s.handlers.GetHubOnboarding).Methods(http.MethodGet)
	v1.HandleFunc("/tenants/{tenantId}/onboarding", s.handlers.GetTenantOnboarding).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Status:    "error",
			ErrorCode: "NOT_FOUND",
			Message:   "endpoint not found",
			RequestID: r.Header.Get(requestIDHeader),
		})
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
			Status:    "error",
			ErrorCode: "METHOD_NOT_ALLOWED",
			Message:   "method not allowed",
			RequestID: r.Header.Get(requestIDHeader),
		})
	})
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", map[string]interface{}{"port": s.cfg.Port})

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server", nil)
	return s.httpServer.Shutdown(ctx)
}

// GetHandler returns the router for tests and embedding.
func (s *Server) GetHandler() http.Handler {
	return s.router
}
