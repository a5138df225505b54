package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jub0bs/cors"

	"github.com/information-sharing-networks/webclient/internal/apiclient"
	"github.com/information-sharing-networks/webclient/internal/config"
	"github.com/information-sharing-networks/webclient/internal/logger"
	"github.com/information-sharing-networks/webclient/internal/middleware"
)

// Server is the frontend server: it owns the browser session cookies and calls the api on the browser's behalf.
type Server struct {
	router    *chi.Mux
	config    *config.Config
	logger    *slog.Logger
	apiClient *apiclient.Client
	cors      *cors.Middleware
}

// NewServer creates the frontend server.
// apiClient is shared by all requests; the access token is supplied per request from the browser's cookies.
func NewServer(cfg *config.Config, logger *slog.Logger, apiClient *apiclient.Client) (*Server, error) {
	corsMiddleware, err := config.NewCORSMiddleware(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		logger:    logger,
		apiClient: apiClient,
		cors:      corsMiddleware,
	}

	s.setupMiddleware()
	s.registerRoutes()
	return s, nil
}

// ServeHTTP lets the server be used as an http.Handler (e.g. in tests)
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	handlerService := &HandlerService{
		ApiClient: s.apiClient,
		LoginPath: s.config.LoginPath,
		Secure:    s.config.IsSecure(),
	}

	// Public routes
	s.router.Get("/health/live", handlerService.HandleLiveness)
	s.router.Get(s.config.LoginPath, handlerService.HandleLogin)

	// routes that use the browser's session cookie
	s.router.Group(func(r chi.Router) {
		r.Use(s.cors.Wrap)
		r.Use(middleware.PrivateResponses)
		r.Use(middleware.RequestSizeLimit(s.config.MaxRequestSize))

		r.Post("/auth/token", handlerService.HandleSetToken)
		r.Delete("/auth/token", handlerService.HandleClearToken)

		// api calls made by the browser are forwarded with the session's access token
		r.HandleFunc("/api/*", handlerService.HandleAPIProxy)
	})
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(logger.RequestLogging(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.SecurityHeaders(s.config.IsSecure()))
	s.router.Use(middleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
	s.router.Use(chimiddleware.Timeout(config.HandlerTimeout))
}

// Start runs the server until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("frontend server listening",
			slog.String("address", addr),
			slog.String("api_base_url", s.apiClient.BaseURL()),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down frontend server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Server forced to shutdown", slog.String("error", err.Error()))
			return err
		}
	}

	return nil
}
