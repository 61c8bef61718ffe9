package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/agutierrezreginodev/potencia-agenda/internal/auth"
	"github.com/agutierrezreginodev/potencia-agenda/internal/config"
)

// DefaultRequestTimeout applies when the server config has none.
const DefaultRequestTimeout = 330 * time.Second

type Server struct {
	Router *chi.Mux
	Port   int

	logger        *slog.Logger
	authenticator *auth.Authenticator
	httpServer    *http.Server
}

// New builds the router with the common middleware chain. Routes that need a
// user are registered through Authenticated.
func New(cfg config.ServerConfig, logger *slog.Logger, authenticator *auth.Authenticator) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	r := chi.NewRouter()

	// Apply middleware in order
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(TimeoutMiddleware(timeout))
	r.Use(middleware.Recoverer)

	// Wrap with OpenTelemetry HTTP instrumentation
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "potencia-agenda")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return &Server{
		Router:        r,
		Port:          cfg.Port,
		logger:        logger,
		authenticator: authenticator,
	}
}

// Authenticated registers routes behind AuthMiddleware.
func (s *Server) Authenticated(fn func(r chi.Router)) {
	s.Router.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.authenticator))
		fn(r)
	})
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", slog.Int("port", s.Port))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}
