// File: internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mobilesec-ms/reportgen/internal/config"
)

// Server hosts the report API.
type Server struct {
	cfg        config.ServerConfig
	logger     *zap.Logger
	handlers   *Handlers
	router     chi.Router
	httpServer *http.Server
}

// NewServer builds the router and HTTP server; it does not start listening.
func NewServer(cfg config.ServerConfig, generator ReportGenerator, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:      cfg,
		logger:   logger.Named("server"),
		handlers: NewHandlers(logger, generator),
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}
	if s.cfg.CORSEnabled {
		r.Use(corsMiddleware)
	}

	s.handlers.RegisterRoutes(r)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.handlers.respondWithError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.handlers.respondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and blocks until ctx is cancelled,
// SIGINT/SIGTERM arrives, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// Goroutine for graceful shutdown
	idleConnsClosed := make(chan struct{})
	stop := make(chan struct{})
	go func() {
		defer close(idleConnsClosed)

		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigint)

		select {
		case <-sigint:
			s.logger.Info("Received shutdown signal, shutting down gracefully...")
		case <-ctx.Done():
			s.logger.Info("Context cancelled, shutting down gracefully...")
		case <-stop:
			return
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}()

	s.logger.Info("Report generator listening", zap.String("address", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		close(stop)
		<-idleConnsClosed
		s.logger.Error("HTTP server Serve error", zap.Error(err))
		return err
	}

	<-idleConnsClosed
	s.logger.Info("Report generator stopped.")
	return nil
}
