package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"exemplo.com.br/creditos/internal/infrastructure/config"
	httperrors "exemplo.com.br/creditos/internal/infrastructure/http"
	"exemplo.com.br/creditos/internal/infrastructure/http/middleware"
)

// Server wraps the HTTP listener shared by both binaries.
type Server struct {
	cfg        config.HTTPSettings
	log        *slog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func()
}

// Options configures a Server. Mount registers the application routes.
type Options struct {
	HTTP          config.HTTPSettings
	Logger        *slog.Logger
	HealthHandler http.Handler
	Mount         func(r chi.Router)
	Closers       []func()
}

// New builds the router with the common middleware chain and /health.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.HealthHandler == nil {
		return nil, errors.New("health handler is required")
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, http.StatusNotFound, httperrors.MsgNotFound, nil, opts.Logger)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, http.StatusMethodNotAllowed, httperrors.MsgMethodNotAllowed, nil, opts.Logger)
	})

	r.Method(http.MethodGet, "/health", opts.HealthHandler)
	if opts.Mount != nil {
		opts.Mount(r)
	}

	srv := &http.Server{
		Addr:         opts.HTTP.Address(),
		Handler:      r,
		ReadTimeout:  opts.HTTP.ReadTimeout,
		WriteTimeout: opts.HTTP.WriteTimeout,
		IdleTimeout:  opts.HTTP.IdleTimeout,
	}

	return &Server{
		cfg:        opts.HTTP,
		log:        opts.Logger,
		router:     r,
		httpServer: srv,
		closers:    opts.Closers,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains connections within the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run over an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server started", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info("Shutting down HTTP server", "timeout", s.cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases the resources registered in Options.Closers, last first.
func (s *Server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
