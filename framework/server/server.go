// Package server exposes a Bootstrap over HTTP behind a chi middleware
// stack.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/km-arc/simple-structure/framework/app"
	"github.com/km-arc/simple-structure/framework/config"
)

// Server routes static files through chi and everything else to the
// Bootstrap.
type Server struct {
	mux chi.Router
	app *app.Bootstrap
	cfg config.HTTPConfig
}

// New creates a Server with RequestID, RealIP, Logger and Recoverer
// middleware in front of b.
func New(b *app.Bootstrap, cfg config.HTTPConfig, mw ...func(http.Handler) http.Handler) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(mw...)

	r.Handle("/*", b)
	r.NotFound(b.ServeHTTP)
	r.MethodNotAllowed(b.ServeHTTP)
	return &Server{mux: r, app: b, cfg: cfg}
}

// Static serves a directory at the given prefix.
//
//	srv.Static("/public", "./public")
func (s *Server) Static(prefix, dir string) {
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	s.mux.Get(prefix+"/*", func(w http.ResponseWriter, req *http.Request) {
		fs.ServeHTTP(w, req)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.mux.ServeHTTP(w, req)
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run listens on addr and serves until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve boots the application if needed and serves on ln until ctx is
// done, then shuts down gracefully within the configured timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !s.app.Providers().Booted() {
		if err := s.app.Boot(); err != nil {
			_ = ln.Close()
			return fmt.Errorf("server: boot: %w", err)
		}
	}
	logger := s.app.Logger()

	srv := &http.Server{
		Handler:      s.mux,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "server started", slog.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.ErrorContext(ctx, "server failed", slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	logger.InfoContext(shutdownCtx, "shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(shutdownCtx, "server shutdown failed", slog.String("error", err.Error()))
		return err
	}
	<-errCh
	logger.InfoContext(shutdownCtx, "server stopped")
	return nil
}
