// Package server exposes a builder session over a local JSON HTTP API.
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

	formbuilder "github.com/goliatone/go-formbuilder"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBasePath mounts every route under base, e.g. "/api".
func WithBasePath(base string) Option {
	return func(s *Server) {
		s.basePath = base
	}
}

// WithGuard runs fn before every request. A non-nil error rejects the request
// with 403, or with the status of an HTTPError.
func WithGuard(fn func(*http.Request) error) Option {
	return func(s *Server) {
		s.guard = fn
	}
}

// WithFormTitle sets the title used in the generated OpenAPI document and
// outline.
func WithFormTitle(title string) Option {
	return func(s *Server) {
		if title != "" {
			s.title = title
		}
	}
}

// Server serves one Builder. Store commands are serialised by the store
// itself, so handlers may run concurrently.
type Server struct {
	builder  *formbuilder.Builder
	logger   *slog.Logger
	basePath string
	guard    func(*http.Request) error
	title    string
}

// New constructs a Server for b.
func New(b *formbuilder.Builder, options ...Option) *Server {
	s := &Server{
		builder: b,
		logger:  slog.Default(),
		title:   "Form submission",
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.builder == nil {
		s.builder = formbuilder.New(formbuilder.WithLogger(s.logger))
	}
	return s
}

// Handler returns the chi router with every route mounted.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(s.logRequests)
	if s.guard != nil {
		router.Use(s.guardRequests)
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(s.logger, w, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(s.logger, w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", http.StatusText(http.StatusMethodNotAllowed))
	})

	if base := MountPath(s.basePath, "/"); base != "/" {
		router.Route(base, s.Routes)
	} else {
		s.Routes(router)
	}
	return router
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/schema", s.getSchema)
	r.Put("/schema", s.importSchema)
	r.Delete("/schema", s.clearSchema)
	r.Get("/export", s.exportSchema)

	r.Post("/steps", s.addStep)
	r.Patch("/steps/{id}", s.updateStep)
	r.Delete("/steps/{id}", s.removeStep)

	r.Post("/components", s.addComponent)
	r.Patch("/components/{id}", s.updateComponent)
	r.Delete("/components/{id}", s.removeComponent)
	r.Post("/components/{id}/reorder", s.reorderComponent)

	r.Post("/selection", s.selectTarget)
	r.Post("/undo", s.undo)
	r.Post("/redo", s.redo)
	r.Post("/save", s.save)
	r.Post("/load", s.load)

	r.Post("/evaluate", s.evaluate)
	r.Get("/openapi.json", s.openAPI)
	r.Get("/outline", s.outline)
	r.Get("/fields", s.fields)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("server: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(started),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) guardRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.guard(r); err != nil {
			writeGuardError(s.logger, w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe serves handler on addr until ctx is cancelled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("server: shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	}
}
