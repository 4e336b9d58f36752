// Package server exposes the pipeline over HTTP.
//
// # Endpoints
//
//	GET  /api/bitmap/{slug}          device bitmap for one recipe (".bmp" optional)
//	GET  /api/mixup/{id}             device bitmap for a stored mixup
//	GET  /api/mixups                 stored mixups as JSON
//	POST /api/mixups                 create a mixup
//	GET  /api/layouts                built-in mixup layouts as JSON
//	GET  /api/recipes                recipe catalog as JSON
//	GET  /api/recipes/{slug}.png     PNG preview
//	GET  /api/recipes/{slug}.svg     SVG preview
//	GET  /healthz                    liveness
//
// The single-recipe bitmap endpoint always answers 200 with a viewable
// bitmap unless even the NotFound fallback fails to render. The mixup
// endpoint maps failures through errors.HTTPStatus: unknown mixup 404,
// invalid layout or query 400, unavailable persistence 503.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/usetrmnl/inkpipe/pkg/config"
	"github.com/usetrmnl/inkpipe/pkg/mixup"
	"github.com/usetrmnl/inkpipe/pkg/pipeline"
	"github.com/usetrmnl/inkpipe/pkg/store"
)

// Server routes HTTP requests to the pipeline, compositor and store.
type Server struct {
	Runner     *pipeline.Runner
	Compositor *mixup.Compositor
	Store      store.Store
	Display    config.DisplayConfig
	Logger     *log.Logger

	router chi.Router
}

// New creates a server. A nil compositor renders slots through runner;
// a nil store keeps mixups in memory.
func New(runner *pipeline.Runner, compositor *mixup.Compositor, st store.Store, display config.DisplayConfig, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if compositor == nil {
		compositor = mixup.New(runner, logger)
	}
	if st == nil {
		st = store.NewMemoryStore()
	}
	if display.Width <= 0 || display.Height <= 0 {
		display.Width, display.Height = pipeline.DefaultWidth, pipeline.DefaultHeight
	}
	if display.Grayscale <= 0 {
		display.Grayscale = pipeline.DefaultLevels
	}
	s := &Server{
		Runner:     runner,
		Compositor: compositor,
		Store:      st,
		Display:    display,
		Logger:     logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/bitmap/{slug}", s.handleBitmap)
		r.Get("/mixup/{id}", s.handleMixup)
		r.Get("/mixups", s.handleListMixups)
		r.Post("/mixups", s.handleCreateMixup)
		r.Get("/layouts", s.handleLayouts)
		r.Get("/recipes", s.handleRecipes)
		r.Get("/recipes/{file}", s.handlePreview)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.Logger.Info("shutting down")
		shutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

// logRequests logs one line per request at info level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}
