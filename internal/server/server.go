// Package server serves the history over HTTP: the data and chart pages for
// a browser and a small JSON API for scripts.
package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/klytics/sheetkit/internal/history"
	"github.com/klytics/sheetkit/internal/importer"
)

//go:embed templates/*.html
var templateFS embed.FS

// MaxUploadBytes caps the size of an uploaded workbook.
const MaxUploadBytes = 32 << 20

// Server holds the router and the state its handlers share.
type Server struct {
	router    *chi.Mux
	store     *history.Store
	im        *importer.Importer
	templates *template.Template
	logger    *slog.Logger

	// MaxColWidth truncates cells on the data page. Zero means no limit.
	MaxColWidth int
}

// New builds a Server over store. Uploads are decoded with im.
func New(store *history.Store, im *importer.Importer, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	templates, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("could not parse templates: %w", err)
	}

	s := &Server{
		router:    chi.NewRouter(),
		store:     store,
		im:        im,
		templates: templates,
		logger:    logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/data", http.StatusFound)
	})
	s.router.Get("/data", s.handleData)
	s.router.Get("/chart", s.handleChart)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/files", s.handleListFiles)
		r.Post("/files", s.handleUpload)
		r.Get("/files/{id}", s.handleGetFile)
		r.Delete("/files/{id}", s.handleDeleteFile)
		r.Put("/selection/{id}", s.handleSelect)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("could not serve on %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("template error", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
