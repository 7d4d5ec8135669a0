// Package server implements the read-only dashboard over the article cache file.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net"
	"net/http"
	"time"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	cache "github.com/go-pkgz/expirable-cache/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TobiSchelling/cybernews/internal/pipeline"
	"github.com/TobiSchelling/cybernews/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

const articlesPerRow = 4

// Lifecycle stops the application. Shutdown must not block.
type Lifecycle interface {
	Shutdown()
}

// Refresher regenerates the cache file if it's stale. Refresh blocks until the regeneration
// completes.
type Refresher interface {
	Refresh(ctx context.Context, now time.Time, force bool) *pipeline.Result
}

type Options struct {
	Store     *store.Store
	Refresher Refresher // Optional, checked on every dashboard request
	Lifecycle Lifecycle
	Gatherer  prometheus.Gatherer // Default: prometheus.DefaultGatherer
}

// Server is the HTTP server of the news dashboard.
type Server struct {
	store     *store.Store
	refresher Refresher
	lifecycle Lifecycle
	pages     map[string]*template.Template
	renderer  *cardRenderer
	articles  cache.Cache[string, store.ArticleSet]
	router    chi.Router
}

// New creates a new Server.
func New(ctx context.Context, options Options) (*Server, error) {
	base, err := template.New("base.html").ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of the base, so every page can define its own "content".
	pageNames := []string{"index.html", "shutdown.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	gatherer := options.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		store:     options.Store,
		refresher: options.Refresher,
		lifecycle: options.Lifecycle,
		pages:     pages,
		renderer:  newCardRenderer(),
		articles:  cache.NewCache[string, store.ArticleSet]().WithMaxKeys(4),
		router:    chi.NewRouter(),
	}
	s.routes(ctx, gatherer)

	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes(ctx context.Context, gatherer prometheus.Gatherer) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger)

	staticSub, _ := fs.Sub(staticFS, "static")
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.router.Get("/", s.handleIndex)
	s.router.Post("/shutdown", s.handleShutdown)
	s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog: newPrometheusLogger(logging.L(ctx)),
	}))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.refresher != nil {
		for _, step := range s.refresher.Refresh(ctx, time.Now(), false).Steps {
			if step.Err != nil {
				logging.L(ctx).Errorf("Failed to refresh the articles (%s step): %s.", step.Name, step.Err)
			}
		}
	}

	articles, err := s.loadArticles(ctx)
	if err != nil {
		logging.L(ctx).Errorf("Failed to load the articles: %s.", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	cards := make([]card, 0, len(articles))
	for _, article := range articles {
		cards = append(cards, s.renderer.render(ctx, article))
	}

	var rows [][]card
	for start := 0; start < len(cards); start += articlesPerRow {
		rows = append(rows, cards[start:min(start+articlesPerRow, len(cards))])
	}

	s.render(ctx, w, "index.html", map[string]any{
		"Rows":     rows,
		"Articles": len(articles),
	})
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logging.L(ctx).Info("Shutting down the dashboard by user request...")

	s.render(ctx, w, "shutdown.html", nil)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.lifecycle != nil {
		s.lifecycle.Shutdown()
	}
}

// loadArticles returns the cached articles, reading the file only when its modification time has
// changed. A missing file means no articles.
func (s *Server) loadArticles(ctx context.Context) (store.ArticleSet, error) {
	modTime, ok := s.store.ModTime()
	if !ok {
		return nil, nil
	}

	key := fmt.Sprintf("%s@%d", s.store.Path(), modTime.UnixNano())
	if articles, ok := s.articles.Get(key); ok {
		return articles, nil
	}

	articles, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	logging.L(ctx).Debugf("Loaded %d articles from %s.", len(articles), s.store.Path())
	s.articles.Add(key, articles)

	return articles, nil
}

func (s *Server) render(ctx context.Context, w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		logging.L(ctx).Errorf("Template %s not found.", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		logging.L(ctx).Errorf("Error rendering template %s: %s.", name, err)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logging.L(ctx).Debugf("%s %s...", r.Method, r.RequestURI)
		next.ServeHTTP(w, r)
		logging.L(ctx).Debugf("%s %s finished.", r.Method, r.RequestURI)
	})
}

// Serve listens on the given address until the context is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, listener)
}

func (s *Server) serve(ctx context.Context, listener net.Listener) error {
	//nolint:gosec
	server := http.Server{
		Handler:  s.router,
		ErrorLog: log.New(newHTTPLogger(logging.L(ctx)), "Dashboard HTTP server: ", 0),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	logging.L(ctx).Infof("Dashboard is listening on http://%s.", listener.Addr())

	serverCrashed := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			serverCrashed <- fmt.Errorf("dashboard HTTP server has crashed: %w", err)
		}
		close(serverCrashed)
	}()

	select {
	case err := <-serverCrashed:
		return err
	case <-ctx.Done():
	}

	logging.L(ctx).Info("Stopping the dashboard...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.L(ctx).Errorf("Failed to shutdown dashboard HTTP server: %s.", err)
	}

	return <-serverCrashed
}
