// Package server exposes the engine, the document store, and ingestion
// over a chi HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/inkroot/folio/internal/config"
	"github.com/inkroot/folio/internal/engine"
	"github.com/inkroot/folio/internal/hierarchy"
	"github.com/inkroot/folio/internal/ingest"
	"github.com/inkroot/folio/internal/metrics"
	"github.com/inkroot/folio/internal/storage"
	"github.com/inkroot/folio/internal/tags"
)

// WatchService manages watched directory roots. *watcher.Watcher
// satisfies it.
type WatchService interface {
	AddRoot(path string, syncExisting bool) error
	RemoveRoot(path string) error
	Roots() []string
}

// Server is the HTTP API over the engine and its collaborators.
type Server struct {
	engine   *engine.Engine
	store    storage.DocumentStore
	ingestor *ingest.Ingestor
	cfg      *config.Config
	logger   *zap.Logger
	validate *validator.Validate

	watch      WatchService
	metrics    *metrics.Metrics
	configPath string
	configMu   sync.Mutex

	httpServer *http.Server
}

// ServerOption configures optional server collaborators.
type ServerOption func(*Server)

// WithWatch exposes watch root management over the API.
func WithWatch(ws WatchService) ServerOption {
	return func(s *Server) { s.watch = ws }
}

// WithMetrics wires request metrics and the /metrics scrape endpoint.
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithConfigPath makes watch root changes persist back to the config
// file at path.
func WithConfigPath(path string) ServerOption {
	return func(s *Server) { s.configPath = path }
}

// NewServer creates a server over the given collaborators.
func NewServer(eng *engine.Engine, store storage.DocumentStore, ing *ingest.Ingestor, cfg *config.Config, logger *zap.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine:   eng,
		store:    store,
		ingestor: ing,
		cfg:      cfg,
		logger:   logger,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router assembles the full route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(s.requestLogger)
	if s.metrics != nil {
		r.Use(metrics.Middleware(s.metrics))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.Post("/", s.handleAddDocument)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDocument)
				r.Delete("/", s.handleDeleteDocument)
				r.Get("/metadata", s.handleDocumentMetadata)
				r.Patch("/metadata", s.handleUpdateDocumentMetadata)
				r.Get("/tags", s.handleDocumentTags)
				r.Put("/tags/{tagID}", s.handleTagDocument)
				r.Delete("/tags/{tagID}", s.handleUntagDocument)
				r.Get("/similar", s.handleSimilarDocuments)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", s.handleListTags)
			r.Post("/", s.handleCreateTag)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetTag)
				r.Patch("/", s.handleUpdateTag)
				r.Delete("/", s.handleDeleteTag)
				r.Get("/documents", s.handleTagDocuments)
			})
		})

		r.Route("/nodes", func(r chi.Router) {
			r.Post("/", s.handleCreateNode)
			r.Get("/search", s.handleSearchNodes)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetNode)
				r.Patch("/", s.handleUpdateNode)
				r.Delete("/", s.handleDeleteNode)
				r.Post("/move", s.handleMoveNode)
				r.Get("/path", s.handleNodePath)
				r.Get("/descendants", s.handleNodeDescendants)
				r.Get("/siblings", s.handleNodeSiblings)
			})
		})
		r.Get("/tree", s.handleTree)

		r.Get("/statistics", s.handleStatistics)
		r.Post("/snapshot/save", s.handleSnapshotSave)
		r.Post("/snapshot/load", s.handleSnapshotLoad)
		r.Post("/snapshot/backup", s.handleSnapshotBackup)
		r.Post("/reindex", s.handleReindex)

		r.Get("/watch/directories", s.handleWatchRootsList)
		r.Post("/watch/directories", s.handleWatchRootsAdd)
		r.Delete("/watch/directories", s.handleWatchRootsRemove)
	})

	r.Get("/health", s.handleHealth)
	if s.metrics != nil && s.cfg.Metrics.EnabledOrDefault() {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

// decode parses the JSON request body into v, answering 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// valid runs struct validation on a request DTO, answering 400 on
// failure.
func (s *Server) valid(w http.ResponseWriter, v interface{}) bool {
	if err := s.validate.Struct(v); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps sentinel errors from the engine and its owned
// structures onto HTTP status codes.
func (s *Server) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrDocumentNotFound),
		errors.Is(err, hierarchy.ErrNodeNotFound),
		errors.Is(err, tags.ErrTagNotFound),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, fs.ErrNotExist):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tags.ErrDuplicateName),
		errors.Is(err, tags.ErrCycle),
		errors.Is(err, tags.ErrHasChildren),
		errors.Is(err, hierarchy.ErrCycle),
		errors.Is(err, hierarchy.ErrHasChildren),
		errors.Is(err, hierarchy.ErrDocumentMapped):
		s.respondError(w, http.StatusConflict, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}
