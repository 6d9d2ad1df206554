// Package api exposes the placement pipeline, product catalog, image
// search, and generation audit trail over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vignette/internal/catalog"
	"vignette/internal/genstore"
	"vignette/internal/logging"
	"vignette/internal/pipeline"
	"vignette/internal/services"
	"vignette/internal/services/imagesearch"
)

// Server bundles the handlers and their collaborators.
type Server struct {
	pipeline *pipeline.Pipeline
	catalog  *catalog.Store
	store    *genstore.Store
	search   *imagesearch.Client
	logger   *slog.Logger
}

// NewServer constructs the HTTP surface. Any collaborator may be nil;
// its routes then answer 503.
func NewServer(p *pipeline.Pipeline, cat *catalog.Store, store *genstore.Store, search *imagesearch.Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{pipeline: p, catalog: cat, store: store, search: search, logger: logger}
}

// Router builds the chi route tree with the standard middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/placement", func(r chi.Router) {
			r.Use(requireConfigured(s.pipeline != nil))
			r.Post("/scenes", s.handleScenes)
			r.Post("/generate-images", s.handleGenerateImages)
			r.Post("/select-products", s.handleSelectProducts)
			r.Post("/compose-batch", s.handleComposeBatch)
			r.Post("/generate-masks", s.handleGenerateMasks)
			r.Post("/pipeline", s.handlePipeline)
		})

		r.With(requireConfigured(s.search != nil)).Get("/images/search", s.handleImageSearch)

		r.Route("/products", func(r chi.Router) {
			r.Use(requireConfigured(s.catalog != nil))
			r.Get("/", s.handleListProducts)
			r.Put("/", s.handleReplaceProducts)
		})

		r.With(requireConfigured(s.catalog != nil)).Post("/likes", s.handleAddLike)

		r.Route("/generations", func(r chi.Router) {
			r.Use(requireConfigured(s.store != nil))
			r.Get("/", s.handleListGenerations)
			r.Get("/{date}/{id}", s.handleGetGeneration)
			r.Get("/media/{date}/{filename}", s.handleGetMedia)
		})
	})

	return r
}

// requireConfigured short-circuits a route group whose backing
// collaborator was not supplied to NewServer.
func requireConfigured(configured bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !configured {
				writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service not configured"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps the service error taxonomy onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrFatalStage), errors.Is(err, services.ErrCapability):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		logging.WithContext(r.Context(), s.logger).Error("request failed",
			logging.String("path", r.URL.Path),
			logging.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(r *http.Request, target any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return services.Wrap(services.ErrValidation, "api", "decode", "invalid request body", err)
	}
	return nil
}
