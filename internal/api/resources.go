package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"vignette/internal/placement"
	"vignette/internal/services"
)

func (s *Server) handleImageSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "search", "query parameter required", nil))
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "search", "limit must be a positive integer", nil))
			return
		}
		limit = parsed
	}

	results, err := s.search.Search(r.Context(), query, limit)
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrCapability, "api", "search", "wikimedia search failed", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "query": query})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.ListProducts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if products == nil {
		products = []placement.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (s *Server) handleReplaceProducts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Products []placement.Product `json:"products"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, product := range req.Products {
		if product.ID == "" {
			s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "products", "every product needs an id", nil))
			return
		}
	}
	if err := s.catalog.ReplaceProducts(r.Context(), req.Products); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(req.Products)})
}

func (s *Server) handleAddLike(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Session string `json:"session"`
		placement.LikedScene
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.AddLikedScene(r.Context(), req.Session, req.LikedScene); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListGenerations(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("date")
	if day == "" {
		day = time.Now().Format("2006-01-02")
	}
	entries, err := s.store.ListDay(day)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": day, "generations": entries})
}

func (s *Server) handleGetGeneration(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.Get(chi.URLParam(r, "date"), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "date") + "/" + chi.URLParam(r, "filename")
	path, err := s.store.MediaPath(ref)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.ServeFile(w, r, path)
}
