package api

import (
	"net/http"

	"vignette/internal/fanout"
	"vignette/internal/pipeline"
	"vignette/internal/placement"
	"vignette/internal/services"
)

type scenesRequest struct {
	WritingContext    string                 `json:"writing_context"`
	LikedScenes       []placement.LikedScene `json:"liked_scenes,omitempty"`
	ContinuationCount int                    `json:"continuation_count"`
	ExplorationCount  int                    `json:"exploration_count"`
}

type scenesResponse struct {
	Scenes []placement.Scene `json:"scenes"`
	Usage  placement.Usage   `json:"usage"`
}

func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	var req scenesRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.WritingContext == "" {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "scenes", "writing_context cannot be empty", nil))
		return
	}
	if req.ContinuationCount+req.ExplorationCount < 1 {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "scenes", "at least one scene must be requested", nil))
		return
	}

	scenes, usage, err := s.pipeline.GenerateScenes(r.Context(), pipeline.ScenesInput{
		WritingContext:    req.WritingContext,
		LikedScenes:       req.LikedScenes,
		ContinuationCount: req.ContinuationCount,
		ExplorationCount:  req.ExplorationCount,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scenesResponse{Scenes: scenes, Usage: usage})
}

type generateImagesRequest struct {
	Scenes []placement.Scene `json:"scenes"`
}

type stageFailure struct {
	SceneID string `json:"scene_id"`
	Error   string `json:"error"`
}

type generateImagesResponse struct {
	Images   []placement.GeneratedImage `json:"images"`
	Failures []stageFailure             `json:"failures,omitempty"`
}

func (s *Server) handleGenerateImages(w http.ResponseWriter, r *http.Request) {
	var req generateImagesRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	images, failures, err := s.pipeline.GenerateImages(r.Context(), req.Scenes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, generateImagesResponse{Images: images, Failures: toStageFailures(failures)})
}

type selectProductsRequest struct {
	Images   []placement.GeneratedImage `json:"images"`
	Products []placement.Product        `json:"products"`
}

type selectProductsResponse struct {
	Selections []placement.ProductSelection `json:"selections"`
	Failures   []stageFailure               `json:"failures,omitempty"`
}

func (s *Server) handleSelectProducts(w http.ResponseWriter, r *http.Request) {
	var req selectProductsRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Products) == 0 {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "select", "at least one product is required", nil))
		return
	}

	selections, failures, err := s.pipeline.SelectProducts(r.Context(), req.Images, req.Products)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, selectProductsResponse{Selections: selections, Failures: toStageFailures(failures)})
}

type composeBatchRequest struct {
	Images     []placement.GeneratedImage   `json:"images"`
	Selections []placement.ProductSelection `json:"selections"`
	Products   []placement.Product          `json:"products"`
}

type composeBatchResponse struct {
	Composed []placement.ComposedImage `json:"composed"`
	Failures []stageFailure            `json:"failures,omitempty"`
}

func (s *Server) handleComposeBatch(w http.ResponseWriter, r *http.Request) {
	var req composeBatchRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	composed, failures, err := s.pipeline.ComposeImages(r.Context(), req.Images, req.Selections, req.Products)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, composeBatchResponse{Composed: composed, Failures: toStageFailures(failures)})
}

type generateMasksRequest struct {
	Composed   []placement.ComposedImage    `json:"composed"`
	Selections []placement.ProductSelection `json:"selections"`
	Products   []placement.Product          `json:"products"`
}

type generateMasksResponse struct {
	Masks    []placement.Mask `json:"masks"`
	Failures []stageFailure   `json:"failures,omitempty"`
}

func (s *Server) handleGenerateMasks(w http.ResponseWriter, r *http.Request) {
	var req generateMasksRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	masks, failures, err := s.pipeline.GenerateMasks(r.Context(), req.Composed, req.Selections, req.Products)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, generateMasksResponse{Masks: masks, Failures: toStageFailures(failures)})
}

type pipelineRequest struct {
	pipeline.Request
	Session string `json:"session,omitempty"`
}

func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	var req pipelineRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	// Fall back to stored preference history when the caller did not
	// supply liked scenes but named a session.
	if len(req.LikedScenes) == 0 && req.Session != "" && s.catalog != nil {
		recent, err := s.catalog.RecentLikedScenes(r.Context(), req.Session, 20)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		req.LikedScenes = recent
	}

	result, err := s.pipeline.Run(r.Context(), req.Request)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func toStageFailures(failures []fanout.Failure) []stageFailure {
	if len(failures) == 0 {
		return nil
	}
	out := make([]stageFailure, 0, len(failures))
	for _, failure := range failures {
		out = append(out, stageFailure{SceneID: failure.Key, Error: failure.Err.Error()})
	}
	return out
}
