package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"vignette/internal/logging"
	"vignette/internal/placement"
	"vignette/internal/services"
)

// Request carries the inputs for a full pipeline run.
type Request struct {
	WritingContext    string                 `json:"writing_context"`
	LikedScenes       []placement.LikedScene `json:"liked_scenes,omitempty"`
	Products          []placement.Product    `json:"products"`
	SceneCount        int                    `json:"scene_count"`
	ContinuationRatio float64                `json:"continuation_ratio"`
}

// StageStats records timing and output volume for one stage.
type StageStats struct {
	Elapsed float64 `json:"elapsed"`
	Count   int     `json:"count"`
}

// Stats summarizes a full run: per-stage timing plus totals.
type Stats struct {
	Scenes              StageStats `json:"scenes"`
	Images              StageStats `json:"images"`
	Selections          StageStats `json:"selections"`
	Composition         StageStats `json:"composition"`
	Masks               StageStats `json:"masks"`
	TotalElapsed        float64    `json:"total_elapsed"`
	PlacementsGenerated int        `json:"placements_generated"`
}

// RunResult is the outcome of a full pipeline run.
type RunResult struct {
	Placements []placement.Result `json:"placements"`
	Stats      Stats              `json:"stats"`
	Usage      placement.Usage    `json:"usage"`
}

// Validate rejects requests before any stage runs.
func (r Request) Validate() error {
	if strings.TrimSpace(r.WritingContext) == "" {
		return services.Wrap(services.ErrValidation, "", "validate", "writing_context cannot be empty", nil)
	}
	if len(r.Products) == 0 {
		return services.Wrap(services.ErrValidation, "", "validate", "at least one product is required", nil)
	}
	if r.SceneCount < 1 || r.SceneCount > 10 {
		return services.Wrap(services.ErrValidation, "", "validate",
			fmt.Sprintf("scene_count must be 1-10, got %d", r.SceneCount), nil)
	}
	if r.ContinuationRatio < 0 || r.ContinuationRatio > 1 {
		return services.Wrap(services.ErrValidation, "", "validate",
			fmt.Sprintf("continuation_ratio must be 0-1, got %g", r.ContinuationRatio), nil)
	}
	return nil
}

// SplitSceneCounts computes the continuation/exploration split. With no
// liked history every scene explores, regardless of the ratio.
func SplitSceneCounts(total int, ratio float64, likedCount int) (continuation, exploration int) {
	if likedCount == 0 {
		return 0, total
	}
	continuation = int(math.Round(float64(total) * ratio))
	if continuation > total {
		continuation = total
	}
	return continuation, total - continuation
}

// Run executes all five stages in sequence and joins their outputs into
// final placements. A stage that yields zero successes aborts the run;
// individual item failures only shrink the correlation set.
func (p *Pipeline) Run(ctx context.Context, req Request) (*RunResult, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	logger := logging.WithContext(ctx, p.logger)
	logger.Info("pipeline started",
		logging.Int("writing_length", len(req.WritingContext)),
		logging.Int("product_count", len(req.Products)),
		logging.Int("scene_count", req.SceneCount),
		logging.Int("liked_count", len(req.LikedScenes)))

	continuationCount, explorationCount := SplitSceneCounts(req.SceneCount, req.ContinuationRatio, len(req.LikedScenes))

	var result RunResult

	// Stage 1: scenes.
	stageStart := time.Now()
	scenes, usage, err := p.GenerateScenes(ctx, ScenesInput{
		WritingContext:    req.WritingContext,
		LikedScenes:       req.LikedScenes,
		ContinuationCount: continuationCount,
		ExplorationCount:  explorationCount,
	})
	if err != nil {
		return nil, err
	}
	result.Usage.Add(usage)
	result.Stats.Scenes = StageStats{Elapsed: seconds(stageStart), Count: len(scenes)}

	// Stage 2: base images.
	stageStart = time.Now()
	images, _, err := p.GenerateImages(ctx, scenes)
	if err != nil {
		return nil, err
	}
	result.Stats.Images = StageStats{Elapsed: seconds(stageStart), Count: len(images)}

	// Stage 3: product selection.
	stageStart = time.Now()
	selections, _, err := p.SelectProducts(ctx, images, req.Products)
	if err != nil {
		return nil, err
	}
	result.Stats.Selections = StageStats{Elapsed: seconds(stageStart), Count: len(selections)}

	// Stage 4: composition.
	stageStart = time.Now()
	composed, _, err := p.ComposeImages(ctx, images, selections, req.Products)
	if err != nil {
		// Every surviving selection may be NONE; that is an empty but
		// valid final result, not a failure.
		if allNone(selections) {
			result.Stats.TotalElapsed = seconds(start)
			logger.Info("pipeline completed with no product matches")
			return &result, nil
		}
		return nil, err
	}
	result.Stats.Composition = StageStats{Elapsed: seconds(stageStart), Count: len(composed)}

	// Stage 5: masks.
	stageStart = time.Now()
	masks, _, err := p.GenerateMasks(ctx, composed, selections, req.Products)
	if err != nil {
		return nil, err
	}
	result.Stats.Masks = StageStats{Elapsed: seconds(stageStart), Count: len(masks)}

	result.Placements = assemble(scenes, images, selections, composed, masks, req.Products)
	result.Stats.TotalElapsed = seconds(start)
	result.Stats.PlacementsGenerated = len(result.Placements)

	logger.Info("pipeline completed",
		logging.Int("placements", len(result.Placements)),
		logging.Duration(logging.FieldDuration, time.Since(start)))
	return &result, nil
}

// assemble left-joins every stage's outputs by scene id. Rows missing
// any link, including NONE selections, are dropped.
func assemble(
	scenes []placement.Scene,
	images []placement.GeneratedImage,
	selections []placement.ProductSelection,
	composed []placement.ComposedImage,
	masks []placement.Mask,
	products []placement.Product,
) []placement.Result {
	sceneIndex := indexBySceneID(scenes, func(s placement.Scene) string { return s.ID })
	imageIndex := indexBySceneID(images, func(img placement.GeneratedImage) string { return img.SceneID })
	selectionIndex := indexBySceneID(selections, func(sel placement.ProductSelection) string { return sel.SceneID })
	composedIndex := indexBySceneID(composed, func(img placement.ComposedImage) string { return img.SceneID })
	productIndex := indexBySceneID(products, func(prod placement.Product) string { return prod.ID })

	results := make([]placement.Result, 0, len(masks))
	for _, mask := range masks {
		scene, haveScene := sceneIndex[mask.SceneID]
		image, haveImage := imageIndex[mask.SceneID]
		selection, haveSelection := selectionIndex[mask.SceneID]
		composedImage, haveComposed := composedIndex[mask.SceneID]
		if !haveScene || !haveImage || !haveSelection || !haveComposed || selection.None() {
			continue
		}
		product, haveProduct := productIndex[selection.ProductID]
		if !haveProduct {
			continue
		}
		results = append(results, placement.Result{
			SceneID:       mask.SceneID,
			Description:   scene.Description,
			Mood:          scene.Mood,
			Kind:          scene.Kind,
			SceneImage:    image.Data,
			ComposedImage: composedImage.Data,
			Mask:          mask.Data,
			MimeType:      composedImage.MimeType,
			Product:       product,
			PlacementHint: selection.PlacementHint,
			Rationale:     selection.Rationale,
		})
	}
	return results
}

func allNone(selections []placement.ProductSelection) bool {
	for _, selection := range selections {
		if !selection.None() {
			return false
		}
	}
	return true
}

func seconds(since time.Time) float64 {
	return math.Round(time.Since(since).Seconds()*1000) / 1000
}
