package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"vignette/internal/fanout"
	"vignette/internal/logging"
	"vignette/internal/placement"
	"vignette/internal/prompt"
	"vignette/internal/services"
	"vignette/internal/services/genai"
	"vignette/internal/tagparse"
)

// ScenesInput carries the resolved inputs for stage 1. The caller has
// already decided the continuation/exploration split.
type ScenesInput struct {
	WritingContext    string
	LikedScenes       []placement.LikedScene
	ContinuationCount int
	ExplorationCount  int
}

// GenerateScenes runs stage 1: a single text completion parsed into
// scene records. Zero parsed scenes is fatal.
func (p *Pipeline) GenerateScenes(ctx context.Context, in ScenesInput) ([]placement.Scene, placement.Usage, error) {
	ctx = services.WithStage(ctx, StageScenes)
	total := in.ContinuationCount + in.ExplorationCount

	scenesPrompt, err := prompt.Render(prompt.Scenes, map[string]string{
		"writing_context":      in.WritingContext,
		"liked_scenes_section": buildLikedScenesSection(in.LikedScenes),
		"total_count":          strconv.Itoa(total),
		"continuation_count":   strconv.Itoa(in.ContinuationCount),
		"exploration_count":    strconv.Itoa(in.ExplorationCount),
	})
	if err != nil {
		return nil, placement.Usage{}, services.Wrap(services.ErrConfiguration, StageScenes, "prompt", "render template", err)
	}

	result, err := p.capability.GenerateText(ctx, scenesPrompt)
	if err != nil {
		return nil, placement.Usage{}, services.Wrap(services.ErrCapability, StageScenes, "generate", "scene generation call failed", err)
	}

	scenes, err := tagparse.ParseScenes(result.Text)

	p.record(ctx, endpointScenes, scenesPrompt, result.Text, nil, map[string]any{
		"scene_count": len(scenes),
		"usage":       result.Usage,
	})

	if err != nil {
		return nil, result.Usage, err
	}

	logging.WithContext(ctx, p.logger).Info("scenes generated",
		logging.Int(logging.FieldCount, len(scenes)))
	return scenes, result.Usage, nil
}

// GenerateImages runs stage 2: one image generation per scene, fanned
// out. Failed scenes are reported but dropped; the error is non-nil only
// when no scene produced an image.
func (p *Pipeline) GenerateImages(ctx context.Context, scenes []placement.Scene) ([]placement.GeneratedImage, []fanout.Failure, error) {
	ctx = services.WithStage(ctx, StageImages)

	tasks := make([]fanout.Task[placement.GeneratedImage], 0, len(scenes))
	for _, scene := range scenes {
		tasks = append(tasks, fanout.Task[placement.GeneratedImage]{
			Key: scene.ID,
			Run: func(ctx context.Context) (placement.GeneratedImage, error) {
				return p.generateSceneImage(services.WithSceneID(ctx, scene.ID), scene)
			},
		})
	}

	return collectStage(ctx, p, StageImages, tasks)
}

func (p *Pipeline) generateSceneImage(ctx context.Context, scene placement.Scene) (placement.GeneratedImage, error) {
	imagePrompt, err := prompt.Render(prompt.GenerateImage, map[string]string{
		"scene_description": scene.Description,
		"mood":              scene.Mood,
	})
	if err != nil {
		return placement.GeneratedImage{}, err
	}

	result, err := p.capability.GenerateImage(ctx, imagePrompt)
	if err != nil {
		return placement.GeneratedImage{}, err
	}
	image := result.Images[0]

	p.record(ctx, endpointImages, imagePrompt, "",
		[]RecordedMedia{{Data: image.Data, MimeType: image.MimeType}},
		map[string]any{
			"scene_id": scene.ID,
			"usage":    result.Usage,
		})

	return placement.GeneratedImage{
		SceneID:  scene.ID,
		Data:     image.Data,
		MimeType: image.MimeType,
	}, nil
}

// SelectProducts runs stage 3: each generated image is shown to the
// model alongside the serialized catalog. A NONE selection is a valid
// success; it simply yields no placement later.
func (p *Pipeline) SelectProducts(ctx context.Context, images []placement.GeneratedImage, products []placement.Product) ([]placement.ProductSelection, []fanout.Failure, error) {
	ctx = services.WithStage(ctx, StageSelection)
	productsXML := BuildProductsXML(products)

	tasks := make([]fanout.Task[placement.ProductSelection], 0, len(images))
	for _, image := range images {
		tasks = append(tasks, fanout.Task[placement.ProductSelection]{
			Key: image.SceneID,
			Run: func(ctx context.Context) (placement.ProductSelection, error) {
				return p.selectProduct(services.WithSceneID(ctx, image.SceneID), image, productsXML)
			},
		})
	}

	return collectStage(ctx, p, StageSelection, tasks)
}

func (p *Pipeline) selectProduct(ctx context.Context, image placement.GeneratedImage, productsXML string) (placement.ProductSelection, error) {
	selectPrompt, err := prompt.Render(prompt.Select, map[string]string{
		"products_xml": productsXML,
	})
	if err != nil {
		return placement.ProductSelection{}, err
	}

	result, err := p.capability.EditImage(ctx, selectPrompt, []genai.Media{
		{Data: image.Data, MimeType: image.MimeType},
	})
	if err != nil {
		return placement.ProductSelection{}, err
	}

	selection, parseErr := tagparse.ParseSelection(result.Text, image.SceneID)

	metadata := map[string]any{
		"scene_id": image.SceneID,
		"usage":    result.Usage,
	}
	if parseErr == nil {
		metadata["selected_product_id"] = selection.ProductID
		metadata["placement_hint"] = selection.PlacementHint
		metadata["rationale"] = selection.Rationale
	}
	p.record(ctx, endpointSelect, selectPrompt, result.Text, nil, metadata)

	if parseErr != nil {
		return placement.ProductSelection{}, parseErr
	}
	return selection, nil
}

type composeTask struct {
	image     placement.GeneratedImage
	selection placement.ProductSelection
	product   placement.Product
	reference *genai.Media
}

// ComposeImages runs stage 4: for every real (non-NONE) selection whose
// scene image and product both exist, edit the product into the scene.
// Product reference images are fetched up front; a fetch failure
// degrades that product to the description-only template.
func (p *Pipeline) ComposeImages(ctx context.Context, images []placement.GeneratedImage, selections []placement.ProductSelection, products []placement.Product) ([]placement.ComposedImage, []fanout.Failure, error) {
	ctx = services.WithStage(ctx, StageComposition)

	imageIndex := indexBySceneID(images, func(img placement.GeneratedImage) string { return img.SceneID })
	productIndex := indexBySceneID(products, func(prod placement.Product) string { return prod.ID })
	references := p.fetchProductImages(ctx, products)

	var tasks []fanout.Task[placement.ComposedImage]
	for _, selection := range selections {
		if selection.None() {
			continue
		}
		image, haveImage := imageIndex[selection.SceneID]
		product, haveProduct := productIndex[selection.ProductID]
		if !haveImage || !haveProduct {
			continue
		}
		task := composeTask{image: image, selection: selection, product: product}
		if ref, ok := references[product.ID]; ok {
			task.reference = &ref
		}
		tasks = append(tasks, fanout.Task[placement.ComposedImage]{
			Key: selection.SceneID,
			Run: func(ctx context.Context) (placement.ComposedImage, error) {
				return p.composeOne(services.WithSceneID(ctx, task.image.SceneID), task)
			},
		})
	}

	return collectStage(ctx, p, StageComposition, tasks)
}

// fetchProductImages resolves every catalog image URL concurrently.
// Failures only cost that product its reference image.
func (p *Pipeline) fetchProductImages(ctx context.Context, products []placement.Product) map[string]genai.Media {
	if p.fetcher == nil {
		return nil
	}
	var tasks []fanout.Task[genai.Media]
	for _, product := range products {
		if product.ImageURL == "" {
			continue
		}
		url := product.ImageURL
		tasks = append(tasks, fanout.Task[genai.Media]{
			Key: product.ID,
			Run: func(ctx context.Context) (genai.Media, error) {
				fetched, err := p.fetcher.Fetch(ctx, url)
				if err != nil {
					return genai.Media{}, err
				}
				return genai.Media{Data: fetched.Data, MimeType: fetched.MimeType}, nil
			},
		})
	}
	if len(tasks) == 0 {
		return nil
	}

	outcome, err := fanout.Run(ctx, tasks, p.maxConcurrency)
	if err != nil {
		return nil
	}
	for _, failure := range outcome.Failures {
		logging.WithContext(ctx, p.logger).Warn("product image fetch failed",
			logging.String(logging.FieldProductID, failure.Key),
			logging.Error(failure.Err))
	}
	return outcome.Successes
}

func (p *Pipeline) composeOne(ctx context.Context, task composeTask) (placement.ComposedImage, error) {
	var composePrompt string
	var err error
	inputs := []genai.Media{{Data: task.image.Data, MimeType: task.image.MimeType}}

	if task.reference != nil {
		composePrompt, err = prompt.Render(prompt.ComposeWithReference, map[string]string{
			"product_brand":  task.product.Brand,
			"product_name":   task.product.Name,
			"placement_hint": task.selection.PlacementHint,
		})
		inputs = append(inputs, *task.reference)
	} else {
		composePrompt, err = prompt.Render(prompt.Compose, map[string]string{
			"product_brand":       task.product.Brand,
			"product_name":        task.product.Name,
			"product_description": task.product.Description,
			"placement_hint":      task.selection.PlacementHint,
		})
	}
	if err != nil {
		return placement.ComposedImage{}, err
	}

	result, err := p.capability.EditImage(ctx, composePrompt, inputs)
	if err != nil {
		return placement.ComposedImage{}, err
	}
	image := result.Images[0]

	p.record(ctx, endpointCompose, composePrompt, "",
		[]RecordedMedia{{Data: image.Data, MimeType: image.MimeType}},
		map[string]any{
			"scene_id":   task.image.SceneID,
			"product_id": task.product.ID,
			"usage":      result.Usage,
		})

	return placement.ComposedImage{
		SceneID:  task.image.SceneID,
		Data:     image.Data,
		MimeType: image.MimeType,
	}, nil
}

// GenerateMasks runs stage 5: a segmentation mask per composed image.
func (p *Pipeline) GenerateMasks(ctx context.Context, composed []placement.ComposedImage, selections []placement.ProductSelection, products []placement.Product) ([]placement.Mask, []fanout.Failure, error) {
	ctx = services.WithStage(ctx, StageMasks)

	selectionIndex := indexBySceneID(selections, func(sel placement.ProductSelection) string { return sel.SceneID })
	productIndex := indexBySceneID(products, func(prod placement.Product) string { return prod.ID })

	tasks := make([]fanout.Task[placement.Mask], 0, len(composed))
	for _, image := range composed {
		productName := "product"
		if selection, ok := selectionIndex[image.SceneID]; ok {
			if product, ok := productIndex[selection.ProductID]; ok {
				productName = product.Name
			}
		}
		img, name := image, productName
		tasks = append(tasks, fanout.Task[placement.Mask]{
			Key: image.SceneID,
			Run: func(ctx context.Context) (placement.Mask, error) {
				return p.maskOne(services.WithSceneID(ctx, img.SceneID), img, name)
			},
		})
	}

	return collectStage(ctx, p, StageMasks, tasks)
}

func (p *Pipeline) maskOne(ctx context.Context, image placement.ComposedImage, productName string) (placement.Mask, error) {
	maskPrompt, err := prompt.Render(prompt.Masks, map[string]string{
		"product_name": productName,
	})
	if err != nil {
		return placement.Mask{}, err
	}

	result, err := p.capability.EditImage(ctx, maskPrompt, []genai.Media{
		{Data: image.Data, MimeType: image.MimeType},
	})
	if err != nil {
		return placement.Mask{}, err
	}
	mask := result.Images[0]

	p.record(ctx, endpointMasks, maskPrompt, "",
		[]RecordedMedia{{Data: mask.Data, MimeType: mask.MimeType}},
		map[string]any{
			"scene_id": image.SceneID,
			"usage":    result.Usage,
		})

	return placement.Mask{
		SceneID:  image.SceneID,
		Data:     mask.Data,
		MimeType: mask.MimeType,
	}, nil
}

// collectStage runs a stage's tasks through the executor, logs each
// per-item failure, and orders successes by scene id. The returned
// error is non-nil only for an empty input set or zero successes.
func collectStage[T any](ctx context.Context, p *Pipeline, stage string, tasks []fanout.Task[T]) ([]T, []fanout.Failure, error) {
	outcome, err := fanout.Run(ctx, tasks, p.maxConcurrency)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrFatalStage, stage, "fanout", "no work items", err)
	}

	logger := logging.WithContext(ctx, p.logger)
	for _, failure := range outcome.Failures {
		logger.Warn("stage item failed",
			logging.String(logging.FieldSceneID, failure.Key),
			logging.Error(failure.Err))
	}
	if len(outcome.Successes) == 0 {
		return nil, outcome.Failures, services.Wrap(services.ErrFatalStage, stage, "fanout",
			fmt.Sprintf("all %d items failed", len(tasks)), nil)
	}

	logger.Info("stage completed",
		logging.String(logging.FieldStage, stage),
		logging.Int("succeeded", len(outcome.Successes)),
		logging.Int("failed", len(outcome.Failures)))
	return orderedValues(outcome.Successes), outcome.Failures, nil
}

// orderedValues flattens a keyed success map into a deterministic
// slice. Keys of the form scene-N order numerically because shorter
// keys sort first.
func orderedValues[T any](values map[string]T) []T {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})
	ordered := make([]T, 0, len(keys))
	for _, key := range keys {
		ordered = append(ordered, values[key])
	}
	return ordered
}

func indexBySceneID[T any](items []T, key func(T) string) map[string]T {
	index := make(map[string]T, len(items))
	for _, item := range items {
		index[key(item)] = item
	}
	return index
}
