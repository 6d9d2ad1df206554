package pipeline_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"vignette/internal/media"
	"vignette/internal/pipeline"
	"vignette/internal/placement"
	"vignette/internal/services"
	"vignette/internal/services/genai"
)

// composePromptCapability records the composition prompt and input
// image count per scene.
type composePromptCapability struct {
	mu      sync.Mutex
	prompts map[string]string
	inputs  map[string]int
}

func newComposePromptCapability() *composePromptCapability {
	return &composePromptCapability{prompts: map[string]string{}, inputs: map[string]int{}}
}

func (c *composePromptCapability) GenerateText(ctx context.Context, prompt string) (genai.Result, error) {
	return genai.Result{}, fmt.Errorf("unexpected GenerateText call")
}

func (c *composePromptCapability) GenerateImage(ctx context.Context, prompt string) (genai.Result, error) {
	return genai.Result{}, fmt.Errorf("unexpected GenerateImage call")
}

func (c *composePromptCapability) EditImage(ctx context.Context, prompt string, inputs []genai.Media) (genai.Result, error) {
	sceneID, _ := services.SceneIDFromContext(ctx)
	c.mu.Lock()
	c.prompts[sceneID] = prompt
	c.inputs[sceneID] = len(inputs)
	c.mu.Unlock()
	return genai.Result{Images: []genai.Media{{Data: fakePNG, MimeType: "image/png"}}}, nil
}

// stubFetcher serves canned images by URL and fails everything else.
type stubFetcher struct {
	images map[string]media.Image
}

func (f stubFetcher) Fetch(ctx context.Context, url string) (media.Image, error) {
	img, ok := f.images[url]
	if !ok {
		return media.Image{}, fmt.Errorf("fetch %s: connection refused", url)
	}
	return img, nil
}

func TestComposeUsesReferenceImageWhenFetched(t *testing.T) {
	capability := newComposePromptCapability()
	fetcher := stubFetcher{images: map[string]media.Image{
		"https://img.example/mug.png": {Data: []byte("mug-bytes"), MimeType: "image/png"},
	}}
	p := pipeline.New(capability, pipeline.WithFetcher(fetcher))

	images := []placement.GeneratedImage{
		{SceneID: "s1", Data: fakePNG, MimeType: "image/png"},
		{SceneID: "s2", Data: fakePNG, MimeType: "image/png"},
	}
	products := []placement.Product{
		{ID: "p1", Name: "Travel Mug", Brand: "Northway", Description: "Insulated mug", ImageURL: "https://img.example/mug.png"},
		{ID: "p2", Name: "Day Pack", Brand: "Northway", Description: "Light day pack", ImageURL: "https://img.example/missing.png"},
	}
	selections := []placement.ProductSelection{
		{SceneID: "s1", ProductID: "p1", PlacementHint: "on the table"},
		{SceneID: "s2", ProductID: "p2", PlacementHint: "by the door"},
	}

	composed, failures, err := p.ComposeImages(context.Background(), images, selections, products)
	if err != nil {
		t.Fatalf("ComposeImages: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if len(composed) != 2 {
		t.Fatalf("composed %d images, want 2", len(composed))
	}

	// Fetched reference: the two-image template plus the reference input.
	if !strings.Contains(capability.prompts["s1"], "The first attached image is a scene") {
		t.Fatalf("scene s1 did not use the reference template:\n%s", capability.prompts["s1"])
	}
	if capability.inputs["s1"] != 2 {
		t.Fatalf("scene s1 got %d inputs, want 2", capability.inputs["s1"])
	}

	// Failed fetch degrades to the description-only template.
	if !strings.Contains(capability.prompts["s2"], "Edit the attached scene image") {
		t.Fatalf("scene s2 did not use the plain template:\n%s", capability.prompts["s2"])
	}
	if !strings.Contains(capability.prompts["s2"], "Light day pack") {
		t.Fatalf("scene s2 prompt missing product description:\n%s", capability.prompts["s2"])
	}
	if capability.inputs["s2"] != 1 {
		t.Fatalf("scene s2 got %d inputs, want 1", capability.inputs["s2"])
	}
}

func TestComposeWithoutFetcherUsesPlainTemplate(t *testing.T) {
	capability := newComposePromptCapability()
	p := pipeline.New(capability)

	images := []placement.GeneratedImage{{SceneID: "s1", Data: fakePNG, MimeType: "image/png"}}
	products := []placement.Product{
		{ID: "p1", Name: "Travel Mug", Brand: "Northway", Description: "Insulated mug", ImageURL: "https://img.example/mug.png"},
	}
	selections := []placement.ProductSelection{{SceneID: "s1", ProductID: "p1", PlacementHint: "on the table"}}

	if _, _, err := p.ComposeImages(context.Background(), images, selections, products); err != nil {
		t.Fatalf("ComposeImages: %v", err)
	}
	if !strings.Contains(capability.prompts["s1"], "Edit the attached scene image") {
		t.Fatalf("expected plain template without a fetcher:\n%s", capability.prompts["s1"])
	}
	if capability.inputs["s1"] != 1 {
		t.Fatalf("got %d inputs, want 1", capability.inputs["s1"])
	}
}
