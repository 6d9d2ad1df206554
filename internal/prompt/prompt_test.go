package prompt_test

import (
	"strings"
	"testing"

	"vignette/internal/prompt"
)

func TestLoadAllTemplates(t *testing.T) {
	names := []string{
		prompt.Scenes,
		prompt.GenerateImage,
		prompt.Select,
		prompt.Compose,
		prompt.ComposeWithReference,
		prompt.Masks,
	}
	for _, name := range names {
		text, err := prompt.Load(name)
		if err != nil {
			t.Fatalf("Load(%q) failed: %v", name, err)
		}
		if strings.TrimSpace(text) == "" {
			t.Fatalf("template %q is empty", name)
		}
	}
}

func TestLoadUnknownTemplate(t *testing.T) {
	if _, err := prompt.Load("does_not_exist"); err == nil {
		t.Fatal("expected an error for an unknown template")
	}
}

func TestRenderSubstitutesVariables(t *testing.T) {
	rendered, err := prompt.Render(prompt.Scenes, map[string]string{
		"writing_context":      "A slow morning by the water.",
		"liked_scenes_section": "<liked_scenes>\n</liked_scenes>",
		"total_count":          "4",
		"continuation_count":   "2",
		"exploration_count":    "2",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(rendered, "A slow morning by the water.") {
		t.Fatal("writing context not substituted")
	}
	if strings.Contains(rendered, "{writing_context}") || strings.Contains(rendered, "{total_count}") {
		t.Fatalf("placeholders left unsubstituted:\n%s", rendered)
	}
}

func TestRenderKeepsUnknownPlaceholders(t *testing.T) {
	rendered, err := prompt.Render(prompt.GenerateImage, map[string]string{
		"scene_description": "Harbor at dawn.",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(rendered, "{mood}") {
		t.Fatal("unsupplied placeholder should remain visible")
	}
}
