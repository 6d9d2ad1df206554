package tagparse_test

import (
	"errors"
	"testing"

	"vignette/internal/placement"
	"vignette/internal/services"
	"vignette/internal/tagparse"
)

func TestParseScenes(t *testing.T) {
	text := `Here are the scenes you asked for:

<scene id="1" type="continuation">
<description>Morning light over the harbor.</description>
<mood>calm</mood>
</scene>

<scene id="2">
<description>A crowded night market.</description>
<mood>electric</mood>
</scene>

Hope these work!`

	scenes, err := tagparse.ParseScenes(text)
	if err != nil {
		t.Fatalf("ParseScenes failed: %v", err)
	}
	if len(scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(scenes))
	}

	first := scenes[0]
	if first.ID != "scene-1" {
		t.Fatalf("unexpected id %q", first.ID)
	}
	if first.Kind != placement.KindContinuation {
		t.Fatalf("expected continuation, got %q", first.Kind)
	}
	if first.Description != "Morning light over the harbor." {
		t.Fatalf("unexpected description %q", first.Description)
	}
	if first.Mood != "calm" {
		t.Fatalf("unexpected mood %q", first.Mood)
	}

	if scenes[1].Kind != placement.KindExploration {
		t.Fatalf("missing type attribute should default to exploration, got %q", scenes[1].Kind)
	}
}

func TestParseScenesMultilineDescription(t *testing.T) {
	text := `<scene id="3" type="exploration">
<description>A rooftop garden
spanning two lines.</description>
<mood>serene</mood>
</scene>`

	scenes, err := tagparse.ParseScenes(text)
	if err != nil {
		t.Fatalf("ParseScenes failed: %v", err)
	}
	if len(scenes) != 1 {
		t.Fatalf("expected 1 scene, got %d", len(scenes))
	}
	if scenes[0].ID != "scene-3" {
		t.Fatalf("unexpected id %q", scenes[0].ID)
	}
	if scenes[0].Description != "A rooftop garden\nspanning two lines." {
		t.Fatalf("unexpected description %q", scenes[0].Description)
	}
}

func TestParseScenesNoBlocks(t *testing.T) {
	_, err := tagparse.ParseScenes("I could not generate any scenes, sorry.")
	if err == nil {
		t.Fatal("expected an error for text with no scene blocks")
	}
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestParseScenesSkipsMalformedBlocks(t *testing.T) {
	text := `<scene id="1">
<description>Broken block, no mood.</description>
</scene>

<scene id="2">
<description>Valid block.</description>
<mood>bright</mood>
</scene>`

	scenes, err := tagparse.ParseScenes(text)
	if err != nil {
		t.Fatalf("ParseScenes failed: %v", err)
	}
	if len(scenes) != 1 {
		t.Fatalf("expected 1 scene, got %d", len(scenes))
	}
	if scenes[0].ID != "scene-2" {
		t.Fatalf("unexpected id %q", scenes[0].ID)
	}
}

func TestParseSelection(t *testing.T) {
	text := `The best fit is below.

<product_id>prod-7</product_id>
<placement>on the café table beside the cup</placement>
<rationale>Matches the slow morning mood.</rationale>
<match_score>8</match_score>`

	sel, err := tagparse.ParseSelection(text, "scene-1")
	if err != nil {
		t.Fatalf("ParseSelection failed: %v", err)
	}
	if sel.SceneID != "scene-1" {
		t.Fatalf("unexpected scene id %q", sel.SceneID)
	}
	if sel.ProductID != "prod-7" {
		t.Fatalf("unexpected product id %q", sel.ProductID)
	}
	if sel.PlacementHint != "on the café table beside the cup" {
		t.Fatalf("unexpected placement %q", sel.PlacementHint)
	}
	if sel.MatchScore != 8 {
		t.Fatalf("unexpected match score %d", sel.MatchScore)
	}
}

func TestParseSelectionNoneSentinel(t *testing.T) {
	text := `<product_id>NONE</product_id>
<placement>none</placement>
<rationale>No product suits this scene.</rationale>`

	sel, err := tagparse.ParseSelection(text, "scene-4")
	if err != nil {
		t.Fatalf("ParseSelection failed: %v", err)
	}
	if !sel.None() {
		t.Fatalf("expected NONE selection, got product id %q", sel.ProductID)
	}
}

func TestParseSelectionMissingField(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"missing product_id", "<placement>table</placement><rationale>fits</rationale>"},
		{"missing placement", "<product_id>p1</product_id><rationale>fits</rationale>"},
		{"missing rationale", "<product_id>p1</product_id><placement>table</placement>"},
		{"empty product_id", "<product_id>  </product_id><placement>table</placement><rationale>fits</rationale>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tagparse.ParseSelection(tc.text, "scene-1")
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, services.ErrParse) {
				t.Fatalf("expected ErrParse, got %v", err)
			}
		})
	}
}

func TestParseSelectionMatchScoreDefaults(t *testing.T) {
	base := "<product_id>p1</product_id><placement>shelf</placement><rationale>works</rationale>"

	cases := []struct {
		name  string
		extra string
		want  int
	}{
		{"absent", "", 5},
		{"unparseable", "<match_score>very high</match_score>", 5},
		{"clamped low", "<match_score>0</match_score>", 1},
		{"clamped high", "<match_score>42</match_score>", 10},
		{"in range", "<match_score>3</match_score>", 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sel, err := tagparse.ParseSelection(base+tc.extra, "scene-1")
			if err != nil {
				t.Fatalf("ParseSelection failed: %v", err)
			}
			if sel.MatchScore != tc.want {
				t.Fatalf("expected match score %d, got %d", tc.want, sel.MatchScore)
			}
		})
	}
}

func TestParseSelectionFirstMatchWins(t *testing.T) {
	text := `<product_id>first</product_id>
<placement>desk</placement>
<rationale>first pick</rationale>
<product_id>second</product_id>`

	sel, err := tagparse.ParseSelection(text, "scene-1")
	if err != nil {
		t.Fatalf("ParseSelection failed: %v", err)
	}
	if sel.ProductID != "first" {
		t.Fatalf("expected first occurrence, got %q", sel.ProductID)
	}
}
