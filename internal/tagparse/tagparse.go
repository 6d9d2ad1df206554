// Package tagparse extracts typed records from the tag-delimited free
// text the generative capability returns. Model output is never trusted
// to be well-formed: blocks may be wrapped in prose, repeated, or
// partially broken, so parsing is regex-based and tolerant. Malformed
// scene blocks are dropped; a selection missing any required field is
// rejected whole.
package tagparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"vignette/internal/placement"
	"vignette/internal/services"
)

var (
	scenePattern = regexp.MustCompile(
		`(?s)<scene id="(\d+)"(?: type="(continuation|exploration)")?\s*>\s*<description>(.*?)</description>\s*<mood>(.*?)</mood>\s*</scene>`)

	productIDPattern  = regexp.MustCompile(`(?s)<product_id>(.*?)</product_id>`)
	placementPattern  = regexp.MustCompile(`(?s)<placement>(.*?)</placement>`)
	rationalePattern  = regexp.MustCompile(`(?s)<rationale>(.*?)</rationale>`)
	matchScorePattern = regexp.MustCompile(`(?s)<match_score>(.*?)</match_score>`)
)

const defaultMatchScore = 5

// ParseScenes extracts every well-formed scene block from text. Scene
// ids are normalized to "scene-N"; a missing type attribute means
// exploration. Zero valid blocks is a parse failure.
func ParseScenes(text string) ([]placement.Scene, error) {
	matches := scenePattern.FindAllStringSubmatch(text, -1)
	scenes := make([]placement.Scene, 0, len(matches))
	for _, match := range matches {
		kind := placement.KindExploration
		if match[2] == string(placement.KindContinuation) {
			kind = placement.KindContinuation
		}
		scenes = append(scenes, placement.Scene{
			ID:          "scene-" + match[1],
			Description: strings.TrimSpace(match[3]),
			Mood:        strings.TrimSpace(match[4]),
			Kind:        kind,
		})
	}
	if len(scenes) == 0 {
		return nil, services.Wrap(services.ErrParse, "scenes", "parse", "no scene blocks found in response", nil)
	}
	return scenes, nil
}

// ParseSelection extracts a product selection for sceneID from text.
// product_id, placement, and rationale are all required; if any is
// absent the whole selection is rejected. match_score is optional and
// clamped to 1 through 10.
func ParseSelection(text, sceneID string) (placement.ProductSelection, error) {
	productID, ok := firstMatch(productIDPattern, text)
	if !ok {
		return placement.ProductSelection{}, selectionParseError(sceneID, "product_id")
	}
	placementHint, ok := firstMatch(placementPattern, text)
	if !ok {
		return placement.ProductSelection{}, selectionParseError(sceneID, "placement")
	}
	rationale, ok := firstMatch(rationalePattern, text)
	if !ok {
		return placement.ProductSelection{}, selectionParseError(sceneID, "rationale")
	}

	score := defaultMatchScore
	if raw, ok := firstMatch(matchScorePattern, text); ok {
		if parsed, err := strconv.Atoi(raw); err == nil {
			score = clampScore(parsed)
		}
	}

	return placement.ProductSelection{
		SceneID:       sceneID,
		ProductID:     productID,
		PlacementHint: placementHint,
		Rationale:     rationale,
		MatchScore:    score,
	}, nil
}

func firstMatch(pattern *regexp.Regexp, text string) (string, bool) {
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	value := strings.TrimSpace(match[1])
	if value == "" {
		return "", false
	}
	return value, true
}

func selectionParseError(sceneID, field string) error {
	return services.Wrap(services.ErrParse, "selection", "parse",
		fmt.Sprintf("selection response for %s missing <%s>", sceneID, field), nil)
}

func clampScore(score int) int {
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}
