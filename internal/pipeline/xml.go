package pipeline

import (
	"fmt"
	"strings"

	"vignette/internal/placement"
)

// BuildProductsXML serializes the catalog into the compact listing the
// selection prompt embeds.
func BuildProductsXML(products []placement.Product) string {
	blocks := make([]string, 0, len(products))
	for _, product := range products {
		description := product.Description
		if strings.TrimSpace(description) == "" {
			description = "Luxury product"
		}
		blocks = append(blocks, fmt.Sprintf(
			"<product id=%q brand=%q>\n  <name>%s</name>\n  <description>%s</description>\n</product>",
			product.ID, product.Brand, product.Name, description))
	}
	return strings.Join(blocks, "\n")
}

// buildLikedScenesSection renders preference history for the scenes
// prompt. An empty history tells the model to generate pure exploration.
func buildLikedScenesSection(liked []placement.LikedScene) string {
	if len(liked) == 0 {
		return "<liked_scenes>\n(No liked scenes yet - generate all as exploration)\n</liked_scenes>"
	}
	var builder strings.Builder
	builder.WriteString("<liked_scenes>\n")
	for _, scene := range liked {
		fmt.Fprintf(&builder, "  <scene mood=%q>\n", scene.Mood)
		fmt.Fprintf(&builder, "    <description>%s</description>\n", scene.Description)
		if scene.ProductName != "" {
			fmt.Fprintf(&builder, "    <product>%s</product>\n", scene.ProductName)
		}
		builder.WriteString("  </scene>\n")
	}
	builder.WriteString("</liked_scenes>")
	return builder.String()
}
