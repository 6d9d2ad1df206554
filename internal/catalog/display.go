package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vignette/internal/placement"
)

var titleCaser = cases.Title(language.English)

// DisplayName builds a human-facing "Brand Name" label for a product,
// title-casing components that arrive lowercased from catalog feeds.
func DisplayName(product placement.Product) string {
	brand := strings.TrimSpace(product.Brand)
	name := strings.TrimSpace(product.Name)
	if brand != "" && brand == strings.ToLower(brand) {
		brand = titleCaser.String(brand)
	}
	if name != "" && name == strings.ToLower(name) {
		name = titleCaser.String(name)
	}
	switch {
	case brand == "":
		return name
	case name == "":
		return brand
	default:
		return brand + " " + name
	}
}
