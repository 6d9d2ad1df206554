// Package prompt ships the pipeline's prompt templates as embedded files
// and fills {placeholder} variables at call time. Unknown placeholders
// are left in place so a template typo shows up verbatim in the audit
// trail instead of vanishing silently.
package prompt

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed templates/*.md
var templates embed.FS

// Template names used by the pipeline stages.
const (
	Scenes               = "scenes"
	GenerateImage        = "generate_image"
	Select               = "select"
	Compose              = "compose"
	ComposeWithReference = "compose_with_reference"
	Masks                = "masks"
)

// Load returns the raw template text for name.
func Load(name string) (string, error) {
	data, err := templates.ReadFile("templates/" + name + ".md")
	if err != nil {
		return "", fmt.Errorf("load prompt template %q: %w", name, err)
	}
	return string(data), nil
}

// Render loads a template and substitutes every {key} placeholder that
// has a value in vars.
func Render(name string, vars map[string]string) (string, error) {
	template, err := Load(name)
	if err != nil {
		return "", err
	}
	for key, value := range vars {
		template = strings.ReplaceAll(template, "{"+key+"}", value)
	}
	return template, nil
}
