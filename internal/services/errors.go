package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks request input rejected before any stage ran.
	ErrValidation = errors.New("validation error")
	// ErrCapability marks a failed call to an external generative or media service.
	ErrCapability = errors.New("capability error")
	// ErrParse marks model output that lacked the expected structured fields.
	ErrParse = errors.New("parse error")
	// ErrFatalStage marks a stage that produced zero usable outputs.
	ErrFatalStage = errors.New("stage produced no output")
	// ErrConfiguration marks unusable runtime configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a missing record or resource.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrCapability
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
