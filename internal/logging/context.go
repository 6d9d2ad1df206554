package logging

import (
	"context"
	"log/slog"

	"vignette/internal/services"
)

// ContextFields collects standardized attributes from values previously
// stamped into the context by the services package.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var attrs []slog.Attr
	if sceneID, ok := services.SceneIDFromContext(ctx); ok {
		attrs = append(attrs, slog.String(FieldSceneID, sceneID))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		attrs = append(attrs, slog.String(FieldStage, stage))
	}
	if requestID, ok := services.RequestIDFromContext(ctx); ok {
		attrs = append(attrs, slog.String(FieldRequestID, requestID))
	}
	return attrs
}

// WithContext returns a logger enriched with attributes derived from ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	attrs := ContextFields(ctx)
	if len(attrs) == 0 {
		return logger
	}
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return logger.With(args...)
}
