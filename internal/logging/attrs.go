package logging

import (
	"context"
	"log/slog"
	"time"
)

// Standardized attribute keys shared across the codebase.
const (
	FieldComponent    = "component"
	FieldStage        = "stage"
	FieldSceneID      = "scene_id"
	FieldRequestID    = "request_id"
	FieldGenerationID = "generation_id"
	FieldProductID    = "product_id"
	FieldDuration     = "duration"
	FieldCount        = "count"
)

func String(key, value string) slog.Attr  { return slog.String(key, value) }
func Int(key string, value int) slog.Attr { return slog.Int(key, value) }
func Error(err error) slog.Attr           { return slog.Any("error", err) }

func Duration(key string, value time.Duration) slog.Attr {
	return slog.Duration(key, value)
}

// NewNop returns a logger whose output is discarded.
func NewNop() *slog.Logger {
	return slog.New(noopHandler{})
}

type noopHandler struct{}

func (noopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (noopHandler) Handle(context.Context, slog.Record) error { return nil }
func (noopHandler) WithAttrs([]slog.Attr) slog.Handler        { return noopHandler{} }
func (noopHandler) WithGroup(string) slog.Handler             { return noopHandler{} }

// NewComponentLogger tags every record emitted through the returned logger
// with the given component name.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}
