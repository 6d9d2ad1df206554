package genstore

import (
	"context"

	"vignette/internal/pipeline"
)

// PipelineRecorder adapts a Store to the pipeline's audit interface.
type PipelineRecorder struct {
	store *Store
}

// NewRecorder wraps store for use as a pipeline recorder.
func NewRecorder(store *Store) *PipelineRecorder {
	return &PipelineRecorder{store: store}
}

// Record persists one audit entry for a capability call.
func (r *PipelineRecorder) Record(_ context.Context, endpoint, prompt, responseText string, items []pipeline.RecordedMedia, metadata map[string]any) error {
	media := make([]MediaItem, 0, len(items))
	for _, item := range items {
		media = append(media, MediaItem{Data: item.Data, MimeType: item.MimeType})
	}
	_, err := r.store.Record(endpoint, prompt, responseText, media, metadata)
	return err
}
