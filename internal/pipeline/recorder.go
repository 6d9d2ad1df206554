package pipeline

import "context"

// RecordedMedia is one binary artifact attached to an audit record.
type RecordedMedia struct {
	Data     []byte
	MimeType string
}

// Recorder receives an audit event for every capability call the
// pipeline makes. Recording is best-effort: a Recorder error is logged
// as a warning and never fails the stage that produced it.
type Recorder interface {
	Record(ctx context.Context, endpoint, prompt, responseText string, media []RecordedMedia, metadata map[string]any) error
}

// NopRecorder discards every audit event.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, string, string, string, []RecordedMedia, map[string]any) error {
	return nil
}
