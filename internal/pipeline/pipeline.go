package pipeline

import (
	"context"
	"log/slog"

	"vignette/internal/logging"
	"vignette/internal/media"
	"vignette/internal/services/genai"
)

// Stage names used in errors, logs, and stats.
const (
	StageScenes      = "scenes"
	StageImages      = "images"
	StageSelection   = "selection"
	StageComposition = "composition"
	StageMasks       = "masks"
)

// Audit endpoint tags, one per capability call site.
const (
	endpointScenes  = "/api/placement/scenes"
	endpointImages  = "/api/placement/generate-images"
	endpointSelect  = "/api/placement/select-products"
	endpointCompose = "/api/placement/compose-batch"
	endpointMasks   = "/api/placement/generate-masks"
)

// Capability is the generative service every stage calls.
type Capability interface {
	GenerateText(ctx context.Context, prompt string) (genai.Result, error)
	GenerateImage(ctx context.Context, prompt string) (genai.Result, error)
	EditImage(ctx context.Context, prompt string, inputs []genai.Media) (genai.Result, error)
}

// Fetcher resolves product reference image URLs before composition.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (media.Image, error)
}

const defaultMaxConcurrency = 4

// Pipeline owns the five stage functions and the orchestrator.
type Pipeline struct {
	capability     Capability
	fetcher        Fetcher
	recorder       Recorder
	logger         *slog.Logger
	maxConcurrency int
}

// Option customizes pipeline construction.
type Option func(*Pipeline)

// WithFetcher supplies the reference-image fetcher used by composition.
// Without one, composition always uses the plain template.
func WithFetcher(fetcher Fetcher) Option {
	return func(p *Pipeline) {
		p.fetcher = fetcher
	}
}

// WithRecorder supplies the audit recorder invoked after every
// capability call.
func WithRecorder(recorder Recorder) Option {
	return func(p *Pipeline) {
		if recorder != nil {
			p.recorder = recorder
		}
	}
}

// WithLogger supplies the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMaxConcurrency bounds per-stage fan-out width.
func WithMaxConcurrency(limit int) Option {
	return func(p *Pipeline) {
		if limit > 0 {
			p.maxConcurrency = limit
		}
	}
}

// New constructs a pipeline around the supplied capability.
func New(capability Capability, opts ...Option) *Pipeline {
	p := &Pipeline{
		capability:     capability,
		recorder:       NopRecorder{},
		logger:         logging.NewNop(),
		maxConcurrency: defaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// record forwards an audit event, downgrading recorder failures to
// warnings. Audit persistence is never allowed to fail a stage.
func (p *Pipeline) record(ctx context.Context, endpoint, prompt, responseText string, items []RecordedMedia, metadata map[string]any) {
	if err := p.recorder.Record(ctx, endpoint, prompt, responseText, items, metadata); err != nil {
		logging.WithContext(ctx, p.logger).Warn("audit record failed",
			logging.String("endpoint", endpoint),
			logging.Error(err))
	}
}
