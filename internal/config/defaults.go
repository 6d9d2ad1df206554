package config

const (
	defaultGenerationsDir       = "~/.local/share/vignette/generations"
	defaultCatalogDBPath        = "~/.local/share/vignette/catalog.db"
	defaultLogDir               = "~/.local/share/vignette/logs"
	defaultAPIBind              = "127.0.0.1:7519"
	defaultGenAIBaseURL         = "https://openrouter.ai/api/v1"
	defaultGenAITextModel       = "google/gemini-3-flash-preview"
	defaultGenAIImageModel      = "google/gemini-3-pro-image-preview"
	defaultGenAIReferer         = "https://github.com/vignette-app/vignette"
	defaultGenAITitle           = "Vignette Placement Pipeline"
	defaultGenAITimeoutSeconds  = 120
	defaultSearchBaseURL        = "https://commons.wikimedia.org/w/api.php"
	defaultSearchUserAgent      = "Vignette/dev"
	defaultSearchMaxResults     = 5
	defaultSearchTimeoutSeconds = 15
	defaultMediaTimeoutSeconds  = 30
	defaultMediaMaxBytes        = 25 << 20
	defaultSceneCount           = 4
	defaultContinuationRatio    = 0.5
	defaultMaxConcurrency       = 4
	defaultLikedSceneLimit      = 20
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			GenerationsDir: defaultGenerationsDir,
			CatalogDBPath:  defaultCatalogDBPath,
			LogDir:         defaultLogDir,
			APIBind:        defaultAPIBind,
		},
		GenAI: GenAI{
			BaseURL:        defaultGenAIBaseURL,
			TextModel:      defaultGenAITextModel,
			ImageModel:     defaultGenAIImageModel,
			Referer:        defaultGenAIReferer,
			Title:          defaultGenAITitle,
			TimeoutSeconds: defaultGenAITimeoutSeconds,
		},
		ImageSearch: ImageSearch{
			BaseURL:        defaultSearchBaseURL,
			UserAgent:      defaultSearchUserAgent,
			MaxResults:     defaultSearchMaxResults,
			TimeoutSeconds: defaultSearchTimeoutSeconds,
		},
		Media: Media{
			TimeoutSeconds: defaultMediaTimeoutSeconds,
			MaxBytes:       defaultMediaMaxBytes,
		},
		Pipeline: Pipeline{
			DefaultSceneCount: defaultSceneCount,
			ContinuationRatio: defaultContinuationRatio,
			MaxConcurrency:    defaultMaxConcurrency,
			LikedSceneLimit:   defaultLikedSceneLimit,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
