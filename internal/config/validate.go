package config

import (
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateGenAI(); err != nil {
		return err
	}
	if err := c.validateImageSearch(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.GenerationsDir) == "" {
		return fmt.Errorf("paths.generations_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.CatalogDBPath) == "" {
		return fmt.Errorf("paths.catalog_db_path must not be empty")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		return fmt.Errorf("paths.api_bind must not be empty")
	}
	return nil
}

func (c *Config) validateGenAI() error {
	if strings.TrimSpace(c.GenAI.BaseURL) == "" {
		return fmt.Errorf("genai.base_url must not be empty")
	}
	if strings.TrimSpace(c.GenAI.TextModel) == "" {
		return fmt.Errorf("genai.text_model must not be empty")
	}
	if strings.TrimSpace(c.GenAI.ImageModel) == "" {
		return fmt.Errorf("genai.image_model must not be empty")
	}
	if c.GenAI.TimeoutSeconds <= 0 {
		return fmt.Errorf("genai.timeout_seconds must be positive, got %d", c.GenAI.TimeoutSeconds)
	}
	return nil
}

func (c *Config) validateImageSearch() error {
	if strings.TrimSpace(c.ImageSearch.BaseURL) == "" {
		return fmt.Errorf("image_search.base_url must not be empty")
	}
	if c.ImageSearch.MaxResults <= 0 {
		return fmt.Errorf("image_search.max_results must be positive, got %d", c.ImageSearch.MaxResults)
	}
	if c.ImageSearch.TimeoutSeconds <= 0 {
		return fmt.Errorf("image_search.timeout_seconds must be positive, got %d", c.ImageSearch.TimeoutSeconds)
	}
	return nil
}

func (c *Config) validateMedia() error {
	if c.Media.TimeoutSeconds <= 0 {
		return fmt.Errorf("media.timeout_seconds must be positive, got %d", c.Media.TimeoutSeconds)
	}
	if c.Media.MaxBytes <= 0 {
		return fmt.Errorf("media.max_bytes must be positive, got %d", c.Media.MaxBytes)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.DefaultSceneCount < 1 || c.Pipeline.DefaultSceneCount > 10 {
		return fmt.Errorf("pipeline.default_scene_count must be between 1 and 10, got %d", c.Pipeline.DefaultSceneCount)
	}
	if c.Pipeline.ContinuationRatio < 0 || c.Pipeline.ContinuationRatio > 1 {
		return fmt.Errorf("pipeline.continuation_ratio must be between 0 and 1, got %g", c.Pipeline.ContinuationRatio)
	}
	if c.Pipeline.MaxConcurrency < 1 {
		return fmt.Errorf("pipeline.max_concurrency must be at least 1, got %d", c.Pipeline.MaxConcurrency)
	}
	if c.Pipeline.LikedSceneLimit < 0 {
		return fmt.Errorf("pipeline.liked_scene_limit must not be negative, got %d", c.Pipeline.LikedSceneLimit)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
