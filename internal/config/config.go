package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	GenerationsDir string `toml:"generations_dir"`
	CatalogDBPath  string `toml:"catalog_db_path"`
	LogDir         string `toml:"log_dir"`
	APIBind        string `toml:"api_bind"`
}

// GenAI contains connection settings for the generative model API.
type GenAI struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TextModel      string `toml:"text_model"`
	ImageModel     string `toml:"image_model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ImageSearch contains configuration for the Wikimedia Commons image search.
type ImageSearch struct {
	BaseURL        string `toml:"base_url"`
	UserAgent      string `toml:"user_agent"`
	MaxResults     int    `toml:"max_results"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Media contains configuration for remote media retrieval.
type Media struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
	MaxBytes       int `toml:"max_bytes"`
}

// Pipeline contains configuration for placement run behavior.
type Pipeline struct {
	DefaultSceneCount int     `toml:"default_scene_count"`
	ContinuationRatio float64 `toml:"continuation_ratio"`
	MaxConcurrency    int     `toml:"max_concurrency"`
	LikedSceneLimit   int     `toml:"liked_scene_limit"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Vignette.
//
// Configuration sections by subsystem:
//   - Paths: directories, catalog database, and API bind address
//   - GenAI: generative model API connection settings
//   - ImageSearch: Wikimedia Commons reference image lookup
//   - Media: remote media retrieval limits
//   - Pipeline: run sizing, continuation ratio, and concurrency
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	GenAI       GenAI       `toml:"genai"`
	ImageSearch ImageSearch `toml:"image_search"`
	Media       Media       `toml:"media"`
	Pipeline    Pipeline    `toml:"pipeline"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vignette/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/vignette/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vignette.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	expandedGenerations, err := expandPath(c.Paths.GenerationsDir)
	if err != nil {
		return err
	}
	c.Paths.GenerationsDir = expandedGenerations

	expandedCatalog, err := expandPath(c.Paths.CatalogDBPath)
	if err != nil {
		return err
	}
	c.Paths.CatalogDBPath = expandedCatalog

	expandedLog, err := expandPath(c.Paths.LogDir)
	if err != nil {
		return err
	}
	c.Paths.LogDir = expandedLog

	return nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.GenerationsDir, c.Paths.LogDir}
	if strings.TrimSpace(c.Paths.CatalogDBPath) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.CatalogDBPath))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// GenAIConfig contains trimmed generative model connection settings.
type GenAIConfig struct {
	APIKey         string
	BaseURL        string
	TextModel      string
	ImageModel     string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetGenAI returns the generative model connection settings.
func (c *Config) GetGenAI() GenAIConfig {
	return GenAIConfig{
		APIKey:         strings.TrimSpace(c.GenAI.APIKey),
		BaseURL:        strings.TrimSpace(c.GenAI.BaseURL),
		TextModel:      strings.TrimSpace(c.GenAI.TextModel),
		ImageModel:     strings.TrimSpace(c.GenAI.ImageModel),
		Referer:        strings.TrimSpace(c.GenAI.Referer),
		Title:          strings.TrimSpace(c.GenAI.Title),
		TimeoutSeconds: c.GenAI.TimeoutSeconds,
	}
}
