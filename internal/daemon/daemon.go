// Package daemon owns the long-running process: single-instance
// locking, store lifecycles, and the HTTP server.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"vignette/internal/api"
	"vignette/internal/catalog"
	"vignette/internal/config"
	"vignette/internal/genstore"
	"vignette/internal/logging"
	"vignette/internal/media"
	"vignette/internal/pipeline"
	"vignette/internal/services/genai"
	"vignette/internal/services/imagesearch"
)

// Daemon coordinates the HTTP service and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	catalog *catalog.Store
	store   *genstore.Store
	server  *http.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
}

// New constructs a daemon and its dependency graph from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	store, err := genstore.NewStore(cfg.Paths.GenerationsDir, logging.NewComponentLogger(logger, "genstore"))
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Open(cfg.Paths.CatalogDBPath)
	if err != nil {
		return nil, err
	}

	genaiCfg := cfg.GetGenAI()
	capability := genai.NewClient(genai.Config{
		APIKey:         genaiCfg.APIKey,
		BaseURL:        genaiCfg.BaseURL,
		TextModel:      genaiCfg.TextModel,
		ImageModel:     genaiCfg.ImageModel,
		Referer:        genaiCfg.Referer,
		Title:          genaiCfg.Title,
		TimeoutSeconds: genaiCfg.TimeoutSeconds,
	})

	fetcher := media.NewFetcher(
		media.WithUserAgent(cfg.ImageSearch.UserAgent),
		media.WithTimeout(time.Duration(cfg.Media.TimeoutSeconds)*time.Second),
		media.WithMaxBytes(cfg.Media.MaxBytes),
	)

	pipe := pipeline.New(capability,
		pipeline.WithFetcher(fetcher),
		pipeline.WithRecorder(genstore.NewRecorder(store)),
		pipeline.WithLogger(logging.NewComponentLogger(logger, "pipeline")),
		pipeline.WithMaxConcurrency(cfg.Pipeline.MaxConcurrency),
	)

	search := imagesearch.NewClient(imagesearch.Config{
		BaseURL:        cfg.ImageSearch.BaseURL,
		UserAgent:      cfg.ImageSearch.UserAgent,
		TimeoutSeconds: cfg.ImageSearch.TimeoutSeconds,
	})

	server := api.NewServer(pipe, cat, store, search, logging.NewComponentLogger(logger, "api"))
	lockPath := filepath.Join(cfg.Paths.LogDir, "vignetted.lock")

	return &Daemon{
		cfg:     cfg,
		logger:  logger,
		catalog: cat,
		store:   store,
		server: &http.Server{
			Addr:              cfg.Paths.APIBind,
			Handler:           server.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Run acquires the daemon lock and serves HTTP until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another vignette daemon instance is already running")
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()

	d.running.Store(true)
	defer d.running.Store(false)

	errCh := make(chan error, 1)
	go func() {
		d.logger.Info("vignette daemon started",
			logging.String("bind", d.server.Addr),
			logging.String("lock", d.lockPath))
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			d.logger.Warn("http shutdown failed", logging.Error(err))
		}
		<-errCh
		d.logger.Info("vignette daemon stopped")
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	return d.catalog.Close()
}
