package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"vignette/internal/catalog"
	"vignette/internal/genstore"
	"vignette/internal/logging"
	"vignette/internal/media"
	"vignette/internal/pipeline"
	"vignette/internal/services/genai"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var inputPath string
	var outputDir string
	var noAudit bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full placement pipeline from a JSON request file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("read request file: %w", err)
			}
			var request pipeline.Request
			if err := json.Unmarshal(data, &request); err != nil {
				return fmt.Errorf("parse request file: %w", err)
			}
			if request.SceneCount == 0 {
				request.SceneCount = cfg.Pipeline.DefaultSceneCount
			}
			if request.ContinuationRatio == 0 {
				request.ContinuationRatio = cfg.Pipeline.ContinuationRatio
			}

			// An empty product list falls back to the stored catalog.
			if len(request.Products) == 0 {
				store, err := catalog.Open(cfg.Paths.CatalogDBPath)
				if err != nil {
					return err
				}
				products, err := store.ListProducts(cmd.Context())
				closeErr := store.Close()
				if err != nil {
					return err
				}
				if closeErr != nil {
					return closeErr
				}
				request.Products = products
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

			opts := []pipeline.Option{
				pipeline.WithLogger(logging.NewComponentLogger(logger, "pipeline")),
				pipeline.WithMaxConcurrency(cfg.Pipeline.MaxConcurrency),
				pipeline.WithFetcher(media.NewFetcher(
					media.WithUserAgent(cfg.ImageSearch.UserAgent),
					media.WithTimeout(time.Duration(cfg.Media.TimeoutSeconds)*time.Second),
					media.WithMaxBytes(cfg.Media.MaxBytes),
				)),
			}
			if !noAudit {
				if err := cfg.EnsureDirectories(); err != nil {
					return err
				}
				store, err := genstore.NewStore(cfg.Paths.GenerationsDir, logging.NewComponentLogger(logger, "genstore"))
				if err != nil {
					return err
				}
				opts = append(opts, pipeline.WithRecorder(genstore.NewRecorder(store)))
			}

			result, err := pipeline.New(capability, opts...).Run(cmd.Context(), request)
			if err != nil {
				return err
			}

			if err := writeRunOutput(outputDir, result); err != nil {
				return err
			}

			printf(cmd, "%s\n", renderStats(result.Stats))
			printf(cmd, "wrote %d placement(s) to %s\n", len(result.Placements), outputDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to the JSON request file")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "placements", "Directory for pipeline outputs")
	cmd.Flags().BoolVar(&noAudit, "no-audit", false, "Disable generation audit recording")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// writeRunOutput persists each placement's images plus a summary file.
func writeRunOutput(dir string, result *pipeline.RunResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	type summaryEntry struct {
		SceneID       string `json:"scene_id"`
		Description   string `json:"scene_description"`
		Mood          string `json:"mood"`
		Kind          string `json:"scene_kind"`
		ProductID     string `json:"product_id"`
		ProductName   string `json:"product_name"`
		PlacementHint string `json:"placement_hint"`
		Rationale     string `json:"rationale"`
	}

	summary := struct {
		Placements []summaryEntry `json:"placements"`
		Stats      pipeline.Stats `json:"stats"`
	}{Stats: result.Stats}

	for _, p := range result.Placements {
		ext := media.ExtensionForMime(p.MimeType)
		files := map[string][]byte{
			fmt.Sprintf("%s_scene.%s", p.SceneID, ext):    p.SceneImage,
			fmt.Sprintf("%s_composed.%s", p.SceneID, ext): p.ComposedImage,
			fmt.Sprintf("%s_mask.%s", p.SceneID, ext):     p.Mask,
		}
		for name, data := range files {
			if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}
		}
		summary.Placements = append(summary.Placements, summaryEntry{
			SceneID:       p.SceneID,
			Description:   p.Description,
			Mood:          p.Mood,
			Kind:          string(p.Kind),
			ProductID:     p.Product.ID,
			ProductName:   p.Product.Name,
			PlacementHint: p.PlacementHint,
			Rationale:     p.Rationale,
		})
	}

	encoded, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "placements.json"), encoded, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

func renderStats(stats pipeline.Stats) string {
	tbl := newTable(col("Stage"), numCol("Count"), numCol("Elapsed"))
	tbl.addRow("scenes", fmt.Sprintf("%d", stats.Scenes.Count), fmt.Sprintf("%.3fs", stats.Scenes.Elapsed))
	tbl.addRow("images", fmt.Sprintf("%d", stats.Images.Count), fmt.Sprintf("%.3fs", stats.Images.Elapsed))
	tbl.addRow("selections", fmt.Sprintf("%d", stats.Selections.Count), fmt.Sprintf("%.3fs", stats.Selections.Elapsed))
	tbl.addRow("composition", fmt.Sprintf("%d", stats.Composition.Count), fmt.Sprintf("%.3fs", stats.Composition.Elapsed))
	tbl.addRow("masks", fmt.Sprintf("%d", stats.Masks.Count), fmt.Sprintf("%.3fs", stats.Masks.Elapsed))
	tbl.addRow("total", fmt.Sprintf("%d", stats.PlacementsGenerated), fmt.Sprintf("%.3fs", stats.TotalElapsed))
	return tbl.render()
}
