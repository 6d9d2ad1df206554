package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vignette/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand(ctx))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			printf(cmd, "wrote sample config to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			source := "defaults"
			if ctx.fromFile {
				source = ctx.configPath
			}
			printf(cmd, "source: %s\n\n", source)

			tbl := newTable(col("Setting"), col("Value"))
			tbl.addRow("paths.generations_dir", cfg.Paths.GenerationsDir)
			tbl.addRow("paths.catalog_db_path", cfg.Paths.CatalogDBPath)
			tbl.addRow("paths.log_dir", cfg.Paths.LogDir)
			tbl.addRow("paths.api_bind", cfg.Paths.APIBind)
			tbl.addRow("genai.base_url", cfg.GenAI.BaseURL)
			tbl.addRow("genai.text_model", cfg.GenAI.TextModel)
			tbl.addRow("genai.image_model", cfg.GenAI.ImageModel)
			tbl.addRow("genai.api_key", maskSecret(cfg.GenAI.APIKey))
			tbl.addRow("image_search.base_url", cfg.ImageSearch.BaseURL)
			tbl.addRow("pipeline.default_scene_count", fmt.Sprintf("%d", cfg.Pipeline.DefaultSceneCount))
			tbl.addRow("pipeline.continuation_ratio", fmt.Sprintf("%g", cfg.Pipeline.ContinuationRatio))
			tbl.addRow("pipeline.max_concurrency", fmt.Sprintf("%d", cfg.Pipeline.MaxConcurrency))
			tbl.addRow("logging.format", cfg.Logging.Format)
			tbl.addRow("logging.level", cfg.Logging.Level)
			printf(cmd, "%s\n", tbl.render())
			return nil
		},
	}
	return cmd
}

func maskSecret(value string) string {
	if value == "" {
		return "(unset)"
	}
	if len(value) <= 8 {
		return "********"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
