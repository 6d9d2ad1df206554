package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vignette/internal/genstore"
	"vignette/internal/logging"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the generation audit trail",
	}
	cmd.AddCommand(newAuditListCommand(ctx))
	cmd.AddCommand(newAuditShowCommand(ctx))
	return cmd
}

func (c *commandContext) openStore() (*genstore.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return genstore.NewStore(cfg.Paths.GenerationsDir, logging.NewNop())
}

func newAuditListCommand(ctx *commandContext) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List generation records for a day (default today)",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			if date == "" {
				date = time.Now().Format("2006-01-02")
			}
			entries, err := store.ListDay(date)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				printf(cmd, "no generations recorded on %s\n", date)
				return nil
			}

			tbl := newTable(col("ID"), col("Time"), col("Endpoint"), numCol("Media"))
			for _, entry := range entries {
				tbl.addRow(
					entry.ID,
					entry.Timestamp.Format("15:04:05"),
					entry.Endpoint,
					fmt.Sprintf("%d", len(entry.Media)),
				)
			}
			printf(cmd, "%s\n", tbl.render())
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to list (YYYY-MM-DD)")
	return cmd
}

func newAuditShowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <date> <id>",
		Short: "Show one generation record as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			entry, err := store.Get(args[0], args[1])
			if err != nil {
				return err
			}
			encoded, err := json.MarshalIndent(entry, "", "  ")
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", encoded)
			return nil
		},
	}
	return cmd
}
