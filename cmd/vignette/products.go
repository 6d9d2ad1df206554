package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"vignette/internal/catalog"
	"vignette/internal/placement"
)

func newProductsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Manage the product catalog",
	}
	cmd.AddCommand(newProductsListCommand(ctx))
	cmd.AddCommand(newProductsImportCommand(ctx))
	return cmd
}

func (c *commandContext) openCatalog() (*catalog.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return catalog.Open(cfg.Paths.CatalogDBPath)
}

func newProductsListCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			products, err := store.ListProducts(cmd.Context())
			if err != nil {
				return err
			}
			if len(products) == 0 {
				printf(cmd, "catalog is empty\n")
				return nil
			}

			if !isTerminal(cmd.OutOrStdout()) {
				for _, product := range products {
					printf(cmd, "%s\t%s\n", product.ID, catalog.DisplayName(product))
				}
				return nil
			}

			tbl := newTable(col("ID"), col("Product"), col("Description"), col("Image"))
			for _, product := range products {
				hasImage := ""
				if product.ImageURL != "" {
					hasImage = "yes"
				}
				tbl.addRow(
					product.ID,
					catalog.DisplayName(product),
					truncate(product.Description, 48),
					hasImage,
				)
			}
			printf(cmd, "%s\n", tbl.render())
			return nil
		},
	}
	return cmd
}

func newProductsImportCommand(ctx *commandContext) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import catalog entries from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read products file: %w", err)
			}
			var payload struct {
				Products []placement.Product `json:"products"`
			}
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("parse products file: %w", err)
			}
			if len(payload.Products) == 0 {
				return fmt.Errorf("no products found in %s", args[0])
			}

			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			if replace {
				if err := store.ReplaceProducts(cmd.Context(), payload.Products); err != nil {
					return err
				}
			} else {
				for _, product := range payload.Products {
					if err := store.UpsertProduct(cmd.Context(), product); err != nil {
						return err
					}
				}
			}
			printf(cmd, "imported %d product(s)\n", len(payload.Products))
			return nil
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Replace the whole catalog instead of merging")
	return cmd
}

// truncate shortens value to limit characters, counting runes so a
// multibyte character is never cut in half.
func truncate(value string, limit int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-3]) + "..."
}
