package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CatalogOptions holds flags for the catalog command.
type CatalogOptions struct {
	*RootOptions
	Catalog string
}

// CatalogEntry is one addable ingredient.
type CatalogEntry struct {
	Key            string   `json:"key"`
	Description    string   `json:"description"`
	Color          string   `json:"color,omitempty"`
	MaxTemperature *float64 `json:"max_temperature,omitempty"`
}

// CatalogResult holds the catalog listing.
type CatalogResult struct {
	Source      string         `json:"source"`
	Ingredients []CatalogEntry `json:"ingredients"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate and list the ingredient table",
		Long: `Load the ingredient table, check it against the table rules and list
every addable ingredient with its description, dye colour and heat limit.

Exit codes:
  0 - Table is valid
  2 - Table could not be loaded or breaks a rule

Examples:
  cauldron catalog
  cauldron catalog --catalog ./ingredients.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "CUE ingredient table (default built-in)")

	return cmd
}

func runCatalog(opts *CatalogOptions, cmd *cobra.Command) error {
	path := opts.catalogPath(opts.Catalog)
	cat, err := loadCatalog(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load catalog", err)
	}

	result := CatalogResult{Source: path, Ingredients: make([]CatalogEntry, 0, cat.Len())}
	if path == "" {
		result.Source = "built-in"
	}
	for _, key := range cat.Keys() {
		p, _ := cat.Lookup(key)
		result.Ingredients = append(result.Ingredients, CatalogEntry{
			Key:            key.String(),
			Description:    p.Description,
			Color:          string(p.Color),
			MaxTemperature: p.MaxTemperature,
		})
	}

	out := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return out.JSON(true, result)
	}
	for _, e := range result.Ingredients {
		out.Printf("%-24s %-12s %s%s\n", e.Key, e.Description, e.Color, limitNote(e.MaxTemperature))
	}
	out.Printf("\n%d ingredients from %s\n", len(result.Ingredients), result.Source)
	return nil
}

func limitNote(limit *float64) string {
	if limit == nil {
		return ""
	}
	return fmt.Sprintf(" (perishes above %.1f)", *limit)
}
