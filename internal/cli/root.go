// Package cli implements the cauldron command line.
package cli

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/cauldron/internal/catalog"
	"github.com/roach88/cauldron/internal/config"
	"github.com/roach88/cauldron/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    int
	Format     string // "json" | "text"

	// Config is resolved before any subcommand runs. Subcommands built
	// directly (in tests) see nil and fall back to config defaults.
	Config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the cauldron CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cauldron",
		Short: "cauldron - lazily evaluated brewing stations",
		Long: `Simulate cooking stations whose temperature is derived on demand
from the time of their last heat-source change.

World events (blocks placed and broken, fills, ingredients added, scoops and
transfers) are processed by a single-writer engine, persisted in SQLite and
journaled so every outcome can be traced and replayed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	cmd.PersistentFlags().CountVarP(&opts.Verbose, "verbose", "v", "verbose output (repeat for more)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewTempCommand(opts))

	return cmd
}

// resolve loads configuration, lets explicit flags override it and sets up
// logging.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	o.Config = cfg

	if !cmd.Flags().Changed("format") {
		o.Format = cfg.Output.Format
	}
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	verbosity := max(o.Verbose, cfg.Log.Verbosity)
	if cfg.Log.JSON {
		logging.SetupJSON(verbosity, cmd.ErrOrStderr())
	} else {
		logging.Setup(verbosity, cmd.ErrOrStderr())
	}
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// database returns the database path: the flag if set, else the configured
// one.
func (o *RootOptions) database(flag string) string {
	if flag != "" {
		return flag
	}
	if o.Config != nil {
		return o.Config.Database.Path
	}
	return "cauldron.db"
}

// catalogPath returns the catalog file: the flag if set, else the configured
// one. Empty means the built-in table.
func (o *RootOptions) catalogPath(flag string) string {
	if flag != "" || o.Config == nil {
		return flag
	}
	return o.Config.Catalog.Path
}

func (o *RootOptions) metricsAddr(flag string) string {
	if flag != "" || o.Config == nil {
		return flag
	}
	return o.Config.Metrics.Addr
}

// loadCatalog loads the catalog at path, or the built-in one.
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

// logger returns the component logger, or a no-op logger when logging has
// not been set up.
func (o *RootOptions) logger(component string) zerolog.Logger {
	if o.Config == nil {
		return zerolog.Nop()
	}
	return logging.For(component)
}
