package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cauldron/internal/engine"
	"github.com/roach88/cauldron/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Catalog  string
}

// ReplayMismatch describes one journal entry whose outcome was not
// reproduced.
type ReplayMismatch struct {
	Seq     int64  `json:"seq"`
	Kind    string `json:"kind"`
	Station string `json:"station"`
	Message string `json:"message"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Events        int              `json:"events"`
	Mismatches    []ReplayMismatch `json:"mismatches"`
	Deterministic bool             `json:"deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the journal and verify determinism",
		Long: `Re-process every journaled event, in order, against a fresh in-memory
world and compare each outcome with the recorded one.

Events carry their own time, so a journal written by "cauldron run" must
replay to byte-identical results.

Exit codes:
  0 - Every outcome reproduced
  1 - One or more outcomes differ
  2 - Command error (database not found, etc.)

Examples:
  cauldron replay --db ./world.db
  cauldron replay --db ./world.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "CUE ingredient table the journal was written with (default built-in)")

	return cmd
}

// openExisting opens the database at path, refusing to create a new one.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cat, err := loadCatalog(opts.catalogPath(opts.Catalog))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load catalog", err)
	}

	st, err := openExisting(opts.database(opts.Database))
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.Entries(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	sb := engine.NewSandbox(cat, engine.WithLogger(opts.logger("replay")))
	report, err := engine.Replay(ctx, sb.Engine, entries)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	result := ReplayResult{
		Events:        report.Events,
		Mismatches:    make([]ReplayMismatch, 0, len(report.Mismatches)),
		Deterministic: report.OK(),
	}
	for _, m := range report.Mismatches {
		result.Mismatches = append(result.Mismatches, ReplayMismatch{
			Seq:     m.Seq,
			Kind:    string(m.Kind),
			Station: m.Station,
			Message: m.Message,
		})
	}

	out := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		if err := out.JSON(result.Deterministic, result); err != nil {
			return err
		}
	} else {
		outputReplayText(out, result, opts.Verbose > 0)
	}

	if !result.Deterministic {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d events did not replay", len(result.Mismatches), result.Events))
	}
	return nil
}

func outputReplayText(out *OutputFormatter, result ReplayResult, verbose bool) {
	if result.Events == 0 {
		out.Printf("Journal is empty.\n")
		return
	}
	for _, m := range result.Mismatches {
		out.Printf("✗ #%d %s %s\n", m.Seq, m.Kind, m.Station)
		if verbose {
			out.Printf("  %s\n", m.Message)
		}
	}
	if result.Deterministic {
		out.Printf("✓ %d events replayed, all outcomes reproduced\n", result.Events)
		return
	}
	out.Printf("%d events replayed, %d differ\n", result.Events, len(result.Mismatches))
}
