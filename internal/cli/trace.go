package cli

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/cauldron/internal/brew"
	"github.com/roach88/cauldron/internal/engine"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Station  string // optional - all stations when empty
	Kind     string // optional - filter to one event kind
}

// TraceEntry is one journaled event in the trace timeline.
type TraceEntry struct {
	Seq     int64           `json:"seq"`
	Kind    string          `json:"kind"`
	Station string          `json:"station"`
	At      int64           `json:"at"`
	Event   json.RawMessage `json:"event"`
	Result  json.RawMessage `json:"result"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Station  string       `json:"station,omitempty"`
	Timeline []TraceEntry `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Events int            `json:"events"`
	Failed int            `json:"failed"`
	ByKind map[string]int `json:"by_kind"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journaled history of a station",
		Long: `List journaled events and their recorded outcomes in processing order.

With --station only events addressed to that position are shown; the
heat source below a cauldron is a different position, so placing or
breaking it appears under its own coordinates.

Examples:
  cauldron trace --db ./world.db
  cauldron trace --db ./world.db --station overworld:0,64,0
  cauldron trace --db ./world.db --station overworld:0,64,0 --kind add --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Station, "station", "", "station position as world:x,y,z")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one event kind")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var station string
	if opts.Station != "" {
		pos, err := brew.ParsePosition(opts.Station)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --station", err)
		}
		station = pos.String()
	}
	if opts.Kind != "" && !engine.Kind(opts.Kind).Valid() {
		return NewExitError(ExitCommandError, "unknown event kind: "+opts.Kind)
	}

	st, err := openExisting(opts.database(opts.Database))
	if err != nil {
		return err
	}
	defer st.Close()

	var entries []engine.Entry
	if station != "" {
		entries, err = st.EntriesFor(ctx, station)
	} else {
		entries, err = st.Entries(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result := buildTrace(station, entries, engine.Kind(opts.Kind))
	out := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return out.JSON(true, result)
	}

	if len(result.Timeline) == 0 {
		out.Printf("No journaled events.\n")
		return nil
	}
	for _, e := range result.Timeline {
		at := time.UnixMilli(e.At).UTC().Format(time.RFC3339)
		out.Printf("#%d %s %s %s\n", e.Seq, at, e.Kind, e.Station)
		out.Printf("  %s\n", e.Result)
	}
	out.Printf("\n%d events, %d failed\n", result.Stats.Events, result.Stats.Failed)
	return nil
}

// buildTrace assembles the timeline of entries, keeping only those of kind
// when kind is set.
func buildTrace(station string, entries []engine.Entry, kind engine.Kind) TraceResult {
	result := TraceResult{
		Station:  station,
		Timeline: make([]TraceEntry, 0, len(entries)),
		Stats:    TraceStats{ByKind: map[string]int{}},
	}
	for _, e := range entries {
		if kind != "" && e.Kind != kind {
			continue
		}
		result.Timeline = append(result.Timeline, TraceEntry{
			Seq:     e.Seq,
			Kind:    string(e.Kind),
			Station: e.Station,
			At:      e.At,
			Event:   json.RawMessage(e.Event),
			Result:  json.RawMessage(e.Result),
		})
		result.Stats.Events++
		result.Stats.ByKind[string(e.Kind)]++
		if failed(e.Result) {
			result.Stats.Failed++
		}
	}
	return result
}

// failed reports whether a recorded result carries an error.
func failed(result []byte) bool {
	var r struct {
		Error string `json:"error"`
	}
	return json.Unmarshal(result, &r) == nil && r.Error != ""
}
