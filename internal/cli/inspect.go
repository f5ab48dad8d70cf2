package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/cauldron/internal/brew"
	"github.com/roach88/cauldron/internal/thermal"
	"github.com/roach88/cauldron/internal/world"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Database string
	At       string // RFC 3339; default now
	Station  string // optional - one station only

	// Now overrides the wall clock when At is empty (for testing).
	Now func() time.Time
}

// BrewView is the derived state of one brew at a point in time.
type BrewView struct {
	Handle      string   `json:"handle"`
	Station     string   `json:"station"`
	Heated      bool     `json:"heated"`
	Temperature float64  `json:"temperature"`
	Band        string   `json:"band"`
	Color       string   `json:"color"`
	Ingredients []string `json:"ingredients"`
}

// InspectResult holds the inspect output.
type InspectResult struct {
	At    string     `json:"at"`
	Brews []BrewView `json:"brews"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show every live brew and its derived temperature",
		Long: `List the brews stored in the world database.

Temperatures are derived at --at (default now) from each brew's last heat
transition; nothing is written back.

Examples:
  cauldron inspect --db ./world.db
  cauldron inspect --db ./world.db --at 2024-01-01T00:05:00Z
  cauldron inspect --db ./world.db --station overworld:0,64,0 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.At, "at", "", "instant to derive temperatures at (RFC 3339, default now)")
	cmd.Flags().StringVar(&opts.Station, "station", "", "station position as world:x,y,z")

	return cmd
}

func runInspect(opts *InspectOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	at, err := opts.instant()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --at", err)
	}

	var only *brew.Position
	if opts.Station != "" {
		pos, err := brew.ParsePosition(opts.Station)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --station", err)
		}
		only = &pos
	}

	st, err := openExisting(opts.database(opts.Database))
	if err != nil {
		return err
	}
	defer st.Close()

	// Inspection never spawns frames, so the generator is never called.
	found, err := world.NewFrames(st, world.UUIDv7Handles{}).Brews(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read brews", err)
	}

	result := InspectResult{At: at.Format(time.RFC3339), Brews: make([]BrewView, 0, len(found))}
	for _, f := range found {
		if only != nil && f.Record.Station != *only {
			continue
		}
		result.Brews = append(result.Brews, viewOf(f, at))
	}

	out := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return out.JSON(true, result)
	}

	if len(result.Brews) == 0 {
		out.Printf("No brews.\n")
		return nil
	}
	out.Printf("At %s\n", result.At)
	for _, b := range result.Brews {
		heat := "unheated"
		if b.Heated {
			heat = "heated"
		}
		out.Printf("%s %.1f %s %s %s [%s]\n", b.Station, b.Temperature, b.Band, heat, b.Color, strings.Join(b.Ingredients, " "))
	}
	return nil
}

func (o *InspectOptions) instant() (time.Time, error) {
	if o.At != "" {
		return time.Parse(time.RFC3339, o.At)
	}
	if o.Now != nil {
		return o.Now().UTC(), nil
	}
	return time.Now().UTC(), nil
}

func viewOf(f world.Found, at time.Time) BrewView {
	rec := f.Record
	temp := rec.Temperature(at)
	ings := make([]string, len(rec.Ingredients))
	for i, ing := range rec.Ingredients {
		ings[i] = ing.Key.String()
	}
	return BrewView{
		Handle:      string(f.Handle),
		Station:     rec.Station.String(),
		Heated:      rec.Heat.Active,
		Temperature: temp,
		Band:        string(thermal.BandOf(temp)),
		Color:       rec.Color.String(),
		Ingredients: ings,
	}
}
