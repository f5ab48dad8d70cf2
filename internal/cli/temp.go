package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cauldron/internal/thermal"
)

// TempOptions holds flags for the temp command.
type TempOptions struct {
	*RootOptions
	From    float64
	To      float64
	Seconds float64
	Rate    float64
	Step    float64 // print a curve when non-zero
}

// TempPoint is one point on the curve.
type TempPoint struct {
	Seconds     float64 `json:"seconds"`
	Temperature float64 `json:"temperature"`
	Band        string  `json:"band"`
}

// NewTempCommand creates the temp command.
func NewTempCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TempOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "temp",
		Short: "Evaluate the temperature curve",
		Long: `Evaluate the exponential approach from --from toward --to after --seconds.

With --step the whole curve from 0 to --seconds is printed at that interval.

Examples:
  cauldron temp --seconds 60
  cauldron temp --from 90.2 --to 20 --seconds 120
  cauldron temp --seconds 120 --step 10 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemp(opts, cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.From, "from", thermal.Ambient, "initial temperature")
	cmd.Flags().Float64Var(&opts.To, "to", thermal.Hot, "target temperature")
	cmd.Flags().Float64Var(&opts.Seconds, "seconds", 60, "seconds since the transition")
	cmd.Flags().Float64Var(&opts.Rate, "rate", thermal.WaterRate, "decay constant per second (negative)")
	cmd.Flags().Float64Var(&opts.Step, "step", 0, "print the curve at this interval, in seconds")

	return cmd
}

func runTemp(opts *TempOptions, cmd *cobra.Command) error {
	if opts.Rate >= 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("rate must be negative, got %v", opts.Rate))
	}
	if opts.Seconds < 0 || opts.Step < 0 {
		return NewExitError(ExitCommandError, "--seconds and --step must not be negative")
	}

	points := curve(opts.From, opts.To, opts.Rate, opts.Seconds, opts.Step)

	out := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return out.JSON(true, points)
	}
	for _, p := range points {
		out.Printf("%6gs %5.1f %s\n", p.Seconds, p.Temperature, p.Band)
	}
	return nil
}

// curve samples the decay curve at every step up to seconds, always ending
// at seconds. A zero step yields the end point only.
func curve(from, to, rate, seconds, step float64) []TempPoint {
	var points []TempPoint
	at := func(s float64) TempPoint {
		t := thermal.Decay(from, to, s, rate)
		return TempPoint{Seconds: s, Temperature: t, Band: string(thermal.BandOf(t))}
	}
	if step > 0 {
		for i := 0; float64(i)*step < seconds; i++ {
			points = append(points, at(float64(i)*step))
		}
	}
	return append(points, at(seconds))
}
