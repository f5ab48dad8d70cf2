package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/cauldron/internal/brewing"
	"github.com/roach88/cauldron/internal/codec"
	"github.com/roach88/cauldron/internal/engine"
	"github.com/roach88/cauldron/internal/metrics"
	"github.com/roach88/cauldron/internal/station"
	"github.com/roach88/cauldron/internal/store"
	"github.com/roach88/cauldron/internal/world"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database    string
	Events      string
	Catalog     string
	MetricsAddr string

	// Handles overrides the frame handle generator (for testing).
	// If nil, defaults to UUIDv7Handles.
	Handles world.HandleGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process world events against the station database",
		Long: `Start the single-writer engine over a SQLite world.

Events are read as JSON lines, one event per line, from --events or stdin:

  {"kind":"place","at":1704067200000,"pos":{"world":"overworld","x":0,"y":63,"z":0},"block":{"kind":"campfire","lit":true}}
  {"kind":"add","at":1704067260000,"pos":{"world":"overworld","x":0,"y":64,"z":0},"item":"SUGAR","amount":1}

Each processed event is journaled and written to stdout as one line of
canonical JSON: {"event":...,"result":...,"seq":n}. Malformed lines are
logged and skipped. Numbering resumes after the existing journal.

Exit codes:
  0 - Every event processed
  1 - One or more events failed or were malformed
  2 - Command error (database, catalog or input unreadable)

Examples:
  cauldron run --db ./world.db < events.jsonl
  cauldron run --db ./world.db --events events.jsonl --metrics-addr :9090`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Events, "events", "", "JSON-lines event file (default stdin)")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "CUE ingredient table (default built-in)")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus /metrics on this address")

	return cmd
}

func runEngine(opts *RunOptions, cmd *cobra.Command) error {
	logger := opts.logger("run")

	cat, err := loadCatalog(opts.catalogPath(opts.Catalog))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load catalog", err)
	}

	in := cmd.InOrStdin()
	if opts.Events != "" && opts.Events != "-" {
		f, err := os.Open(opts.Events)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open events", err)
		}
		defer f.Close()
		in = f
	}

	dbPath := opts.database(opts.Database)
	logger.Info().Str("path", dbPath).Msg("Opening database")
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("Error closing database")
		}
	}()

	var rec metrics.Recorder = metrics.Nop{}
	if addr := opts.metricsAddr(opts.MetricsAddr); addr != "" {
		reg := prometheus.NewRegistry()
		p, err := metrics.NewPrometheus(reg)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to register metrics", err)
		}
		rec = p

		srv := &http.Server{
			Addr:              addr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", addr).Msg("Metrics server failed")
			}
		}()
		defer srv.Close()
		logger.Info().Str("addr", addr).Msg("Serving metrics")
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	last, err := st.LastSeq(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	handles := opts.Handles
	if handles == nil {
		handles = world.UUIDv7Handles{}
	}
	registry := station.NewRegistry(world.NewFrames(st, handles),
		station.WithLogger(opts.logger("station")),
		station.WithMetrics(rec))
	handlers := brewing.New(world.NewRules(st), registry, cat,
		brewing.WithLogger(opts.logger("brewing")),
		brewing.WithMetrics(rec))

	out := cmd.OutOrStdout()
	var processed, failed int
	var writeErr error
	eng := engine.New(st, handlers,
		engine.WithJournal(st),
		engine.WithClock(engine.NewClock(last)),
		engine.WithLogger(opts.logger("engine")),
		engine.WithMetrics(rec),
		engine.WithResultHandler(func(res engine.Result) {
			processed++
			logger.Debug().Msg(describeResult(res))
			if res.Err != "" {
				failed++
			}
			if err := writeResult(out, res); err != nil && writeErr == nil {
				writeErr = err
			}
		}))

	var malformed int
	readDone := make(chan error, 1)
	go func() {
		defer eng.Stop()
		readDone <- readEvents(ctx, in, eng, logger, &malformed)
	}()

	logger.Info().Int64("resume_after", last).Msg("Engine starting")
	if err := eng.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Int("processed", processed).Msg("Interrupted")
			return nil
		}
		return WrapExitError(ExitFailure, "engine error", err)
	}
	if err := <-readDone; err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}
	if writeErr != nil {
		return WrapExitError(ExitCommandError, "failed to write results", writeErr)
	}

	logger.Info().Int("processed", processed).Int("failed", failed).Int("malformed", malformed).Msg("Engine stopped")
	if failed+malformed > 0 {
		return NewExitError(ExitFailure,
			fmt.Sprintf("%d events failed, %d lines malformed", failed, malformed))
	}
	return nil
}

func metricsMux(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

// readEvents enqueues every event read from r. Blank lines and lines
// starting with '#' are skipped.
func readEvents(ctx context.Context, r io.Reader, eng *engine.Engine, logger zerolog.Logger, malformed *int) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	line := 0
	for sc.Scan() {
		line++
		if ctx.Err() != nil {
			return nil
		}
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}
		ev, err := decodeEvent(text)
		if err != nil {
			*malformed++
			logger.Error().Err(err).Int("line", line).Msg("Skipping malformed event")
			continue
		}
		if !eng.Enqueue(ev) {
			return nil
		}
	}
	return sc.Err()
}

func decodeEvent(data []byte) (engine.Event, error) {
	var ev engine.Event
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		return engine.Event{}, err
	}
	return ev, nil
}

func writeResult(w io.Writer, res engine.Result) error {
	data, err := codec.MarshalCanonical(res.Document())
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
