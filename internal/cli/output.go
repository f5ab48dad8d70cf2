package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cauldron/internal/engine"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Scenarios failed, replay diverged, events failed
	ExitCommandError = 2 // Command error (bad flags, unreadable database or catalog)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes data wrapped in a CLIResponse. ok selects the status.
func (f *OutputFormatter) JSON(ok bool, data any) error {
	status := "ok"
	if !ok {
		status = "error"
	}
	return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: status, Data: data})
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Printf writes text output. It is a no-op in JSON mode.
func (f *OutputFormatter) Printf(format string, args ...any) {
	if f.Format == "json" {
		return
	}
	fmt.Fprintf(f.Writer, format, args...)
}

// describeResult renders a result on one line:
//
//	#3 add overworld:0,64,0 intake=applied 90.2 remaining=1
func describeResult(res engine.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s %s", res.Seq, res.Event.Kind, res.Event.Pos)
	if len(res.Steps) == 0 && res.Err == "" {
		b.WriteString(" -")
	}
	for _, s := range res.Steps {
		o := s.Outcome
		fmt.Fprintf(&b, " %s=%s", s.Handler, o.Status)
		if o.Reason != "" {
			fmt.Fprintf(&b, "(%s)", o.Reason)
		}
		if s.Station != res.Event.Pos {
			fmt.Fprintf(&b, "@%s", s.Station)
		}
		if o.Temperature != nil {
			fmt.Fprintf(&b, " %.1f", *o.Temperature)
		}
		if o.Remaining != nil {
			fmt.Fprintf(&b, " remaining=%d", *o.Remaining)
		}
		if q := o.Query; q != nil {
			fmt.Fprintf(&b, " %s [%s]", q.Band, strings.Join(q.Descriptions, " "))
			if len(q.Perished) > 0 {
				fmt.Fprintf(&b, " perished=[%s]", strings.Join(q.Perished, " "))
			}
		}
		if c := o.Container; c != nil {
			fmt.Fprintf(&b, " container=%d:%s", len(c.Ingredients), c.Color)
		}
		if o.Suppress {
			b.WriteString(" suppressed")
		}
	}
	if res.Err != "" {
		fmt.Fprintf(&b, " error=%q", res.Err)
	}
	return b.String()
}
