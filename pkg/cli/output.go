package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"lieworks/lie/pkg/engine/types"
)

// OutputFormat selects how a command prints its result.
type OutputFormat string

const (
	// FormatJSON prints the full result as indented JSON (default).
	FormatJSON OutputFormat = "json"
	// FormatText prints only the output text, warnings going to the
	// error side.
	FormatText OutputFormat = "text"
)

// PrintResult writes a dispatch result to out in the given format.
// In text format the output lands on out and the warning, if any, on
// errOut so piped output stays clean.
func PrintResult(out, errOut io.Writer, res *types.Result, format OutputFormat) error {
	switch format {
	case FormatText:
		if res.Error != nil {
			_, err := fmt.Fprintf(errOut, "error (%s): %s\n", res.Error.Kind, res.Error.Message)
			return err
		}
		if res.Warning != "" {
			fmt.Fprintf(errOut, "warning: %s\n", res.Warning)
		}
		if res.Output != nil {
			_, err := fmt.Fprintln(out, *res.Output)
			return err
		}
		return nil

	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
}

// ExitCode maps a result to a process exit code: 0 for success and
// partial (usable output), 2 for invalid requests, 1 for everything
// else.
func ExitCode(res *types.Result) int {
	if res.Status != types.StatusError {
		return 0
	}
	if res.Error != nil && res.Error.Kind == types.ErrInvalidRequest {
		return 2
	}
	return 1
}
