package cli

import (
	"errors"
	"io"

	"github.com/roach88/ultistats/internal/engine"
	"github.com/roach88/ultistats/internal/event"
	"github.com/roach88/ultistats/internal/store"
)

// Execute runs the root command with args and returns the process exit code.
// Errors are written through the output formatter so JSON callers always get
// a CLIResponse.
func Execute(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}
	if isReported(err) {
		return GetExitCode(err)
	}

	format := "text"
	if f, ferr := cmd.PersistentFlags().GetString("format"); ferr == nil && isValidFormat(f) {
		format = f
	}
	f := &OutputFormatter{Format: format, Writer: stderr}
	if format == "json" {
		f.Writer = stdout
	}
	_ = f.Error(errorCode(err), err.Error(), nil)
	return GetExitCode(err)
}

// errorCode maps an error to the CLIError code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "E_NOT_FOUND"
	case event.IsValidationError(err), engine.IsMalformedError(err):
		return "E_MALFORMED"
	case engine.IsNetworkError(err):
		return "E_NETWORK"
	case GetExitCode(err) == ExitCommandError:
		return "E_COMMAND"
	default:
		return "E_FAILED"
	}
}
