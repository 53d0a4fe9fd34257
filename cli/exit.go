package cli

import (
	stdErrors "errors"
	"fmt"
)

// Exit codes of the costbasis binary.
const (
	ExitFailure    = 1 // the stream could not be loaded or replayed
	ExitIncomplete = 2 // --strict replay with gaps in the acquisition history
	ExitDeclined   = 3 // appending to an existing journal was declined
)

// CommandError is returned by commands that already printed their diagnostics.
// Main exits with its code instead of printing it again.
type CommandError struct {
	code   int
	reason string
}

// NewCommandError creates a CommandError exiting with code.
func NewCommandError(code int, reason string) *CommandError {
	return &CommandError{code: code, reason: reason}
}

func (e *CommandError) Error() string {
	if e.reason == "" {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.reason
}

// ExitCode returns the process exit code.
func (e *CommandError) ExitCode() int {
	return e.code
}

// ExitCode reports the exit code carried by err, if any.
func ExitCode(err error) (int, bool) {
	var cmdErr *CommandError
	if stdErrors.As(err, &cmdErr) {
		return cmdErr.code, true
	}
	return 0, false
}
