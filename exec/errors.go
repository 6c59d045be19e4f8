package exec

import (
	"fmt"
	"strings"
)

// ExecError describes a command that could not be started or exited with
// a non-zero status.
type ExecError struct {
	// Command is the full command line, including the program name.
	Command []string

	// ExitCode is -1 when the process never ran.
	ExitCode int

	// Stderr is the captured standard error.
	Stderr string

	Err error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("command %v failed with exit code %d", e.Command, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
