package procrunner

import (
	"context"
	"fmt"
	"strings"
)

// Command describes a single external tool invocation.
type Command struct {
	Path string
	Args []string
	// Dir is the working directory; empty inherits the caller's.
	Dir string
	// Env entries are appended to the inherited environment.
	Env []string
	// OnStdout and OnStderr receive output lines as they arrive. Captured
	// output is accumulated regardless.
	OnStdout func(line string)
	OnStderr func(line string)
}

// Result is the structured outcome of a completed invocation. A non-zero
// exit code is data, not an error; callers opting into strict handling use
// Result.Err.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Err returns a descriptive error when the exit code is non-zero.
func (r Result) Err(tool string) error {
	if r.ExitCode == 0 {
		return nil
	}
	detail := strings.TrimSpace(r.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(r.Stdout)
	}
	return &ExitError{Tool: tool, ExitCode: r.ExitCode, Detail: detail}
}

// ExitError reports a non-zero exit from an external tool.
type ExitError struct {
	Tool     string
	ExitCode int
	Detail   string
}

func (e *ExitError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: exit status %d", e.Tool, e.ExitCode)
	}
	return fmt.Sprintf("%s: exit status %d: %s", e.Tool, e.ExitCode, e.Detail)
}

// Runner executes external commands. Implementations return an error only
// for failures to start, cancellation, or I/O faults; tool exit codes are
// reported through Result.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}
