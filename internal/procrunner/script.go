package procrunner

import (
	"context"
	"sync"
)

// Script is a deterministic Runner for tests. Each call is recorded; the
// Handler decides the outcome and may feed the command's line callbacks to
// simulate tool output.
type Script struct {
	mu    sync.Mutex
	calls []Command

	// Handler is invoked per call. A nil handler reports exit 0 with no
	// output.
	Handler func(ctx context.Context, cmd Command) (Result, error)
}

// Run records the command and delegates to Handler.
func (s *Script) Run(ctx context.Context, cmd Command) (Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, cmd)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{ExitCode: -1}, err
	}
	if s.Handler == nil {
		return Result{}, nil
	}
	return s.Handler(ctx, cmd)
}

// Calls returns a copy of the recorded invocations.
func (s *Script) Calls() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]Command, len(s.calls))
	copy(cp, s.calls)
	return cp
}

// CallCount returns how many invocations were recorded.
func (s *Script) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

var _ Runner = (*Script)(nil)
