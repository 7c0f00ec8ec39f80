package optimize

import (
	"context"
	"log/slog"
	"sync"

	"clop/internal/logging"
	"clop/internal/request"
)

// Optimizer is the uniform contract each format optimiser implements.
// Optimize returns either a terminal result or an error tagged with one of
// the package sentinels; it must not panic across the boundary.
type Optimizer interface {
	ItemType() request.ItemType
	Optimize(ctx context.Context, req *request.Request, run *Run) (*request.Result, error)
}

// Run is the narrow execution context handed to one optimiser invocation.
// It exposes progress reporting and a request-scoped logger without leaking
// coordinator internals.
type Run struct {
	requestID string
	logger    *slog.Logger
	report    func(request.Progress)

	mu     sync.Mutex
	last   float64
	sealed bool
}

// NewRun constructs an execution context. report may be nil.
func NewRun(requestID string, logger *slog.Logger, report func(request.Progress)) *Run {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Run{requestID: requestID, logger: logger, report: report}
}

// RequestID returns the owning request's identifier.
func (r *Run) RequestID() string { return r.requestID }

// Logger returns the request-scoped logger.
func (r *Run) Logger() *slog.Logger { return r.logger }

// Progress publishes a progress update. Percent is clamped to [0, 100] and
// never regresses within the run; updates after Seal are dropped.
func (r *Run) Progress(percent float64, phase string) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	r.mu.Lock()
	if r.sealed {
		r.mu.Unlock()
		return
	}
	if percent < r.last {
		percent = r.last
	}
	r.last = percent
	report := r.report
	r.mu.Unlock()

	if report != nil {
		report(request.Progress{RequestID: r.requestID, Percent: percent, Phase: phase})
	}
}

// Seal stops further progress delivery. The coordinator seals the run before
// emitting the terminal event so no progress follows it.
func (r *Run) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}
