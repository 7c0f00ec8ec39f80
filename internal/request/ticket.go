package request

import (
	"context"
	"sync"
)

// Ticket pairs a request ID with its eventual result. It resolves exactly
// once; later resolution attempts are ignored.
type Ticket struct {
	RequestID string

	mu     sync.Mutex
	done   chan struct{}
	result *Result
}

// NewTicket constructs an unresolved ticket for the given request ID.
func NewTicket(requestID string) *Ticket {
	return &Ticket{RequestID: requestID, done: make(chan struct{})}
}

// Resolve records the terminal result. Only the first call takes effect;
// it reports whether this call resolved the ticket.
func (t *Ticket) Resolve(result *Result) bool {
	if result == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.result != nil {
		return false
	}
	t.result = result
	close(t.done)
	return true
}

// Done returns a channel closed once the ticket is resolved.
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Result returns the terminal result if already resolved.
func (t *Ticket) Result() (*Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.result == nil {
		return nil, false
	}
	return t.result, true
}

// Wait blocks until the ticket resolves or ctx ends.
func (t *Ticket) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-t.done:
		result, _ := t.Result()
		return result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
