package coordinator

import (
	"sync"

	"clop/internal/request"
)

// Events bundles the callbacks a subscriber may register. Any field may be
// nil. Callbacks run on worker goroutines; subscribers touching
// thread-affine resources must synchronise themselves.
type Events struct {
	ProgressChanged  func(request.Progress)
	RequestCompleted func(request.Result)
	RequestFailed    func(request.Result)
}

type listenerSet struct {
	mu   sync.RWMutex
	next int
	subs map[int]Events
}

func newListenerSet() *listenerSet {
	return &listenerSet{subs: make(map[int]Events)}
}

func (l *listenerSet) add(ev Events) func() {
	l.mu.Lock()
	id := l.next
	l.next++
	l.subs[id] = ev
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}

func (l *listenerSet) snapshot() []Events {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Events, 0, len(l.subs))
	for _, ev := range l.subs {
		out = append(out, ev)
	}
	return out
}

func (l *listenerSet) emitProgress(p request.Progress) {
	for _, ev := range l.snapshot() {
		if ev.ProgressChanged != nil {
			ev.ProgressChanged(p)
		}
	}
}

func (l *listenerSet) emitTerminal(r request.Result) {
	completed := r.Status == request.StatusSucceeded || r.Status == request.StatusUnsupported
	for _, ev := range l.snapshot() {
		if completed {
			if ev.RequestCompleted != nil {
				ev.RequestCompleted(r)
			}
		} else if ev.RequestFailed != nil {
			ev.RequestFailed(r)
		}
	}
}
