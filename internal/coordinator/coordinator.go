package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"clop/internal/history"
	"clop/internal/logging"
	"clop/internal/optimize"
	"clop/internal/request"
)

// defaultStatusCap bounds the in-memory terminal-status lookup when no
// history store is attached.
const defaultStatusCap = 1024

// Options configures coordinator construction.
type Options struct {
	// Workers is the fixed pool size. Values below 1 fall back to 1.
	Workers int
	// StatusCap bounds the in-memory terminal-status map.
	StatusCap int
}

type job struct {
	req    *request.Request
	ticket *request.Ticket
	ctx    context.Context
}

// Coordinator owns the FIFO queue, the worker pool, and event delivery.
type Coordinator struct {
	logger     *slog.Logger
	optimizers map[request.ItemType]optimize.Optimizer
	store      *history.Store
	listeners  *listenerSet
	statusCap  int

	shutdownCtx context.Context
	shutdown    context.CancelFunc

	work chan *job
	wake chan struct{}
	wg   sync.WaitGroup

	mu        sync.Mutex
	queue     []*job
	statuses  map[string]request.Status
	completed []string
	closed    bool
}

// New builds a coordinator and starts its dispatch loop and worker pool.
// store may be nil; results are then only observable through tickets and
// events.
func New(opts Options, optimizers []optimize.Optimizer, store *history.Store, logger *slog.Logger) *Coordinator {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	statusCap := opts.StatusCap
	if statusCap < 1 {
		statusCap = defaultStatusCap
	}

	byType := make(map[request.ItemType]optimize.Optimizer, len(optimizers))
	for _, opt := range optimizers {
		if opt != nil {
			byType[opt.ItemType()] = opt
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		logger:      logging.NewComponentLogger(logger, "coordinator"),
		optimizers:  byType,
		store:       store,
		listeners:   newListenerSet(),
		statusCap:   statusCap,
		shutdownCtx: ctx,
		shutdown:    cancel,
		work:        make(chan *job),
		wake:        make(chan struct{}, 1),
		statuses:    make(map[string]request.Status),
	}

	c.wg.Add(workers + 1)
	go c.dispatch()
	for i := 0; i < workers; i++ {
		go c.worker()
	}
	return c
}

// Subscribe registers event callbacks and returns an unsubscribe function.
func (c *Coordinator) Subscribe(ev Events) func() {
	return c.listeners.add(ev)
}

// Enqueue submits a request and returns its ticket immediately. The caller
// token cancels the request; it is combined with coordinator shutdown when
// the request starts. A request whose item type has no registered optimiser
// resolves to Unsupported without consuming a worker slot.
func (c *Coordinator) Enqueue(ctx context.Context, req *request.Request) *request.Ticket {
	ticket := request.NewTicket(req.ID)
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.finish(req, ticket, &request.Result{
			RequestID: req.ID,
			Status:    request.StatusCancelled,
			Message:   "coordinator closed",
		})
		return ticket
	}
	if _, ok := c.optimizers[req.Type]; !ok {
		c.mu.Unlock()
		c.finish(req, ticket, &request.Result{
			RequestID: req.ID,
			Status:    request.StatusUnsupported,
			Message:   fmt.Sprintf("no optimiser registered for item type %q", req.Type),
		})
		return ticket
	}

	c.statuses[req.ID] = request.StatusQueued
	c.queue = append(c.queue, &job{req: req, ticket: ticket, ctx: ctx})
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return ticket
}

// GetStatus returns the current status for a request ID, consulting the
// bounded history store for evicted entries.
func (c *Coordinator) GetStatus(requestID string) (request.Status, bool) {
	c.mu.Lock()
	status, ok := c.statuses[requestID]
	c.mu.Unlock()
	if ok {
		return status, true
	}
	if c.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if entry, err := c.store.Get(ctx, requestID); err == nil && entry != nil {
			return entry.Status, true
		}
	}
	return "", false
}

// Close stops dispatch, waits for in-flight work, and resolves all still
// queued requests as Cancelled. Safe to call more than once.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.shutdown()
	c.wg.Wait()

	c.mu.Lock()
	remaining := c.queue
	c.queue = nil
	c.mu.Unlock()

	for _, j := range remaining {
		c.finish(j.req, j.ticket, &request.Result{
			RequestID: j.req.ID,
			Status:    request.StatusCancelled,
			Message:   "coordinator closed before dispatch",
		})
	}
}

// dispatch feeds queued jobs to free workers in enqueue order.
func (c *Coordinator) dispatch() {
	defer c.wg.Done()
	defer close(c.work)
	for {
		c.mu.Lock()
		for len(c.queue) == 0 {
			c.mu.Unlock()
			select {
			case <-c.shutdownCtx.Done():
				return
			case <-c.wake:
			}
			c.mu.Lock()
		}
		next := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()

		select {
		case c.work <- next:
		case <-c.shutdownCtx.Done():
			// Put it back so Close resolves it as cancelled.
			c.mu.Lock()
			c.queue = append([]*job{next}, c.queue...)
			c.mu.Unlock()
			return
		}
	}
}

func (c *Coordinator) worker() {
	defer c.wg.Done()
	for j := range c.work {
		c.process(j)
	}
}

func (c *Coordinator) process(j *job) {
	id := j.req.ID
	c.mu.Lock()
	c.statuses[id] = request.StatusRunning
	c.mu.Unlock()

	runCtx, cancel := context.WithCancel(j.ctx)
	defer cancel()
	stop := context.AfterFunc(c.shutdownCtx, cancel)
	defer stop()

	logger := c.logger.With(
		logging.String(logging.FieldRequestID, id),
		logging.String(logging.FieldItemType, string(j.req.Type)),
	)
	run := optimize.NewRun(id, logger, c.listeners.emitProgress)

	logger.Info("request started", logging.String("source", j.req.SourcePath))
	result, err := c.invoke(runCtx, j, run)

	switch {
	case err != nil:
		status := optimize.StatusFor(err)
		if runCtx.Err() != nil {
			status = request.StatusCancelled
		}
		result = &request.Result{
			RequestID: id,
			Status:    status,
			Message:   optimize.Message(err),
		}
	case result == nil:
		result = &request.Result{
			RequestID: id,
			Status:    request.StatusFailed,
			Message:   "optimiser returned no result",
		}
	case runCtx.Err() != nil && result.Status == request.StatusSucceeded:
		// Cancellation fired while the optimiser was finishing; the
		// request must not surface as succeeded. Promoted output is
		// withdrawn unless it is the untouched source.
		if result.OutputPath != "" && result.OutputPath != j.req.SourcePath {
			_ = os.Remove(result.OutputPath)
		}
		result = &request.Result{
			RequestID: id,
			Status:    request.StatusCancelled,
			Message:   "cancelled",
		}
	}

	if result.Status != request.StatusSucceeded {
		result.OutputPath = ""
	}
	run.Seal()
	c.finish(j.req, j.ticket, result)
}

// invoke calls the optimiser with panic containment: a panicking optimiser
// fails its own request, never the dispatch loop.
func (c *Coordinator) invoke(ctx context.Context, j *job, run *optimize.Run) (result *request.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = optimize.Wrap(optimize.ErrInternal, "coordinator", "optimize",
				fmt.Sprintf("panic: %v", r), nil)
		}
	}()
	return c.optimizers[j.req.Type].Optimize(ctx, j.req, run)
}

// finish records the terminal status, resolves the ticket, and emits the
// terminal event. Only the first terminal result per request takes effect.
func (c *Coordinator) finish(req *request.Request, ticket *request.Ticket, result *request.Result) {
	if !ticket.Resolve(result) {
		return
	}

	c.mu.Lock()
	c.statuses[req.ID] = result.Status
	c.completed = append(c.completed, req.ID)
	for len(c.completed) > c.statusCap {
		evicted := c.completed[0]
		c.completed = c.completed[1:]
		delete(c.statuses, evicted)
	}
	c.mu.Unlock()

	if c.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := c.store.Record(ctx, req, result); err != nil {
			c.logger.Warn("history record failed",
				logging.String(logging.FieldRequestID, req.ID),
				logging.Error(err))
		}
		cancel()
	}

	c.logger.Info("request finished",
		logging.String(logging.FieldRequestID, req.ID),
		logging.String("status", string(result.Status)),
		logging.String("message", result.Message))
	c.listeners.emitTerminal(*result)
}
