// Package pool runs node decodes on a fixed set of worker goroutines. Each worker handles
// one decode at a time; callers receive exactly one Outcome per submitted request.
package pool

import (
	"context"
	"fmt"
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/ept/ept"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("decode pool is closed")

// Decoder is the capability the pool invokes for every task.
type Decoder interface {
	Decode(req ept.Request) (*ept.Result, error)
}

// Outcome is the single reply to a submitted request.
type Outcome struct {
	Result *ept.Result
	Err    error
}

type task struct {
	req   ept.Request
	reply chan Outcome
}

// Pool is a bounded set of decode workers.
type Pool struct {
	decoder Decoder
	logger  golog.Logger
	tasks   chan task

	mu         sync.RWMutex
	closed     bool
	cancelCtx  context.Context
	cancelFunc func()
	workers    sync.WaitGroup
}

// New starts numWorkers workers sharing a queue of queueSize pending tasks.
func New(numWorkers, queueSize int, decoder Decoder, logger golog.Logger) (*Pool, error) {
	if numWorkers <= 0 {
		return nil, errors.Errorf("pool needs at least one worker, got %d", numWorkers)
	}
	if queueSize < 0 {
		return nil, errors.Errorf("invalid pool queue size %d", queueSize)
	}
	cancelCtx, cancelFunc := context.WithCancel(context.Background())
	p := &Pool{
		decoder:    decoder,
		logger:     logger,
		tasks:      make(chan task, queueSize),
		cancelCtx:  cancelCtx,
		cancelFunc: cancelFunc,
	}
	p.workers.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		workerID := i
		goutils.PanicCapturingGo(func() {
			defer p.workers.Done()
			p.work(workerID)
		})
	}
	return p, nil
}

func (p *Pool) work(workerID int) {
	for {
		// stopping wins over queued work
		if p.cancelCtx.Err() != nil {
			return
		}
		select {
		case <-p.cancelCtx.Done():
			return
		case t := <-p.tasks:
			t.reply <- p.run(workerID, t.req)
		}
	}
}

// run decodes one request, turning a panic into an error so the worker survives.
func (p *Pool) run(workerID int, req ept.Request) (out Outcome) {
	defer func() {
		if thePanic := recover(); thePanic != nil {
			p.logger.Errorw("panic while decoding node", "worker", workerID, "panic", thePanic)
			out = Outcome{Err: fmt.Errorf("panic while decoding node: %v", thePanic)}
		}
	}()
	res, err := p.decoder.Decode(req)
	return Outcome{Result: res, Err: err}
}

// Submit queues req. The returned channel receives exactly one Outcome and is buffered,
// so a caller that stops listening does not block the worker. If ctx is done before the
// task is queued, the ctx error is returned and the request is never decoded.
func (p *Pool) Submit(ctx context.Context, req ept.Request) (<-chan Outcome, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}

	t := task{req: req, reply: make(chan Outcome, 1)}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.cancelCtx.Done():
		return nil, ErrClosed
	case p.tasks <- t:
		return t.reply, nil
	}
}

// Decode submits req and waits for its outcome. If ctx ends first the result is dropped
// when it arrives.
func (p *Pool) Decode(ctx context.Context, req ept.Request) (*ept.Result, error) {
	reply, err := p.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-reply:
		return out.Result, out.Err
	}
}

// Close stops the workers and waits for in flight decodes to finish. Tasks still queued
// are answered with ErrClosed.
func (p *Pool) Close() {
	// cancel first so that blocked submitters release the read lock
	p.cancelFunc()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.workers.Wait()
	for {
		select {
		case t := <-p.tasks:
			t.reply <- Outcome{Err: ErrClosed}
		default:
			return
		}
	}
}
