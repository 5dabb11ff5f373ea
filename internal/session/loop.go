package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/stateful/embedkit/internal/ulid"
)

// Task is a unit of work run on the loop goroutine.
type Task func()

// Loop serializes editor work the way a UI thread does. Document
// mutations and editor state changes are posted as tasks; fetches run on
// their own goroutines and post their results back.
//
// Either call Run once, or drive the loop manually with Flush and Settle.
// Mixing both is not supported.
type Loop struct {
	ID string

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []Task
	deferred []Task
	inflight int
	wake     chan struct{}

	logger *zap.Logger
}

type LoopOption func(*Loop)

func WithLogger(logger *zap.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		ID:   ulid.Generate(),
		wake: make(chan struct{}, 1),
	}
	l.cond = sync.NewCond(&l.mu)
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	l.logger = l.logger.With(zap.String("session", l.ID))
	return l
}

// Post schedules task for the current tick.
func (l *Loop) Post(task Task) {
	l.mu.Lock()
	l.queue = append(l.queue, task)
	l.cond.Broadcast()
	l.mu.Unlock()
	l.signal()
}

// Defer schedules task for the next tick, after everything posted so far
// has run. Selection moves after structural edits use it.
func (l *Loop) Defer(task Task) {
	l.mu.Lock()
	l.deferred = append(l.deferred, task)
	l.cond.Broadcast()
	l.mu.Unlock()
	l.signal()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Flush runs queued and deferred tasks on the calling goroutine until none
// are left. It does not wait for in-flight fetches.
func (l *Loop) Flush() {
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		if len(batch) == 0 {
			batch = l.deferred
			l.deferred = nil
		}
		l.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, task := range batch {
			l.run(task)
		}
	}
}

func (l *Loop) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	task()
}

// Settle flushes the loop and waits for in-flight fetches, repeating until
// the loop is idle or ctx is done.
func (l *Loop) Settle(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		l.mu.Lock()
		l.cond.Broadcast()
		l.mu.Unlock()
	})
	defer stop()

	for {
		l.Flush()

		l.mu.Lock()
		for l.inflight > 0 && l.emptyLocked() && ctx.Err() == nil {
			l.cond.Wait()
		}
		idle := l.inflight == 0 && l.emptyLocked()
		l.mu.Unlock()

		if idle {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (l *Loop) emptyLocked() bool {
	return len(l.queue) == 0 && len(l.deferred) == 0
}

// Run processes tasks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("loop started")
	defer l.logger.Debug("loop stopped")

	for {
		l.Flush()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Pending returns the number of fetches that have not delivered yet.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight
}

func (l *Loop) begin() {
	l.mu.Lock()
	l.inflight++
	l.mu.Unlock()
}

func (l *Loop) end() {
	l.mu.Lock()
	l.inflight--
	l.cond.Broadcast()
	l.mu.Unlock()
}

// Go runs fetch on its own goroutine and posts deliver with the result
// back to the loop. Callers decide in deliver whether the result is still
// wanted.
func Go[T any](l *Loop, ctx context.Context, fetch func(context.Context) (T, error), deliver func(T, error)) {
	l.begin()
	go func() {
		defer l.end()
		value, err := fetch(ctx)
		l.Post(func() {
			deliver(value, err)
		})
	}()
}
