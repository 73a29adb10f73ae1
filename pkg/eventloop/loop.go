// Package eventloop runs tasks one at a time, in submission order, on a single goroutine.
//
// Everything that touches a rendered document is executed on a Loop, which makes
// the document and the per-subscription bookkeeping free of locks.
package eventloop

import (
	"context"
	"errors"
	"sync"

	"github.com/jensneuse/abstractlogger"
)

var ErrLoopStopped = errors.New("event loop stopped")

type Task func()

type Loop struct {
	logger abstractlogger.Logger

	mu      sync.Mutex
	queue   []Task
	stopped bool
	wakeup  chan struct{}
	done    chan struct{}
	once    sync.Once
}

func New(logger abstractlogger.Logger) *Loop {
	if logger == nil {
		logger = abstractlogger.Noop{}
	}

	return &Loop{
		logger: logger,
		wakeup: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Run executes queued tasks until ctx is done. Tasks still queued at that point are dropped.
// A stopped loop does not start again; a second Run returns once ctx is done.
func (l *Loop) Run(ctx context.Context) {
	defer l.stop()

	for {
		if ctx.Err() != nil {
			return
		}

		task, ok := l.next()
		if ok {
			l.execute(task)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-l.wakeup:
		}
	}
}

// Post enqueues task without waiting for it. It returns false once the loop has stopped.
func (l *Loop) Post(task Task) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wakeup <- struct{}{}:
	default:
	}
	return true
}

// Do enqueues task and waits until it has been executed.
// It must not be called from a task running on the same loop.
func (l *Loop) Do(ctx context.Context, task Task) error {
	executed := make(chan struct{})
	ok := l.Post(func() {
		defer close(executed)
		task()
	})
	if !ok {
		return ErrLoopStopped
	}

	select {
	case <-executed:
		return nil
	case <-l.done:
		select {
		case <-executed:
			return nil
		default:
			return ErrLoopStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) next() (Task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return nil, false
	}

	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task, true
}

func (l *Loop) execute(task Task) {
	defer func() {
		if recovered := recover(); recovered != nil {
			l.logger.Error("eventloop.Loop.execute: on task panic",
				abstractlogger.Any("panic", recovered),
			)
		}
	}()

	task()
}

func (l *Loop) stop() {
	l.mu.Lock()
	l.stopped = true
	l.queue = nil
	l.mu.Unlock()

	l.once.Do(func() {
		close(l.done)
	})
}
