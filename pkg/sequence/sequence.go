// Package sequence renders a fetched snapshot before it starts the live subscription
// for the same target, so a target is never blank while updates are already flowing.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/jensneuse/abstractlogger"
	"go.uber.org/atomic"
	"golang.org/x/net/html"

	"github.com/chongma/gql-subscriptions-client/pkg/eventloop"
	"github.com/chongma/gql-subscriptions-client/pkg/graphql"
	"github.com/chongma/gql-subscriptions-client/pkg/reconcile"
)

var (
	ErrAlreadyStarted = errors.New("sequence already started")
	ErrStopped        = errors.New("sequence stopped")
)

type State int32

const (
	Idle State = iota
	Fetching
	Rendered
	Subscribing
	Live
	FetchFailed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Rendered:
		return "rendered"
	case Subscribing:
		return "subscribing"
	case Live:
		return "live"
	case FetchFailed:
		return "fetch failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type Steps[T any] struct {
	Fetch func(ctx context.Context) (T, error)
	// Render is called on the event loop.
	Render    func(value T) (*html.Node, error)
	Subscribe func(ctx context.Context) (io.Closer, error)
}

type Sequence[T any] struct {
	loop   *eventloop.Loop
	frame  *reconcile.Frame
	logger abstractlogger.Logger
	steps  Steps[T]
	name   string

	state *atomic.Int32

	mu      sync.Mutex
	live    io.Closer
	stopped bool
}

func New[T any](loop *eventloop.Loop, frame *reconcile.Frame, logger abstractlogger.Logger, name string, steps Steps[T]) *Sequence[T] {
	if logger == nil {
		logger = abstractlogger.Noop{}
	}
	return &Sequence[T]{
		loop:   loop,
		frame:  frame,
		logger: logger,
		steps:  steps,
		name:   name,
		state:  atomic.NewInt32(int32(Idle)),
	}
}

// Run fetches, renders the snapshot into the frame and only then subscribes.
// A failed fetch returns a *graphql.FetchError and never subscribes. So does a
// render that never ran because ctx ended or the loop stopped; the frame is left untouched. A failed
// subscribe is logged, leaves the snapshot in place and is not an error.
func (s *Sequence[T]) Run(ctx context.Context) error {
	if !s.state.CAS(int32(Idle), int32(Fetching)) {
		return ErrAlreadyStarted
	}

	value, err := s.steps.Fetch(ctx)
	if err != nil {
		return s.fail(err)
	}

	// claimed decides between the render task and an aborted Do, so a task that
	// runs after Run gave up leaves the frame alone.
	var renderErr error
	claimed := atomic.NewBool(false)
	rendered := make(chan struct{})
	err = s.loop.Do(ctx, func() {
		if !claimed.CAS(false, true) {
			return
		}
		defer close(rendered)

		if s.isStopped() {
			renderErr = ErrStopped
			return
		}

		node, err := s.steps.Render(value)
		if err != nil {
			renderErr = err
			return
		}
		s.frame.Replace(node)
	})
	if err != nil {
		if claimed.CAS(false, true) {
			return s.fail(err)
		}
		<-rendered
	}
	if renderErr != nil {
		return s.fail(renderErr)
	}
	s.state.Store(int32(Rendered))

	s.state.Store(int32(Subscribing))
	live, err := s.steps.Subscribe(ctx)
	if err != nil {
		s.state.Store(int32(Rendered))
		s.logger.Error("sequence.Sequence.Run: on subscribe",
			abstractlogger.String("target", s.name),
			abstractlogger.Error(err),
		)
		return nil
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.state.Store(int32(Rendered))
		return live.Close()
	}
	s.live = live
	s.state.Store(int32(Live))
	s.mu.Unlock()
	return nil
}

func (s *Sequence[T]) State() State {
	return State(s.state.Load())
}

// Stop ends the live subscription, if any. A subscription that is established
// after Stop is closed right away, and a snapshot that was not rendered yet never is.
func (s *Sequence[T]) Stop() error {
	s.mu.Lock()
	live := s.live
	s.live = nil
	s.stopped = true
	s.mu.Unlock()

	if live == nil {
		return nil
	}
	return live.Close()
}

func (s *Sequence[T]) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Sequence[T]) fail(err error) error {
	s.state.Store(int32(FetchFailed))
	s.logger.Error("sequence.Sequence.Run: on fetch",
		abstractlogger.String("target", s.name),
		abstractlogger.Error(err),
	)

	var fetchErr *graphql.FetchError
	if errors.As(err, &fetchErr) {
		return err
	}
	return &graphql.FetchError{Operation: s.name, Err: err}
}
