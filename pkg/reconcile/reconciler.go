// Package reconcile keeps exactly one rendered view per subscription and
// replaces it on every event the subscription delivers.
package reconcile

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/jensneuse/abstractlogger"
	"go.uber.org/atomic"
	"golang.org/x/net/html"

	"github.com/chongma/gql-subscriptions-client/pkg/eventloop"
	"github.com/chongma/gql-subscriptions-client/pkg/graphql"
	"github.com/chongma/gql-subscriptions-client/pkg/subscription"
)

var ErrRenderedNothing = errors.New("render produced no view")

// RenderFunc maps one event payload to a fresh view. It must not keep or reuse nodes.
type RenderFunc func(payload []byte) (*html.Node, error)

// OpenFunc starts delivery of events to observer. Closing the returned io.Closer stops it.
type OpenFunc func(ctx context.Context, observer subscription.Observer) (io.Closer, error)

type Reconciler struct {
	loop   *eventloop.Loop
	logger abstractlogger.Logger
}

func New(loop *eventloop.Loop, logger abstractlogger.Logger) *Reconciler {
	if logger == nil {
		logger = abstractlogger.Noop{}
	}
	return &Reconciler{
		loop:   loop,
		logger: logger,
	}
}

// Attach opens the stream and reconciles frame on every event, in arrival order,
// on the event loop. Stream errors are logged and leave the last view in place.
func (r *Reconciler) Attach(ctx context.Context, frame *Frame, render RenderFunc, open OpenFunc) (*Handle, error) {
	handle := &Handle{
		reconciler: r,
		frame:      frame,
		detached:   atomic.NewBool(false),
		applied:    atomic.NewUint64(0),
	}

	observer := subscription.Observer{
		Next: func(data []byte) {
			payload := append([]byte(nil), data...)
			r.loop.Post(func() {
				r.reconcile(handle, render, payload)
			})
		},
		Error: func(err error) {
			if handle.detached.Load() {
				return
			}
			r.logger.Error("reconcile.Reconciler.Attach: on stream error",
				abstractlogger.Error(err),
			)
		},
		Complete: func() {
			r.logger.Debug("reconcile.Reconciler.Attach: on stream complete")
		},
	}

	closer, err := open(ctx, observer)
	if err != nil {
		return nil, err
	}

	handle.setCloser(closer)
	return handle, nil
}

// Detach is the same as handle.Detach.
func (r *Reconciler) Detach(handle *Handle) error {
	if handle == nil {
		return nil
	}
	return handle.Detach()
}

func (r *Reconciler) reconcile(handle *Handle, render RenderFunc, payload []byte) {
	if handle.detached.Load() {
		return
	}

	node, err := render(payload)
	if err == nil && node == nil {
		err = ErrRenderedNothing
	}
	if err != nil {
		r.logger.Error("reconcile.Reconciler.reconcile: on render",
			abstractlogger.Error(&graphql.StreamError{Err: err}),
			abstractlogger.ByteString("payload", payload),
		)
		return
	}

	handle.frame.Replace(node)
	handle.applied.Inc()
}

// Handle is one attached subscription.
type Handle struct {
	reconciler *Reconciler
	frame      *Frame
	detached   *atomic.Bool
	applied    *atomic.Uint64

	mu     sync.Mutex
	closer io.Closer
}

func (h *Handle) setCloser(closer io.Closer) {
	h.mu.Lock()
	h.closer = closer
	h.mu.Unlock()
}

// Detach stops event delivery and removes the current view. Events that are
// already queued are discarded. It is idempotent and safe to call from any goroutine;
// the view is removed by a task on the event loop.
func (h *Handle) Detach() error {
	if !h.detached.CAS(false, true) {
		return nil
	}

	h.reconciler.loop.Post(h.frame.Clear)

	h.mu.Lock()
	closer := h.closer
	h.closer = nil
	h.mu.Unlock()

	if closer == nil {
		return nil
	}
	return closer.Close()
}

// Close implements io.Closer.
func (h *Handle) Close() error {
	return h.Detach()
}

func (h *Handle) Detached() bool {
	return h.detached.Load()
}

// Applied is the number of events that replaced the view.
func (h *Handle) Applied() uint64 {
	return h.applied.Load()
}
