package reconcile

import (
	"golang.org/x/net/html"

	"github.com/chongma/gql-subscriptions-client/pkg/view"
)

// Frame owns at most one view on a surface. It must only be used on the event loop.
type Frame struct {
	surface view.Surface
	current view.Handle
}

func NewFrame(surface view.Surface) *Frame {
	return &Frame{surface: surface}
}

// Replace detaches the current view completely and then attaches node.
// A nil node leaves the frame empty.
func (f *Frame) Replace(node *html.Node) {
	f.Clear()
	f.current = f.surface.Attach(node)
}

func (f *Frame) Clear() {
	if f.current.IsZero() {
		return
	}
	f.surface.Detach(f.current)
	f.current = view.Handle{}
}

// Live reports whether a view is attached.
func (f *Frame) Live() bool {
	return !f.current.IsZero()
}

func (f *Frame) Current() view.Handle {
	return f.current
}
