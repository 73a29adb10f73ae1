package view

import (
	"golang.org/x/net/html"
)

// Handle refers to one attached view. The zero Handle refers to nothing.
type Handle struct {
	node *html.Node
}

func (h Handle) IsZero() bool {
	return h.node == nil
}

func (h Handle) Node() *html.Node {
	return h.node
}

// Surface is where rendered views become visible.
type Surface interface {
	Attach(node *html.Node) Handle
	Detach(handle Handle)
}

// Slot is a Surface backed by a container element of a Document.
type Slot struct {
	container *html.Node
}

func (s *Slot) Attach(node *html.Node) Handle {
	if node == nil {
		return Handle{}
	}
	if node.Parent != nil {
		node.Parent.RemoveChild(node)
	}
	s.container.AppendChild(node)
	return Handle{node: node}
}

// Detach removes the view completely. Detaching a view that is not attached
// to this slot is a no-op.
func (s *Slot) Detach(handle Handle) {
	if handle.node == nil || handle.node.Parent != s.container {
		return
	}
	s.container.RemoveChild(handle.node)
}

// Len is the number of views currently attached.
func (s *Slot) Len() int {
	count := 0
	for child := s.container.FirstChild; child != nil; child = child.NextSibling {
		count++
	}
	return count
}

func (s *Slot) Container() *html.Node {
	return s.container
}

var _ Surface = (*Slot)(nil)
