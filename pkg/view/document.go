// Package view holds the page document and the surfaces views are attached to.
//
// A Document is not safe for concurrent use. Every call, including Render,
// has to happen on the goroutine that owns it (the event loop).
package view

import (
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	ClassPostContainer           = "post-container"
	ClassPostContainerIndividual = "post-container-individual"
)

const stylesheet = `
body {margin:20px;}
.post-container { padding:10px;background-color:red;margin-bottom:10px; }
.post-container-individual { padding:10px;background-color:green;margin-bottom:10px; }
`

type Document struct {
	root *html.Node
	head *html.Node
	body *html.Node
}

func NewDocument(title string) *Document {
	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	htmlNode := Element(atom.Html)
	head := Element(atom.Head,
		Node(Element(atom.Meta, Attr("charset", "utf-8"))),
		Node(Element(atom.Title, Text(title))),
		Node(Element(atom.Style, Text(stylesheet))),
	)
	body := Element(atom.Body)
	htmlNode.AppendChild(head)
	htmlNode.AppendChild(body)
	root.AppendChild(htmlNode)

	return &Document{
		root: root,
		head: head,
		body: body,
	}
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

func (d *Document) Body() *html.Node {
	return d.body
}

// NewSlot appends an empty container to the body and returns it as a Surface.
func (d *Document) NewSlot(id string) *Slot {
	container := Element(atom.Div, Attr("id", id))
	d.body.AppendChild(container)
	return &Slot{container: container}
}

// Slot finds a slot previously created with NewSlot.
func (d *Document) Slot(id string) (*Slot, bool) {
	for child := d.body.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.DataAtom == atom.Div && attr(child, "id") == id {
			return &Slot{container: child}, true
		}
	}
	return nil, false
}

func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}
