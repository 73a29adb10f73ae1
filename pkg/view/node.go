package view

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Child is anything that can be put into an element: nodes and attributes.
type Child interface {
	apply(node *html.Node)
}

type attribute html.Attribute

func (a attribute) apply(node *html.Node) {
	node.Attr = append(node.Attr, html.Attribute(a))
}

type nodeChild struct {
	node *html.Node
}

func (n nodeChild) apply(node *html.Node) {
	if n.node != nil {
		node.AppendChild(n.node)
	}
}

func Attr(key, value string) Child {
	return attribute{Key: key, Val: value}
}

func Class(name string) Child {
	return Attr("class", name)
}

func Node(node *html.Node) Child {
	return nodeChild{node: node}
}

func Text(text string) Child {
	return nodeChild{node: &html.Node{Type: html.TextNode, Data: text}}
}

// Element builds a fresh element node. Children are appended in order.
func Element(tag atom.Atom, children ...Child) *html.Node {
	node := &html.Node{
		Type:     html.ElementNode,
		DataAtom: tag,
		Data:     tag.String(),
	}
	for _, child := range children {
		child.apply(node)
	}
	return node
}

func attr(node *html.Node, key string) string {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
