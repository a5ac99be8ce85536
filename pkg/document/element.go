package document

import (
	"strings"

	"golang.org/x/net/html"
)

// Element wraps an element node of a Document.
type Element struct {
	node *html.Node
}

// NewElement wraps n. n should be an html.ElementNode.
func NewElement(n *html.Node) *Element {
	return &Element{node: n}
}

func (e *Element) Node() *html.Node {
	return e.node
}

func (e *Element) TagName() string {
	return e.node.Data
}

// GetAttribute returns the value of the named attribute and whether it is set.
func (e *Element) GetAttribute(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

func (e *Element) HasAttribute(name string) bool {
	_, ok := e.GetAttribute(name)
	return ok
}

// SetAttribute sets or adds the named attribute.
func (e *Element) SetAttribute(name, value string) {
	for i, a := range e.node.Attr {
		if strings.EqualFold(a.Key, name) {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

// InnerText returns the concatenated text of every descendant text node with
// character references decoded.
func (e *Element) InnerText() string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
			walk(c)
		}
	}
	walk(e.node)
	return html.UnescapeString(b.String())
}

// InnerHTML serializes the children of the element.
func (e *Element) InnerHTML() string {
	var b strings.Builder
	renderChildren(&b, e.node)
	return b.String()
}

// ChildNodes returns the direct children of the element.
func (e *Element) ChildNodes() []*html.Node {
	return childNodes(e.node)
}

// DetachChildren removes and returns the direct children of the element.
func (e *Element) DetachChildren() []*html.Node {
	nodes := childNodes(e.node)
	for _, n := range nodes {
		e.node.RemoveChild(n)
	}
	return nodes
}
