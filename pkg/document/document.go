package document

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// ErrDetached is returned when mutating around a node that has no parent.
var ErrDetached = errors.New("document: node is not attached to a tree")

// Config controls how markup is turned into a tree.
type Config struct {
	// TrimWhitespace trims every text node and drops the ones left empty.
	TrimWhitespace bool `json:"trim_whitespace"`
}

// Document is a parsed markup tree plus the compile state the Runesmith
// pipeline attaches to it.
type Document struct {
	// Namespace holds the key/value pairs visible to var and import.
	Namespace Namespace
	// FileStack is the chain of files being compiled, outermost first,
	// ending with the file this document came from.
	FileStack []string
	// CurrentDir is the directory relative imports are resolved against.
	CurrentDir string

	root   *html.Node
	config Config
}

// New returns an empty document.
func New(cfg Config) *Document {
	return &Document{
		Namespace: Namespace{},
		root:      &html.Node{Type: html.DocumentNode},
		config:    cfg,
	}
}

// Parse builds a Document from markup. Elements nest as written: void elements
// and self-closing tags get no children, an end tag closes the nearest open
// element of the same name (and everything opened after it), and an end tag
// with no open counterpart is dropped. Only script, style and plaintext
// content is read as raw text; title, textarea and the other elements HTML
// treats as raw text are parsed as markup so directives inside them work.
func Parse(markup string, cfg Config) (*Document, error) {
	doc := New(cfg)
	z := html.NewTokenizer(strings.NewReader(markup))
	stack := []*html.Node{doc.root}

	for {
		tt := z.Next()
		top := stack[len(stack)-1]

		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return doc, nil
			}
			return nil, fmt.Errorf("document: tokenizing markup: %w", z.Err())

		case html.TextToken:
			text := string(z.Raw())
			if cfg.TrimWhitespace {
				text = strings.TrimSpace(text)
				if text == "" {
					continue
				}
			}
			top.AppendChild(&html.Node{Type: html.TextNode, Data: text})

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			n := &html.Node{
				Type:     html.ElementNode,
				Data:     tok.Data,
				DataAtom: tok.DataAtom,
				Attr:     tok.Attr,
			}
			top.AppendChild(n)
			if !isRawText(tok.Data) {
				z.NextIsNotRawText()
			}
			if tt == html.StartTagToken && !isVoid(tok.Data) {
				stack = append(stack, n)
			}

		case html.EndTagToken:
			tok := z.Token()
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].Data == tok.Data {
					stack = stack[:i]
					break
				}
			}

		case html.CommentToken:
			top.AppendChild(&html.Node{Type: html.CommentNode, Data: z.Token().Data})

		case html.DoctypeToken:
			top.AppendChild(&html.Node{Type: html.DoctypeNode, Data: z.Token().Data})
		}
	}
}

// Config returns the configuration the document was parsed with.
func (d *Document) Config() Config {
	return d.config
}

// Root returns the document node every top-level node hangs off.
func (d *Document) Root() *html.Node {
	return d.root
}

// GetElementsByTagName returns the elements named tag in document order. The
// result is a snapshot: it is not updated as the tree changes, so callers that
// mutate the tree should query again. "*" matches every element.
func (d *Document) GetElementsByTagName(tag string) []*Element {
	tag = strings.ToLower(strings.TrimSpace(tag))
	var out []*Element
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (tag == "*" || strings.EqualFold(c.Data, tag)) {
				out = append(out, &Element{node: c})
			}
			walk(c)
		}
	}
	walk(d.root)
	return out
}

// CreateTextNode returns a detached text node. The text is written out
// verbatim when the document is stringified.
func (d *Document) CreateTextNode(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// ReplaceChild puts nodes where old currently sits and detaches old. Nodes
// still attached elsewhere (including old's own children) are moved.
func (d *Document) ReplaceChild(old *Element, nodes ...*html.Node) error {
	parent := old.node.Parent
	if parent == nil {
		return ErrDetached
	}
	for _, n := range nodes {
		if n == old.node {
			continue
		}
		detach(n)
		parent.InsertBefore(n, old.node)
	}
	parent.RemoveChild(old.node)
	return nil
}

// RemoveChild detaches el from the tree.
func (d *Document) RemoveChild(el *Element) error {
	if el.node.Parent == nil {
		return ErrDetached
	}
	el.node.Parent.RemoveChild(el.node)
	return nil
}

// AppendChild adds n at the end of the document.
func (d *Document) AppendChild(n *html.Node) {
	detach(n)
	d.root.AppendChild(n)
}

// ChildNodes returns the top-level nodes of the document.
func (d *Document) ChildNodes() []*html.Node {
	return childNodes(d.root)
}

// DetachChildren removes and returns the top-level nodes of the document,
// ready to be grafted into another tree.
func (d *Document) DetachChildren() []*html.Node {
	nodes := childNodes(d.root)
	for _, n := range nodes {
		d.root.RemoveChild(n)
	}
	return nodes
}

// Stringify serializes the document back to markup.
func (d *Document) Stringify() string {
	var b strings.Builder
	renderChildren(&b, d.root)
	return b.String()
}

// CloneNode returns a deep copy of n with no parent or siblings.
func CloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      slices.Clone(n.Attr),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(CloneNode(child))
	}
	return c
}

func childNodes(n *html.Node) []*html.Node {
	var nodes []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		nodes = append(nodes, c)
	}
	return nodes
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}
