// Package svgdoc provides a read-only tree view of SVG documents.
//
// Documents are parsed once with encoding/xml into a tree of Node values.
// Consumers treat the tree as immutable: transforms such as glyph isolation
// build new trees with the constructors in this package instead of editing
// nodes in place.
//
// # Text Model
//
// Character data is stored the way SVG text layout consumes it:
//   - Node.Text is the character data before the node's first child element
//   - Node.Tail is the character data after the node's end tag, up to the
//     parent's next child element or end tag
//
// So <text>HO<tspan>H</tspan>2</text> yields text.Text="HO",
// tspan.Text="H" and tspan.Tail="2".
package svgdoc

import "strings"

// XMLNamespace is the namespace bound to the reserved xml: prefix.
const XMLNamespace = "http://www.w3.org/XML/1998/namespace"

// SVGNamespace is the default namespace of SVG documents.
const SVGNamespace = "http://www.w3.org/2000/svg"

// Attr is a single attribute. Space is empty for unprefixed attributes.
type Attr struct {
	Space string
	Name  string
	Value string
}

// Node is one element of the tree.
type Node struct {
	Name     string
	Attrs    []Attr
	Text     string
	Children []*Node
	Tail     string
}

// Document is a parsed SVG document.
type Document struct {
	Root *Node
}

// Attr returns the value of the unprefixed attribute name.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Space == "" && a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or def when it is absent.
func (n *Node) AttrOr(name, def string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return def
}

// Walk visits n and its descendants in document order (pre-order).
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns all descendants of n (excluding n) with the given local name,
// in document order.
func (n *Node) Find(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		c.Walk(func(m *Node) bool {
			if m.Name == name {
				out = append(out, m)
			}
			return true
		})
	}
	return out
}

// TextContent concatenates all character data inside n, excluding n's own tail.
func (n *Node) TextContent() string {
	var b strings.Builder
	var walk func(m *Node)
	walk = func(m *Node) {
		b.WriteString(m.Text)
		for _, c := range m.Children {
			walk(c)
			b.WriteString(c.Tail)
		}
	}
	walk(n)
	return b.String()
}

// TextElements returns every text element of the document in document order.
func (d *Document) TextElements() []*Node {
	if d == nil || d.Root == nil {
		return nil
	}
	if d.Root.Name == "text" {
		return []*Node{d.Root}
	}
	return d.Root.Find("text")
}

// NewElement builds a node with copied attributes.
func NewElement(name string, attrs []Attr, children ...*Node) *Node {
	cp := make([]Attr, len(attrs))
	copy(cp, attrs)
	return &Node{Name: name, Attrs: cp, Children: children}
}

// SetAttr returns a copy of attrs with name set to value, replacing an
// existing unprefixed attribute in place or appending a new one.
func SetAttr(attrs []Attr, name, value string) []Attr {
	out := make([]Attr, 0, len(attrs)+1)
	found := false
	for _, a := range attrs {
		if a.Space == "" && a.Name == name {
			if !found {
				out = append(out, Attr{Name: name, Value: value})
				found = true
			}
			continue
		}
		out = append(out, a)
	}
	if !found {
		out = append(out, Attr{Name: name, Value: value})
	}
	return out
}

// FilterAttrs returns a copy of attrs keeping only those for which keep is true.
func FilterAttrs(attrs []Attr, keep func(Attr) bool) []Attr {
	out := make([]Attr, 0, len(attrs))
	for _, a := range attrs {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
