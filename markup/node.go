package markup

import "strings"

type Kind int

const (
	DocumentNode Kind = iota
	ElementNode
	TextNode
)

type Attr struct {
	Key string
	Val string
}

// Node is one node of a parsed storage-format document. Element tags and
// attribute keys are lower-cased and keep their namespace prefix, e.g.
// "ac:structured-macro" or "ri:filename".
type Node struct {
	Kind     Kind
	Tag      string
	Attrs    []Attr
	Children []*Node
	Text     string
}

func (n *Node) IsElement(tag string) bool {
	return n != nil && n.Kind == ElementNode && n.Tag == tag
}

// Attr looks an attribute up by name.
func (n *Node) Attr(key string) (string, bool) {
	for _, attr := range n.Attrs {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value, or def when it is missing or empty.
func (n *Node) AttrOr(key, def string) string {
	if v, ok := n.Attr(key); ok && v != "" {
		return v
	}
	return def
}

// TextContent concatenates all text below n in document order.
func (n *Node) TextContent() string {
	if n.Kind == TextNode {
		return n.Text
	}
	var sb strings.Builder
	var walk func(*Node)
	walk = func(n *Node) {
		if n.Kind == TextNode {
			sb.WriteString(n.Text)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// Child returns the first direct child element with the given tag.
func (n *Node) Child(tag string) *Node {
	for _, c := range n.Children {
		if c.IsElement(tag) {
			return c
		}
	}
	return nil
}

// ChildElements returns the direct child elements matching any of tags.
func (n *Node) ChildElements(tags ...string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind != ElementNode {
			continue
		}
		for _, tag := range tags {
			if c.Tag == tag {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Find returns the first descendant element with the given tag, depth first.
func (n *Node) Find(tag string) *Node {
	for _, c := range n.Children {
		if c.IsElement(tag) {
			return c
		}
		if result := c.Find(tag); result != nil {
			return result
		}
	}
	return nil
}

// Parameter returns the text of the macro parameter with the given
// ac:name, looking at direct children only so nested macros do not leak in.
func (n *Node) Parameter(name string) (string, bool) {
	for _, c := range n.ChildElements("ac:parameter") {
		if v, _ := c.Attr("ac:name"); v == name {
			return c.TextContent(), true
		}
	}
	return "", false
}

// MacroName returns the ac:name of a structured macro, or "" for any other node.
func (n *Node) MacroName() string {
	if !n.IsElement("ac:structured-macro") && !n.IsElement("ac:macro") {
		return ""
	}
	name, _ := n.Attr("ac:name")
	return strings.ToLower(name)
}
