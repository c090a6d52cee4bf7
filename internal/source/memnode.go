package source

import "strings"

// MemNode is an in-memory Node. Tests build transcript shapes with it, and
// the watch command uses it to present plain-text transcript lines as an
// observable tree.
type MemNode struct {
	tag      string
	attrs    map[string]string
	text     string
	parent   *MemNode
	children []*MemNode
}

// NewMemNode creates an element node with the given tag.
func NewMemNode(tag string) *MemNode {
	return &MemNode{tag: tag, attrs: make(map[string]string)}
}

// WithAttr sets an attribute and returns the node for chaining.
func (n *MemNode) WithAttr(name, value string) *MemNode {
	n.attrs[name] = value
	return n
}

// WithText sets the node's own text and returns the node for chaining.
func (n *MemNode) WithText(text string) *MemNode {
	n.text = text
	return n
}

// Append attaches children and returns the parent for chaining.
func (n *MemNode) Append(children ...*MemNode) *MemNode {
	for _, c := range children {
		c.parent = n
		n.children = append(n.children, c)
	}
	return n
}

func (n *MemNode) Tag() string { return n.tag }

func (n *MemNode) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

func (n *MemNode) SetAttr(name, value string) {
	n.attrs[name] = value
}

// Text joins the node's own text with its descendants' in document order.
func (n *MemNode) Text() string {
	var parts []string
	n.collectText(&parts)
	return strings.Join(parts, " ")
}

func (n *MemNode) collectText(parts *[]string) {
	if n.text != "" {
		*parts = append(*parts, n.text)
	}
	for _, c := range n.children {
		c.collectText(parts)
	}
}

func (n *MemNode) Parent() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *MemNode) Children() []Node {
	out := make([]Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}
