package markup

import "strings"

// NodeType distinguishes the variants of a markup tree node.
type NodeType uint8

const (
	// DocumentNode is the tagless root of a parsed fragment.
	DocumentNode NodeType = iota
	// ElementNode is a tag with attributes and children.
	ElementNode
	// TextNode holds a run of character data.
	TextNode
)

func (t NodeType) String() string {
	switch t {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	default:
		return "unknown"
	}
}

// Node represents any node in a parsed guide step (document, element or text).
//
// Parent and Next are back-references set by the parser; they are never
// followed to mutate the tree.
type Node struct {
	Type     NodeType
	Tag      string            // lower-cased tag name for elements
	Text     string            // value for text nodes
	Attrs    map[string]string // lower-cased attribute names
	Children []*Node

	Parent *Node
	Next   *Node
}

// Attr returns the attribute value and whether it is present.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil || n.Attrs == nil {
		return "", false
	}
	v, ok := n.Attrs[name]
	return v, ok
}

// AttrOr returns the attribute value or fallback when the attribute is absent.
func (n *Node) AttrOr(name, fallback string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return fallback
}

// IsElement reports whether n is an element with the given tag.
func (n *Node) IsElement(tag string) bool {
	return n != nil && n.Type == ElementNode && n.Tag == tag
}

// HasClass reports whether the class attribute contains the given class token.
func (n *Node) HasClass(class string) bool {
	classes, ok := n.Attr("class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(classes) {
		if c == class {
			return true
		}
	}
	return false
}

// TextContent concatenates all descendant text.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	if n.Type == TextNode {
		return n.Text
	}
	var sb strings.Builder
	for _, child := range n.Children {
		sb.WriteString(child.TextContent())
	}
	return sb.String()
}

// NewElement builds a detached element and links its children.
func NewElement(tag string, attrs map[string]string, children ...*Node) *Node {
	n := &Node{Type: ElementNode, Tag: strings.ToLower(tag), Attrs: attrs}
	n.SetChildren(children)
	return n
}

// NewText builds a detached text node.
func NewText(text string) *Node {
	return &Node{Type: TextNode, Text: text}
}

// NewDocument builds a document root over the given children.
func NewDocument(children ...*Node) *Node {
	n := &Node{Type: DocumentNode}
	n.SetChildren(children)
	return n
}

// SetChildren replaces the children of n and rewires Parent and Next links.
func (n *Node) SetChildren(children []*Node) {
	n.Children = children
	for i, child := range children {
		child.Parent = n
		child.Next = nil
		if i+1 < len(children) {
			child.Next = children[i+1]
		}
	}
}
