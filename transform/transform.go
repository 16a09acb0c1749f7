package transform

import (
	"maps"

	"github.com/ganymede-app/guidemark/markup"
)

// Transformer converts parsed guide markup into interactive document trees.
// A Transformer is immutable and safe for concurrent use; every call to
// Transform owns its own traversal state.
type Transformer struct {
	config Config
}

// state is the per-pass traversal state threaded through the recursion.
type state struct {
	config     Config
	ctx        *Context
	checkboxes *CheckboxCounter
	warnings   []Warning
}

// New creates a new Transformer with the given config.
func New(config Config) (*Transformer, error) {
	cfg := config.applyDefaults().clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Transformer{config: cfg}, nil
}

// Transform walks root depth-first and returns the interactive tree.
//
// Every input node maps to exactly one output node; nodes the engine chose
// not to render come back as KindDropped. The context is only read.
func (t *Transformer) Transform(root *markup.Node, ctx Context) Result {
	s := &state{
		config:     t.config,
		ctx:        &ctx,
		checkboxes: &CheckboxCounter{},
	}

	out := s.transformNode(root, emptyParagraphRun(root))

	return Result{
		Root:       out,
		Checkboxes: s.checkboxes.Count(),
		Warnings:   s.warnings,
	}
}

// TransformString parses source and transforms it.
func (t *Transformer) TransformString(source string, ctx Context) (Result, error) {
	root, err := markup.Parse(source)
	if err != nil {
		return Result{}, err
	}
	return t.Transform(root, ctx), nil
}

// transformNode converts a single node. run is the length of the empty
// paragraph run starting at n, precomputed by the caller.
func (s *state) transformNode(n *markup.Node, run int) *Node {
	if n == nil {
		return &Node{Kind: KindDropped}
	}

	switch n.Type {
	case markup.TextNode:
		return s.transformText(n)
	case markup.ElementNode:
		if out, ok := s.dispatch(n, run); ok {
			return out
		}
		return s.passthrough(n)
	default:
		return &Node{Kind: KindFragment, Children: s.transformChildren(n.Children)}
	}
}

// transformChildren converts an ordered list of siblings.
func (s *state) transformChildren(children []*markup.Node) []*Node {
	if len(children) == 0 {
		return nil
	}

	runs := emptyParagraphRuns(children)
	out := make([]*Node, len(children))
	for i, child := range children {
		out[i] = s.transformNode(child, runs[i])
	}
	return out
}

// transformSubset converts selected children of a node, resolving each
// child's empty paragraph run from its sibling chain.
func (s *state) transformSubset(children ...*markup.Node) []*Node {
	out := make([]*Node, 0, len(children))
	for _, child := range children {
		out = append(out, s.transformNode(child, emptyParagraphRun(child)))
	}
	return out
}

func (s *state) transformText(n *markup.Node) *Node {
	if hidden, ok := s.hideUntrustedText(n.Text); ok {
		return hidden
	}
	if out, ok := s.scanPositions(n.Text); ok {
		return out
	}
	return &Node{Kind: KindText, Text: n.Text}
}

func (s *state) passthrough(n *markup.Node) *Node {
	return &Node{
		Kind:     KindPassthrough,
		Tag:      n.Tag,
		Attrs:    maps.Clone(n.Attrs),
		Children: s.transformChildren(n.Children),
	}
}

func (s *state) addWarning(warnType WarningType, nodeType, message string) {
	s.warnings = append(s.warnings, Warning{
		Type:     warnType,
		NodeType: nodeType,
		Message:  message,
	})
}
