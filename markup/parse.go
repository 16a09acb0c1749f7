package markup

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse turns step markup into a Node tree rooted at a DocumentNode.
//
// The markup is parsed as a body fragment: surrounding html/head/body
// elements are not synthesized, comments and doctypes are discarded.
func Parse(source string) (*Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

	nodes, err := html.ParseFragment(strings.NewReader(source), context)
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	return NewDocument(convertSlice(nodes)...), nil
}

// MustParse is like Parse but panics on error. Intended for tests and fixtures.
func MustParse(source string) *Node {
	n, err := Parse(source)
	if err != nil {
		panic(err)
	}
	return n
}

func convertSlice(nodes []*html.Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, hn := range nodes {
		if n := convert(hn); n != nil {
			out = append(out, n)
		}
	}
	return out
}

func convert(hn *html.Node) *Node {
	switch hn.Type {
	case html.TextNode:
		return NewText(hn.Data)

	case html.ElementNode:
		var attrs map[string]string
		if len(hn.Attr) > 0 {
			attrs = make(map[string]string, len(hn.Attr))
			for _, a := range hn.Attr {
				// first occurrence wins, as in the browser DOM
				if _, seen := attrs[a.Key]; !seen {
					attrs[a.Key] = a.Val
				}
			}
		}

		var children []*html.Node
		for c := hn.FirstChild; c != nil; c = c.NextSibling {
			children = append(children, c)
		}
		return NewElement(hn.Data, attrs, convertSlice(children)...)

	case html.DocumentNode:
		var children []*html.Node
		for c := hn.FirstChild; c != nil; c = c.NextSibling {
			children = append(children, c)
		}
		return NewDocument(convertSlice(children)...)

	default:
		return nil
	}
}
