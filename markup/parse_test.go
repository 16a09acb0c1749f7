package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFragment(t *testing.T) {
	root, err := Parse(`<p>Hello <strong>world</strong></p><p></p>`)
	require.NoError(t, err)

	assert.Equal(t, DocumentNode, root.Type)
	require.Len(t, root.Children, 2)

	first := root.Children[0]
	assert.True(t, first.IsElement("p"))
	assert.Same(t, root, first.Parent)
	assert.Same(t, root.Children[1], first.Next)
	assert.Nil(t, root.Children[1].Next)

	require.Len(t, first.Children, 2)
	assert.Equal(t, TextNode, first.Children[0].Type)
	assert.Equal(t, "Hello ", first.Children[0].Text)
	assert.Equal(t, "Hello world", first.TextContent())

	assert.Empty(t, root.Children[1].Children)
}

func TestParseLowercasesAttributes(t *testing.T) {
	root := MustParse(`<span data-type="guide-step" guideId="12" stepNumber="3" class="a  b">go</span>`)
	require.Len(t, root.Children, 1)

	span := root.Children[0]
	v, ok := span.Attr("guideid")
	assert.True(t, ok)
	assert.Equal(t, "12", v)
	assert.Equal(t, "3", span.AttrOr("stepnumber", ""))
	assert.Equal(t, "fallback", span.AttrOr("stepid", "fallback"))
	assert.True(t, span.HasClass("b"))
	assert.False(t, span.HasClass("c"))
}

func TestParseDropsComments(t *testing.T) {
	root := MustParse(`a<!-- hidden -->b`)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "a", root.Children[0].Text)
	assert.Equal(t, "b", root.Children[1].Text)
	assert.Same(t, root.Children[1], root.Children[0].Next)
}

func TestParseTaskItemNesting(t *testing.T) {
	root := MustParse(`<ul data-type="taskList"><li data-type="taskItem"><label><input type="checkbox"></label><div><p>Kill the boss</p></div></li></ul>`)

	li := root.Children[0].Children[0]
	assert.True(t, li.IsElement("li"))
	div := li.Children[1]
	p := div.Children[0]
	assert.True(t, p.IsElement("p"))
	assert.Same(t, div, p.Parent)
	assert.Same(t, li, p.Parent.Parent)
	assert.Equal(t, "checkbox", li.Children[0].Children[0].AttrOr("type", ""))
}

func TestSetChildrenRelinks(t *testing.T) {
	a, b := NewText("a"), NewText("b")
	p := NewElement("P", nil, a, b)

	assert.Equal(t, "p", p.Tag)
	assert.Same(t, p, a.Parent)
	assert.Same(t, b, a.Next)

	p.SetChildren([]*Node{b})
	assert.Nil(t, b.Next)
}

func TestParseMarkdownTaskList(t *testing.T) {
	root, err := ParseMarkdown("- [x] done\n- [ ] todo\n\nSee <span data-type=\"custom-tag\" type=\"quest\" name=\"Q\">q</span>\n")
	require.NoError(t, err)

	var inputs []*Node
	var walk func(*Node)
	walk = func(n *Node) {
		if n.IsElement("input") {
			inputs = append(inputs, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)

	require.Len(t, inputs, 2)
	_, checked := inputs[0].Attr("checked")
	assert.True(t, checked)
	assert.Equal(t, "checkbox", inputs[1].AttrOr("type", ""))
	assert.Contains(t, root.TextContent(), "See q")
}
