package transform

import "github.com/ganymede-app/guidemark/markup"

func isEmptyParagraph(n *markup.Node) bool {
	return n.IsElement("p") && len(n.Children) == 0
}

// emptyParagraphRun counts consecutive empty paragraphs starting at n by
// following the sibling chain. Any other sibling, whitespace text included,
// ends the run.
func emptyParagraphRun(n *markup.Node) int {
	count := 0
	for ; n != nil && isEmptyParagraph(n); n = n.Next {
		count++
	}
	return count
}

// emptyParagraphRuns computes emptyParagraphRun for every sibling in one
// backward pass.
func emptyParagraphRuns(siblings []*markup.Node) []int {
	runs := make([]int, len(siblings))
	for i := len(siblings) - 1; i >= 0; i-- {
		if !isEmptyParagraph(siblings[i]) {
			continue
		}
		runs[i] = 1
		if i+1 < len(siblings) {
			runs[i] += runs[i+1]
		}
	}
	return runs
}

// collapseEmptyParagraph renders a run of empty paragraphs as a single line
// break: every paragraph with more empty paragraphs after it is dropped and
// the last one of the run becomes the break.
func (s *state) collapseEmptyParagraph(n *markup.Node, run int) (*Node, bool) {
	if !isEmptyParagraph(n) {
		return nil, false
	}
	if run > 1 {
		return &Node{Kind: KindDropped}, true
	}
	return &Node{Kind: KindLineBreak}, true
}
