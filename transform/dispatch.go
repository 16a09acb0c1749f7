package transform

import (
	"github.com/ganymede-app/guidemark/markup"
)

const (
	dataTypeAttr = "data-type"

	dataTypeGuideStep  = "guide-step"
	dataTypeCustomTag  = "custom-tag"
	dataTypeQuestBlock = "quest-block"
	dataTypeTaskItem   = "taskItem"
)

// ruleFunc is one entry of the custom tag table. It returns false when the
// rule does not match, letting the next rule try.
type ruleFunc func(n *markup.Node, run int) (*Node, bool)

// dispatch returns the specialized node for an element, or false when the
// element should be rendered as passthrough. Rules are evaluated in order and
// the first match wins.
func (s *state) dispatch(n *markup.Node, run int) (*Node, bool) {
	rules := [...]ruleFunc{
		s.collapseEmptyParagraph,
		s.convertGuideStep,
		s.convertResourceTag,
		s.convertQuestBlock,
		s.convertImage,
		s.convertAnchor,
		s.flattenTaskItemParagraph,
		s.convertCheckbox,
	}
	for _, apply := range rules {
		if out, ok := apply(n, run); ok {
			return out, true
		}
	}
	return nil, false
}

func dataType(n *markup.Node) string {
	return n.AttrOr(dataTypeAttr, "")
}
