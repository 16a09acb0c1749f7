package transform

import "github.com/ganymede-app/guidemark/markup"

// CheckboxCounter allocates checkbox indices in document order. One counter
// belongs to exactly one transform pass.
type CheckboxCounter struct {
	next int
}

// Next returns the index for the next checkbox and advances the counter.
func (c *CheckboxCounter) Next() int {
	index := c.next
	c.next++
	return index
}

// Count returns how many indices were allocated.
func (c *CheckboxCounter) Count() int {
	return c.next
}

func isCheckbox(n *markup.Node) bool {
	return n.IsElement("input") && n.AttrOr("type", "") == "checkbox"
}

// convertCheckbox allocates the next index and resolves the checked state
// against the persisted indices of the bound guide step.
func (s *state) convertCheckbox(n *markup.Node, _ int) (*Node, bool) {
	if !isCheckbox(n) {
		return nil, false
	}

	index := s.checkboxes.Next()
	cb := &Checkbox{Index: index}
	if guideID, stepIndex, ok := s.ctx.boundStep(); ok {
		cb.Persistent = true
		cb.GuideID = guideID
		cb.StepIndex = stepIndex
		cb.Checked = s.ctx.CheckedIndices[index]
	}

	return &Node{
		Kind:     KindCheckbox,
		Disabled: s.ctx.Disabled,
		Checkbox: cb,
	}, true
}
