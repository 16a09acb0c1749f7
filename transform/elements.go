package transform

import (
	"fmt"
	"maps"

	"github.com/ganymede-app/guidemark/markup"
)

var questIndicators = map[QuestState]string{
	QuestSetup: "orange",
	QuestStart: "red",
	QuestEnd:   "green",
}

func parseQuestState(raw string) (QuestState, bool) {
	switch raw {
	case "setup":
		return QuestSetup, true
	case "start":
		return QuestStart, true
	case "in_progress", "inProgress":
		return QuestInProgress, true
	case "end":
		return QuestEnd, true
	default:
		return "", false
	}
}

func (s *state) convertQuestBlock(n *markup.Node, _ int) (*Node, bool) {
	if dataType(n) != dataTypeQuestBlock {
		return nil, false
	}

	questName, ok := n.Attr("questname")
	if !ok {
		s.addWarning(WarningMissingAttribute, dataTypeQuestBlock, "quest block without questname")
	}

	rawStatus := n.AttrOr("status", "")
	status, known := parseQuestState(rawStatus)
	if !known {
		s.addWarning(WarningUnknownValue, dataTypeQuestBlock, fmt.Sprintf("unknown quest status %q", rawStatus))
	}

	return &Node{
		Kind: KindQuestStatusBlock,
		Quest: &QuestStatus{
			QuestName: questName,
			Status:    status,
			Indicator: questIndicators[status],
			IconURL:   s.config.QuestIconURL,
		},
		Children: s.transformChildren(n.Children),
	}, true
}

// convertImage classifies images as inline icons or viewable pictures.
// Only sized pictures with an absolute http(s) source open the viewer.
func (s *state) convertImage(n *markup.Node, _ int) (*Node, bool) {
	if !n.IsElement("img") {
		return nil, false
	}

	img := &Image{
		Src:   n.AttrOr("src", ""),
		Alt:   n.AttrOr("alt", ""),
		Title: n.AttrOr("title", ""),
		Icon:  true,
	}
	for _, class := range s.config.ImageSizeClasses {
		if n.HasClass(class) {
			img.Icon = false
			break
		}
	}
	img.Clickable = !img.Icon && isHTTPLink(img.Src)

	attrs := maps.Clone(n.Attrs)
	return &Node{
		Kind:     KindImage,
		Tag:      "img",
		Attrs:    attrs,
		Disabled: s.ctx.Disabled,
		Image:    img,
	}, true
}

// flattenTaskItemParagraph renders the paragraph of a checklist item inline
// so it stays on the same line as its checkbox.
func (s *state) flattenTaskItemParagraph(n *markup.Node, _ int) (*Node, bool) {
	if !n.IsElement("p") {
		return nil, false
	}
	div := n.Parent
	if !div.IsElement("div") {
		return nil, false
	}
	li := div.Parent
	if !li.IsElement("li") || dataType(li) != dataTypeTaskItem {
		return nil, false
	}

	return &Node{
		Kind:     KindFlattenedParagraph,
		Children: s.transformChildren(n.Children),
	}, true
}
