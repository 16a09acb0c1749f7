package transform

// Kind identifies the variant of an interactive node.
type Kind string

const (
	KindPassthrough        Kind = "passthrough"
	KindText               Kind = "text"
	KindFragment           Kind = "fragment"
	KindHiddenLink         Kind = "hiddenLink"
	KindLineBreak          Kind = "lineBreak"
	KindDropped            Kind = "dropped"
	KindPosition           Kind = "position"
	KindSameGuideStepLink  Kind = "sameGuideStepLink"
	KindCrossGuideStepLink Kind = "crossGuideStepLink"
	KindResourceTag        Kind = "resourceTag"
	KindQuestStatusBlock   Kind = "questStatusBlock"
	KindImage              Kind = "image"
	KindExternalAnchor     Kind = "externalAnchor"
	KindFlattenedParagraph Kind = "flattenedParagraph"
	KindCheckbox           Kind = "checkbox"
)

// Node is one node of the interactive document tree.
//
// Exactly one payload pointer is set for the kinds that carry one; the
// others leave every payload nil.
type Node struct {
	Kind     Kind              `json:"kind"`
	Tag      string            `json:"tag,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	Disabled bool              `json:"disabled,omitempty"`
	Children []*Node           `json:"children,omitempty"`

	Position *Position    `json:"position,omitempty"`
	StepLink *StepLink    `json:"stepLink,omitempty"`
	Resource *Resource    `json:"resource,omitempty"`
	Quest    *QuestStatus `json:"quest,omitempty"`
	Image    *Image       `json:"image,omitempty"`
	Anchor   *Anchor      `json:"anchor,omitempty"`
	Checkbox *Checkbox    `json:"checkbox,omitempty"`
}

// Position is an in-game map coordinate found in plain text.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	// Copy is the text placed on the clipboard when the token is activated.
	Copy string `json:"copy"`
}

// StepLink targets a step of a guide. TargetStep is 0-based.
type StepLink struct {
	TargetGuideID  int  `json:"targetGuideId"`
	TargetStep     int  `json:"targetStep"`
	NeedsDownload  bool `json:"needsDownload,omitempty"`
	DownloadFailed bool `json:"downloadFailed,omitempty"`
	ShowIcon       bool `json:"showIcon"`
}

// ResourceKind is the kind of game entity referenced by a resource tag.
type ResourceKind string

const (
	ResourceMonster     ResourceKind = "monster"
	ResourceQuest       ResourceKind = "quest"
	ResourceItem        ResourceKind = "item"
	ResourceDungeon     ResourceKind = "dungeon"
	ResourceForeignItem ResourceKind = "foreignItem"
)

// Resource is an inline reference to a game entity.
//
// Children of the owning node hold the rendered icon region; Name is the
// trailing label.
type Resource struct {
	Kind       ResourceKind `json:"kind"`
	Name       string       `json:"name"`
	ExternalID string       `json:"externalId,omitempty"`
	// DatabaseURL is opened with the platform open-database modifier. Empty
	// when no database entry can be built.
	DatabaseURL string `json:"databaseUrl,omitempty"`
	// MappedURL is opened with the Alt modifier. Empty when no mapping exists.
	MappedURL string `json:"mappedUrl,omitempty"`
	// OpenModifier is the modifier that opens DatabaseURL on this platform.
	OpenModifier Modifier `json:"openModifier"`
	Hint         string   `json:"hint"`
}

// QuestState is the status of a quest block.
type QuestState string

const (
	QuestSetup      QuestState = "setup"
	QuestStart      QuestState = "start"
	QuestInProgress QuestState = "inProgress"
	QuestEnd        QuestState = "end"
)

// QuestStatus annotates a block of content with a quest and its status.
type QuestStatus struct {
	QuestName string     `json:"questName"`
	Status    QuestState `json:"status,omitempty"`
	Indicator string     `json:"indicator,omitempty"`
	IconURL   string     `json:"iconUrl"`
}

// Image is an image reference. Icons render inline and are never clickable.
type Image struct {
	Src       string `json:"src"`
	Alt       string `json:"alt,omitempty"`
	Title     string `json:"title,omitempty"`
	Icon      bool   `json:"icon"`
	Clickable bool   `json:"clickable"`
}

// Anchor is a trusted link. External anchors open in the system browser;
// non-http anchors keep the link styling but do nothing on activation.
type Anchor struct {
	Href     string `json:"href"`
	External bool   `json:"external"`
}

// Checkbox is a checklist control persisted by its document-order index.
type Checkbox struct {
	Index   int  `json:"index"`
	Checked bool `json:"checked"`
	// Persistent is false when the document is not bound to a guide step;
	// such checkboxes cannot be toggled.
	Persistent bool `json:"persistent"`
	GuideID    int  `json:"guideId,omitempty"`
	StepIndex  int  `json:"stepIndex,omitempty"`
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Interactive reports whether the node reacts to activation. Disabled nodes
// and checkboxes outside a guide step do not.
func (n *Node) Interactive() bool {
	if n.Disabled {
		return false
	}
	switch n.Kind {
	case KindPosition, KindSameGuideStepLink, KindCrossGuideStepLink, KindResourceTag:
		return true
	case KindCheckbox:
		return n.Checkbox != nil && n.Checkbox.Persistent
	case KindImage:
		return n.Image != nil && n.Image.Clickable
	case KindExternalAnchor:
		return n.Anchor != nil && n.Anchor.External
	default:
		return false
	}
}

// InteractiveNodes lists the nodes of a tree that react to activation, in
// document order.
func InteractiveNodes(root *Node) []*Node {
	var out []*Node
	root.Walk(func(n *Node) bool {
		if n.Interactive() {
			out = append(out, n)
		}
		return true
	})
	return out
}
