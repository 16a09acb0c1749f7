package transform

// Modifier is a keyboard modifier held during activation.
type Modifier string

const (
	ModNone Modifier = ""
	ModCtrl Modifier = "ctrl"
	ModMeta Modifier = "meta"
	ModAlt  Modifier = "alt"
)

// Event describes how a node was activated.
type Event struct {
	Ctrl bool
	Meta bool
	Alt  bool
}

// Held reports whether modifier m is held.
func (e Event) Held(m Modifier) bool {
	switch m {
	case ModCtrl:
		return e.Ctrl
	case ModMeta:
		return e.Meta
	case ModAlt:
		return e.Alt
	default:
		return false
	}
}

// IntentKind identifies a side effect requested by an activated node.
type IntentKind string

const (
	IntentCopyToClipboard IntentKind = "copyToClipboard"
	IntentOpenExternalURL IntentKind = "openExternalUrl"
	IntentOpenImageViewer IntentKind = "openImageViewer"
	IntentNavigate        IntentKind = "navigateToGuideStep"
	IntentDownloadGuide   IntentKind = "requestGuideDownload"
	IntentToggleCheckbox  IntentKind = "toggleCheckbox"
)

// Intent is a command for an external collaborator. Only the fields relevant
// to Kind are set.
type Intent struct {
	Kind          IntentKind `json:"kind"`
	Text          string     `json:"text,omitempty"`
	URL           string     `json:"url,omitempty"`
	Title         string     `json:"title,omitempty"`
	GuideID       int        `json:"guideId,omitempty"`
	Step          int        `json:"step,omitempty"`
	StepIndex     int        `json:"stepIndex,omitempty"`
	CheckboxIndex int        `json:"checkboxIndex,omitempty"`
}

// Activate returns the intents produced by activating n, in execution
// order. A later intent must only run once the previous ones succeeded.
// Disabled and inert nodes produce none.
func Activate(n *Node, ev Event) []Intent {
	if n == nil || n.Disabled {
		return nil
	}

	switch n.Kind {
	case KindPosition:
		return []Intent{{Kind: IntentCopyToClipboard, Text: n.Position.Copy}}

	case KindSameGuideStepLink:
		return []Intent{navigate(n.StepLink)}

	case KindCrossGuideStepLink:
		if n.StepLink.NeedsDownload {
			return []Intent{
				{Kind: IntentDownloadGuide, GuideID: n.StepLink.TargetGuideID},
				navigate(n.StepLink),
			}
		}
		return []Intent{navigate(n.StepLink)}

	case KindResourceTag:
		return activateResource(n.Resource, ev)

	case KindImage:
		if !n.Image.Clickable {
			return nil
		}
		title := n.Image.Alt
		if title == "" {
			title = n.Image.Title
		}
		return []Intent{{Kind: IntentOpenImageViewer, URL: n.Image.Src, Title: title}}

	case KindExternalAnchor:
		if !n.Anchor.External {
			return nil
		}
		return []Intent{{Kind: IntentOpenExternalURL, URL: n.Anchor.Href}}

	case KindCheckbox:
		cb := n.Checkbox
		if !cb.Persistent {
			return nil
		}
		return []Intent{{
			Kind:          IntentToggleCheckbox,
			GuideID:       cb.GuideID,
			StepIndex:     cb.StepIndex,
			CheckboxIndex: cb.Index,
		}}

	default:
		return nil
	}
}

func navigate(link *StepLink) Intent {
	return Intent{Kind: IntentNavigate, GuideID: link.TargetGuideID, Step: link.TargetStep}
}

// activateResource applies the modifier semantics of resource tags: Alt opens
// the mapped entry when one exists, the platform open modifier opens the
// database entry, anything else copies the name.
func activateResource(res *Resource, ev Event) []Intent {
	if ev.Alt && mappable(res.Kind) {
		if res.MappedURL == "" {
			return nil
		}
		return []Intent{{Kind: IntentOpenExternalURL, URL: res.MappedURL}}
	}
	if ev.Held(res.OpenModifier) && res.DatabaseURL != "" {
		return []Intent{{Kind: IntentOpenExternalURL, URL: res.DatabaseURL}}
	}
	return []Intent{{Kind: IntentCopyToClipboard, Text: res.Name}}
}
