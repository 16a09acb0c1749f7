package transform

import (
	"fmt"
	"maps"
	"net/url"
	"strings"

	"github.com/ganymede-app/guidemark/markup"
)

func parseResourceKind(raw string) (ResourceKind, bool) {
	switch raw {
	case "monster":
		return ResourceMonster, true
	case "quest":
		return ResourceQuest, true
	case "item":
		return ResourceItem, true
	case "dungeon":
		return ResourceDungeon, true
	case "foreign-game-item", "wakfu-item":
		return ResourceForeignItem, true
	default:
		return "", false
	}
}

// databaseSegment is the path segment of a kind on the database site.
func databaseSegment(kind ResourceKind) string {
	if kind == ResourceItem {
		return "object"
	}
	return string(kind)
}

// mappable reports whether the kind may have an alternate database entry.
func mappable(kind ResourceKind) bool {
	return kind == ResourceItem || kind == ResourceQuest || kind == ResourceDungeon
}

// convertResourceTag renders a custom tag referencing a game entity. Only
// the first child is rendered, as the icon region; the name becomes the
// trailing label.
func (s *state) convertResourceTag(n *markup.Node, _ int) (*Node, bool) {
	if dataType(n) != dataTypeCustomTag {
		return nil, false
	}
	rawKind := n.AttrOr("type", "")
	kind, ok := parseResourceKind(rawKind)
	if !ok {
		s.addWarning(WarningUnknownValue, dataTypeCustomTag, fmt.Sprintf("unknown resource type %q", rawKind))
		return nil, false
	}

	res := &Resource{
		Kind:         kind,
		Name:         n.AttrOr("name", ""),
		OpenModifier: s.ctx.Platform.OpenModifier(),
	}

	if kind == ResourceForeignItem {
		res.ExternalID = n.AttrOr("wakfuid", "")
		if res.ExternalID != "" {
			res.DatabaseURL = fmt.Sprintf("%s/items/%s", s.config.ForeignDatabaseBaseURL, url.PathEscape(res.ExternalID))
		}
	} else {
		res.ExternalID = n.AttrOr("dofusdbid", "")
		res.DatabaseURL = s.databaseURL(kind, res.ExternalID)
		if mappable(kind) {
			res.MappedURL, _ = s.ctx.mappedURL(kind, res.ExternalID)
		}
	}
	if res.ExternalID == "" {
		s.addWarning(WarningMissingAttribute, dataTypeCustomTag, fmt.Sprintf("%s %q has no external id", kind, res.Name))
	}
	res.Hint = s.resourceHint(res)

	attrs := maps.Clone(n.Attrs)
	delete(attrs, "class")

	out := &Node{
		Kind:     KindResourceTag,
		Tag:      n.Tag,
		Attrs:    attrs,
		Disabled: s.ctx.Disabled,
		Resource: res,
	}
	if len(n.Children) > 0 {
		out.Children = s.transformSubset(n.Children[0])
	}
	return out, true
}

// databaseURL builds the default database entry using the language of the
// current guide. It is empty when the current guide is unknown.
func (s *state) databaseURL(kind ResourceKind, externalID string) string {
	if externalID == "" || s.ctx.CurrentGuideID == nil {
		return ""
	}
	guide, ok := s.ctx.lookupGuide(*s.ctx.CurrentGuideID)
	if !ok || guide.Lang == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/database/%s/%s",
		s.config.DatabaseBaseURL,
		strings.ToLower(guide.Lang),
		databaseSegment(kind),
		url.PathEscape(externalID),
	)
}

var resourceNouns = map[ResourceKind]string{
	ResourceMonster:     "monster",
	ResourceQuest:       "quest",
	ResourceItem:        "item",
	ResourceDungeon:     "dungeon",
	ResourceForeignItem: "item",
}

func (s *state) resourceHint(res *Resource) string {
	key := "Ctrl"
	if res.OpenModifier == ModMeta {
		key = "⌘"
	}

	site := siteName(s.config.DatabaseBaseURL)
	if res.Kind == ResourceForeignItem {
		site = siteName(s.config.ForeignDatabaseBaseURL)
	}

	hint := fmt.Sprintf("Click to copy the %s name. %s+click to open on %s", resourceNouns[res.Kind], key, site)
	if res.MappedURL != "" {
		alt := "Alt"
		if res.OpenModifier == ModMeta {
			alt = "⌥"
		}
		hint += fmt.Sprintf(". %s+click to open on %s", alt, siteName(res.MappedURL))
	}
	return hint
}

func siteName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	host = strings.TrimPrefix(host, "db.")
	if i := strings.LastIndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	return host
}
