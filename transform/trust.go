package transform

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ganymede-app/guidemark/markup"
)

// Origin returns the scheme://host origin of an http(s) URL, lower-cased and
// without port. It returns false for anything else.
func Origin(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	return scheme + "://" + host, true
}

// IsTrusted reports whether the origin of rawURL belongs to the whitelist.
// Unparseable URLs are never trusted.
func IsTrusted(rawURL string, whitelist Whitelist) bool {
	origin, ok := Origin(rawURL)
	if !ok {
		return false
	}
	return whitelist.Contains(origin)
}

// isHTTPLink reports whether a link target uses the http(s) scheme. Only
// such links are subject to the whitelist.
func isHTTPLink(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(lower, "http:") || strings.HasPrefix(lower, "https:")
}

// looksLikeURL reports whether the whole text is a single http(s) URL.
func looksLikeURL(text string) bool {
	trimmed := strings.TrimSpace(text)
	if !isHTTPLink(trimmed) || strings.ContainsAny(trimmed, " \t\r\n") {
		return false
	}
	_, ok := Origin(trimmed)
	return ok
}

// hideUntrustedText replaces a text node that is entirely an untrusted URL
// by the hidden link placeholder.
func (s *state) hideUntrustedText(text string) (*Node, bool) {
	if !looksLikeURL(text) || IsTrusted(text, s.ctx.Whitelist) {
		return nil, false
	}
	s.addWarning(WarningUntrustedLink, "text", fmt.Sprintf("hid untrusted url %q", strings.TrimSpace(text)))
	return &Node{Kind: KindHiddenLink, Text: s.config.HiddenLinkText}, true
}

// convertAnchor applies the whitelist to <a> elements: untrusted http(s)
// links lose their wrapper but keep their content.
func (s *state) convertAnchor(n *markup.Node, _ int) (*Node, bool) {
	if !n.IsElement("a") {
		return nil, false
	}

	href := n.AttrOr("href", "")
	external := isHTTPLink(href)
	if external && !IsTrusted(href, s.ctx.Whitelist) {
		s.addWarning(WarningUntrustedLink, "a", fmt.Sprintf("defused untrusted link %q", href))
		return &Node{Kind: KindFragment, Children: s.transformChildren(n.Children)}, true
	}

	return &Node{
		Kind:     KindExternalAnchor,
		Disabled: s.ctx.Disabled,
		Anchor:   &Anchor{Href: href, External: external},
		Children: s.transformChildren(n.Children),
	}, true
}
