package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrigin(t *testing.T) {
	tests := []struct {
		in     string
		origin string
		ok     bool
	}{
		{"https://trusted.example/page?q=1", "https://trusted.example", true},
		{"HTTPS://Trusted.Example:8443/x", "https://trusted.example", true},
		{"http://a.example", "http://a.example", true},
		{"ftp://a.example", "", false},
		{"mailto:someone@example.com", "", false},
		{"https://", "", false},
		{"/relative/path", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			origin, ok := Origin(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.origin, origin)
		})
	}
}

func TestIsTrusted(t *testing.T) {
	wl := NewWhitelist("https://trusted.example/", " HTTPS://www.Trusted.example ")

	assert.True(t, IsTrusted("https://trusted.example/page", wl))
	assert.True(t, IsTrusted("https://www.trusted.example", wl))
	assert.False(t, IsTrusted("http://trusted.example", wl))
	assert.False(t, IsTrusted("https://evil.example", wl))
	assert.False(t, IsTrusted("https://trusted.example.evil.example", wl))
	assert.False(t, IsTrusted("not a url", wl))
}

func trustContext() Context {
	return Context{Whitelist: NewWhitelist("https://trusted.example")}
}

func TestAnchorTrusted(t *testing.T) {
	result := render(t, `<a href="https://trusted.example/page">read <b>more</b></a>`, trustContext())

	anchor := result.Root.Children[0]
	assert.Equal(t, KindExternalAnchor, anchor.Kind)
	assert.Equal(t, &Anchor{Href: "https://trusted.example/page", External: true}, anchor.Anchor)
	assert.Equal(t, "read more", textOf(anchor))
	assert.Equal(t, []Intent{{Kind: IntentOpenExternalURL, URL: "https://trusted.example/page"}}, Activate(anchor, Event{}))
	assert.Empty(t, result.Warnings)
}

func TestAnchorUntrustedKeepsChildren(t *testing.T) {
	result := render(t, `<a href="https://evil.example">read <b>more</b></a>`, trustContext())

	out := result.Root.Children[0]
	assert.Equal(t, KindFragment, out.Kind)
	assert.Nil(t, out.Anchor)
	assert.Empty(t, findAll(result.Root, KindExternalAnchor))
	assert.Equal(t, "read more", textOf(out))

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, WarningUntrustedLink, result.Warnings[0].Type)
}

func TestAnchorNonHTTP(t *testing.T) {
	result := render(t, `<a href="#step-2">jump</a>`, trustContext())

	anchor := result.Root.Children[0]
	assert.Equal(t, KindExternalAnchor, anchor.Kind)
	assert.False(t, anchor.Anchor.External)
	assert.False(t, anchor.Interactive())
	assert.Nil(t, Activate(anchor, Event{}))
}

func TestTextURL(t *testing.T) {
	t.Run("untrusted url is hidden", func(t *testing.T) {
		result := render(t, `<p>https://evil.example</p>`, trustContext())

		out := result.Root.Children[0].Children[0]
		assert.Equal(t, KindHiddenLink, out.Kind)
		assert.Equal(t, "hidden link", out.Text)
	})

	t.Run("trusted url stays", func(t *testing.T) {
		result := render(t, `<p>https://trusted.example/guide</p>`, trustContext())

		out := result.Root.Children[0].Children[0]
		assert.Equal(t, KindText, out.Kind)
		assert.Equal(t, "https://trusted.example/guide", out.Text)
	})

	t.Run("sentence mentioning http is not a url", func(t *testing.T) {
		result := render(t, `<p>http is fun [1,2]</p>`, trustContext())

		assert.Empty(t, findAll(result.Root, KindHiddenLink))
		assert.Len(t, findAll(result.Root, KindPosition), 1)
	})

	t.Run("custom placeholder", func(t *testing.T) {
		tr := newTestTransformer(t, Config{HiddenLinkText: "lien masqué"})
		result, err := tr.TransformString(`https://evil.example`, trustContext())
		require.NoError(t, err)
		assert.Equal(t, "lien masqué", result.Root.Children[0].Text)
	})
}
