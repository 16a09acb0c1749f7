package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.applyDefaults()

	assert.Equal(t, "hidden link", cfg.HiddenLinkText)
	assert.Equal(t, "https://dofusdb.fr", cfg.DatabaseBaseURL)
	assert.Equal(t, "https://db.methodwakfu.com", cfg.ForeignDatabaseBaseURL)
	assert.Equal(t, []string{"img-large", "img-medium", "img-small"}, cfg.ImageSizeClasses)
	assert.Equal(t, "/travel %d,%d", cfg.TravelCommand)
	require.NoError(t, cfg.Validate())
}

func TestConfigDefaultsTrimTrailingSlash(t *testing.T) {
	cfg := Config{DatabaseBaseURL: "https://dofusdb.fr/"}.applyDefaults()
	assert.Equal(t, "https://dofusdb.fr", cfg.DatabaseBaseURL)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "relative database url",
			cfg:  Config{DatabaseBaseURL: "dofusdb.fr"},
			want: "invalid databaseBaseURL",
		},
		{
			name: "non http quest icon",
			cfg:  Config{QuestIconURL: "ftp://x.example/icon.png"},
			want: "invalid questIconURL",
		},
		{
			name: "size class with spaces",
			cfg:  Config{ImageSizeClasses: []string{"img large"}},
			want: "invalid image size class",
		},
		{
			name: "blank hidden link text",
			cfg:  Config{HiddenLinkText: "   "},
			want: "hiddenLinkText must be non-empty",
		},
		{
			name: "travel command with one verb",
			cfg:  Config{TravelCommand: "/travel %d"},
			want: "invalid travelCommand",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.applyDefaults().Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)

			_, err = New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewClonesConfig(t *testing.T) {
	classes := []string{"big"}
	tr := newTestTransformer(t, Config{ImageSizeClasses: classes})
	classes[0] = "changed"

	result, err := tr.TransformString(`<img class="big" src="https://cdn.example/a.png">`, Context{})
	require.NoError(t, err)
	assert.False(t, findFirst(t, result.Root, KindImage).Image.Icon)
}

func TestTravelCommandFormat(t *testing.T) {
	tr := newTestTransformer(t, Config{TravelCommand: "/tp %d %d"})
	result, err := tr.TransformString(`[3,4]`, Context{AutoTravelCopy: true})
	require.NoError(t, err)
	assert.Equal(t, "/tp 3 4", findFirst(t, result.Root, KindPosition).Position.Copy)
}
