package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestStatusBlock(t *testing.T) {
	tests := []struct {
		status    string
		state     QuestState
		indicator string
	}{
		{"setup", QuestSetup, "orange"},
		{"start", QuestStart, "red"},
		{"in_progress", QuestInProgress, ""},
		{"inProgress", QuestInProgress, ""},
		{"end", QuestEnd, "green"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			result := render(t,
				`<div data-type="quest-block" questname="Le Tournoi" status="`+tt.status+`"><p>talk to Otomaï</p></div>`,
				Context{})

			block := result.Root.Children[0]
			require.Equal(t, KindQuestStatusBlock, block.Kind)
			assert.Equal(t, &QuestStatus{
				QuestName: "Le Tournoi",
				Status:    tt.state,
				Indicator: tt.indicator,
				IconURL:   "https://ganymede-app.com/images/icon_quest.png",
			}, block.Quest)
			assert.Equal(t, "talk to Otomaï", textOf(block))
			assert.Empty(t, result.Warnings)
		})
	}
}

func TestQuestStatusBlockUnknownStatus(t *testing.T) {
	result := render(t, `<div data-type="quest-block" questname="Q" status="paused">x</div>`, Context{})

	block := result.Root.Children[0]
	assert.Equal(t, KindQuestStatusBlock, block.Kind)
	assert.Empty(t, block.Quest.Status)
	assert.Empty(t, block.Quest.Indicator)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, WarningUnknownValue, result.Warnings[0].Type)
}

func TestImage(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		icon      bool
		clickable bool
	}{
		{
			name:   "unsized image is an icon",
			source: `<img src="https://cdn.example/a.png">`,
			icon:   true,
		},
		{
			name:      "sized remote image is clickable",
			source:    `<img class="rounded img-large" src="https://cdn.example/a.png" alt="map">`,
			clickable: true,
		},
		{
			name:   "sized relative image is not clickable",
			source: `<img class="img-small" src="images/a.png">`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := render(t, tt.source, Context{})

			img := findFirst(t, result.Root, KindImage)
			assert.Equal(t, tt.icon, img.Image.Icon)
			assert.Equal(t, tt.clickable, img.Image.Clickable)
			assert.Equal(t, "img", img.Tag)
		})
	}
}

func TestImageActivation(t *testing.T) {
	result := render(t, `<img class="img-medium" src="https://cdn.example/a.png" title="Zaap">`, Context{})

	img := findFirst(t, result.Root, KindImage)
	assert.Equal(t,
		[]Intent{{Kind: IntentOpenImageViewer, URL: "https://cdn.example/a.png", Title: "Zaap"}},
		Activate(img, Event{}))

	icon := findFirst(t, render(t, `<img src="https://cdn.example/a.png">`, Context{}).Root, KindImage)
	assert.Nil(t, Activate(icon, Event{}))
}

func TestImageCustomSizeClasses(t *testing.T) {
	tr := newTestTransformer(t, Config{ImageSizeClasses: []string{"wide"}})
	result, err := tr.TransformString(`<img class="wide" src="https://cdn.example/a.png"><img class="img-large" src="https://cdn.example/b.png">`, Context{})
	require.NoError(t, err)

	images := findAll(result.Root, KindImage)
	require.Len(t, images, 2)
	assert.True(t, images[0].Image.Clickable)
	assert.True(t, images[1].Image.Icon)
}

func TestTaskItemParagraphIsFlattened(t *testing.T) {
	result := render(t,
		`<ul data-type="taskList">`+
			`<li data-type="taskItem"><label><input type="checkbox"></label><div><p>kill <b>10</b> Bouftou</p></div></li>`+
			`</ul>`+
			`<div><p>regular</p></div>`,
		Context{})

	flattened := findAll(result.Root, KindFlattenedParagraph)
	require.Len(t, flattened, 1)
	assert.Equal(t, "kill 10 Bouftou", textOf(flattened[0]))

	regular := result.Root.Children[1]
	assert.Equal(t, []Kind{KindPassthrough}, kinds(regular.Children))
	assert.Equal(t, "p", regular.Children[0].Tag)
}

func TestInteractiveNodes(t *testing.T) {
	const doc = `<p>[1,2] <a href="#x">local</a></p>` +
		`<img src="i.png">` +
		`<input type="checkbox">` +
		`<span data-type="custom-tag" type="monster" name="Bouftou"></span>`

	tests := []struct {
		name string
		ctx  Context
		want []Kind
	}{
		{
			name: "standalone document",
			want: []Kind{KindPosition, KindResourceTag},
		},
		{
			name: "bound to a guide step",
			ctx:  Context{CurrentGuideID: Int(3), CurrentStepIndex: Int(0)},
			want: []Kind{KindPosition, KindCheckbox, KindResourceTag},
		},
		{
			name: "disabled",
			ctx:  Context{CurrentGuideID: Int(3), CurrentStepIndex: Int(0), Disabled: true},
			want: []Kind{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := render(t, doc, tt.ctx)
			assert.Equal(t, tt.want, kinds(InteractiveNodes(result.Root)))
		})
	}
}
