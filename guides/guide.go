// Package guides manages the local guide library and downloads guides from
// the guide server.
package guides

import (
	"errors"
	"fmt"

	"github.com/ganymede-app/guidemark/transform"
)

// ErrNotFound is returned when a guide exists neither locally nor on the server.
var ErrNotFound = errors.New("guide not found")

// Lang is the language a guide is written in.
type Lang string

const (
	LangEn Lang = "en"
	LangFr Lang = "fr"
	LangEs Lang = "es"
	LangPt Lang = "pt"
)

func (l Lang) valid() bool {
	switch l {
	case LangEn, LangFr, LangEs, LangPt:
		return true
	default:
		return false
	}
}

// User is the author of a guide.
type User struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	IsAdmin     int    `json:"is_admin"`
	IsCertified int    `json:"is_certified"`
}

// Step is one page of a guide. WebText holds the step markup.
type Step struct {
	Name    *string `json:"name"`
	Map     *string `json:"map"`
	PosX    int     `json:"pos_x"`
	PosY    int     `json:"pos_y"`
	WebText string  `json:"web_text"`
}

// Guide is a guide with its steps, as served by the API and stored on disk.
type Guide struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Description    *string `json:"description"`
	Status         string  `json:"status"`
	Likes          int     `json:"likes"`
	Dislikes       int     `json:"dislikes"`
	Downloads      *int    `json:"downloads"`
	DeletedAt      *string `json:"deleted_at"`
	UpdatedAt      *string `json:"updated_at"`
	Lang           Lang    `json:"lang"`
	Order          int     `json:"order"`
	User           User    `json:"user"`
	WebDescription *string `json:"web_description"`
	NodeImage      *string `json:"node_image"`
	Steps          []Step  `json:"steps"`
}

// Validate checks the fields the reader relies on.
func (g *Guide) Validate() error {
	if g.ID <= 0 {
		return fmt.Errorf("guide id must be positive, got %d", g.ID)
	}
	if !g.Lang.valid() {
		return fmt.Errorf("guide %d: unsupported language %q", g.ID, g.Lang)
	}
	return nil
}

// Info returns what the transform engine needs to know about the guide.
func (g *Guide) Info() transform.GuideInfo {
	return transform.GuideInfo{StepCount: len(g.Steps), Lang: string(g.Lang)}
}

// Step returns the step at a 0-based index.
func (g *Guide) Step(index int) (Step, bool) {
	if index < 0 || index >= len(g.Steps) {
		return Step{}, false
	}
	return g.Steps[index], true
}
