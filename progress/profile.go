// Package progress persists the reader's progress: the current step of every
// guide and the checked checkboxes of every step, per profile.
package progress

import "slices"

// Steps maps a 0-based step index to its checked checkbox indices.
type Steps map[int][]int

// GuideProgress is the progress of one profile in one guide.
type GuideProgress struct {
	GuideID     int
	CurrentStep int
	Steps       Steps
}

// Profile is an in-memory snapshot of a profile's progress. It is read-only
// once loaded and safe for concurrent reads.
type Profile struct {
	ID         string
	Name       string
	Level      int
	Progresses map[int]*GuideProgress
}

// CurrentStep implements transform.ProgressLookup.
func (p *Profile) CurrentStep(guideID int) (int, bool) {
	if p == nil {
		return 0, false
	}
	gp, ok := p.Progresses[guideID]
	if !ok {
		return 0, false
	}
	return gp.CurrentStep, true
}

// CheckedIndices returns the checked checkboxes of a step as a set, the way
// the transform context expects them.
func (p *Profile) CheckedIndices(guideID, stepIndex int) map[int]bool {
	out := make(map[int]bool)
	if p == nil {
		return out
	}
	gp, ok := p.Progresses[guideID]
	if !ok {
		return out
	}
	for _, idx := range gp.Steps[stepIndex] {
		out[idx] = true
	}
	return out
}

func (p *Profile) progress(guideID int) *GuideProgress {
	gp, ok := p.Progresses[guideID]
	if !ok {
		gp = &GuideProgress{GuideID: guideID, Steps: make(Steps)}
		p.Progresses[guideID] = gp
	}
	return gp
}

func (s Steps) add(stepIndex, checkboxIndex int) {
	if !slices.Contains(s[stepIndex], checkboxIndex) {
		s[stepIndex] = append(s[stepIndex], checkboxIndex)
	}
}
