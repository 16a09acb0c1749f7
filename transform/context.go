package transform

import "strings"

// GuideInfo is what the engine needs to know about a locally available guide.
type GuideInfo struct {
	StepCount int
	Lang      string
}

// GuideRegistry resolves locally available guides.
type GuideRegistry interface {
	Lookup(guideID int) (GuideInfo, bool)
}

// ProgressLookup exposes the reader's saved progress.
type ProgressLookup interface {
	// CurrentStep returns the 0-based saved step of a guide.
	CurrentStep(guideID int) (int, bool)
}

// MappingTable resolves alternate database URLs for resources.
type MappingTable interface {
	Lookup(kind ResourceKind, externalID string) (string, bool)
}

// Platform carries the host platform traits that change interaction semantics.
type Platform struct {
	IsMac bool
}

// OpenModifier is the modifier that opens the game database.
func (p Platform) OpenModifier() Modifier {
	if p.IsMac {
		return ModMeta
	}
	return ModCtrl
}

// Whitelist is a set of trusted origins of the form scheme://host.
type Whitelist map[string]struct{}

// NewWhitelist builds a whitelist from origins. Origins are lower-cased and
// trailing slashes are ignored.
func NewWhitelist(origins ...string) Whitelist {
	w := make(Whitelist, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/")
		if o != "" {
			w[o] = struct{}{}
		}
	}
	return w
}

// Contains reports whether origin is trusted.
func (w Whitelist) Contains(origin string) bool {
	_, ok := w[origin]
	return ok
}

// Context is the caller-owned data a transform pass reads. It is never
// mutated by the engine.
type Context struct {
	Whitelist Whitelist

	// CurrentGuideID and CurrentStepIndex bind the document to a guide step.
	// Either may be nil for documents outside a guide (notes, descriptions).
	CurrentGuideID   *int
	CurrentStepIndex *int

	Disabled bool
	Platform Platform

	Guides   GuideRegistry
	Progress ProgressLookup
	Mapping  MappingTable

	// CheckedIndices are the checked checkbox indices of the current step.
	CheckedIndices map[int]bool
	// FailedDownloads marks guides whose last download attempt failed.
	FailedDownloads map[int]bool
	// AutoTravelCopy copies the travel command instead of the bare position.
	AutoTravelCopy bool
}

// Int returns a pointer to v. Convenient for optional context fields.
func Int(v int) *int {
	return &v
}

func (c *Context) lookupGuide(guideID int) (GuideInfo, bool) {
	if c.Guides == nil {
		return GuideInfo{}, false
	}
	return c.Guides.Lookup(guideID)
}

func (c *Context) savedStep(guideID int) (int, bool) {
	if c.Progress == nil {
		return 0, false
	}
	return c.Progress.CurrentStep(guideID)
}

func (c *Context) mappedURL(kind ResourceKind, externalID string) (string, bool) {
	if c.Mapping == nil || externalID == "" {
		return "", false
	}
	return c.Mapping.Lookup(kind, externalID)
}

// boundStep reports the guide step the document belongs to, if any.
func (c *Context) boundStep() (guideID, stepIndex int, ok bool) {
	if c.CurrentGuideID == nil || c.CurrentStepIndex == nil {
		return 0, 0, false
	}
	return *c.CurrentGuideID, *c.CurrentStepIndex, true
}
