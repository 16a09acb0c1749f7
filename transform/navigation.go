package transform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ganymede-app/guidemark/markup"
)

// sameGuideSentinel as a target guide id means "the guide being read".
const sameGuideSentinel = 0

// ErrNoCurrentGuide is returned when a link targets the current guide but the
// document is not bound to one.
var ErrNoCurrentGuide = errors.New("link targets the current guide but no guide is open")

// StepTarget is the author-declared target of a guide-step link.
type StepTarget struct {
	GuideID int
	// StepNumber is 1-based.
	StepNumber int
	// StepID set to 0 means "the reader's saved step" when progress exists.
	StepID *int
}

// ResolveStepLink decides where a guide-step link leads and whether the
// target guide must be downloaded first.
func ResolveStepLink(ctx *Context, target StepTarget) (Kind, StepLink, error) {
	guideID := target.GuideID
	sameGuide := guideID == sameGuideSentinel
	if sameGuide {
		if ctx.CurrentGuideID == nil {
			return "", StepLink{}, ErrNoCurrentGuide
		}
		guideID = *ctx.CurrentGuideID
	} else if ctx.CurrentGuideID != nil && *ctx.CurrentGuideID == guideID {
		sameGuide = true
	}

	guide, available := ctx.lookupGuide(guideID)
	stepNumber := clampStep(target.StepNumber, guide.StepCount, available)

	if available && target.StepID != nil && *target.StepID == 0 {
		if saved, ok := ctx.savedStep(guideID); ok {
			stepNumber = clampStep(saved+1, guide.StepCount, true)
		}
	}

	link := StepLink{TargetGuideID: guideID, TargetStep: stepNumber - 1}
	if sameGuide {
		return KindSameGuideStepLink, link, nil
	}

	link.NeedsDownload = !available
	link.DownloadFailed = ctx.FailedDownloads[guideID]
	return KindCrossGuideStepLink, link, nil
}

// clampStep bounds a 1-based step number. Without a known step count only
// the lower bound applies.
func clampStep(step, stepCount int, known bool) int {
	if known && stepCount >= 1 && step > stepCount {
		step = stepCount
	}
	return max(step, 1)
}

func parseIntAttr(n *markup.Node, name string) (value int, present bool, err error) {
	raw, ok := n.Attr(name)
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, true, fmt.Errorf("attribute %s=%q is not an integer", name, raw)
	}
	return v, true, nil
}

func (s *state) convertGuideStep(n *markup.Node, _ int) (*Node, bool) {
	if dataType(n) != dataTypeGuideStep {
		return nil, false
	}

	guideID, present, err := parseIntAttr(n, "guideid")
	if !present {
		s.addWarning(WarningMissingAttribute, dataTypeGuideStep, "guide-step link without guideid")
		return nil, false
	}
	if err != nil {
		s.addWarning(WarningInvalidAttribute, dataTypeGuideStep, err.Error())
		return nil, false
	}
	stepNumber, _, err := parseIntAttr(n, "stepnumber")
	if err != nil {
		s.addWarning(WarningInvalidAttribute, dataTypeGuideStep, err.Error())
		return nil, false
	}

	target := StepTarget{GuideID: guideID, StepNumber: stepNumber}
	if stepID, ok, err := parseIntAttr(n, "stepid"); ok && err == nil {
		target.StepID = &stepID
	}

	kind, link, err := ResolveStepLink(s.ctx, target)
	if err != nil {
		s.addWarning(WarningUnresolvedReference, dataTypeGuideStep, err.Error())
		return nil, false
	}
	link.ShowIcon = !s.hasGuideIcon(n)

	return &Node{
		Kind:     kind,
		Disabled: s.ctx.Disabled,
		StepLink: &link,
		Children: s.transformChildren(n.Children),
	}, true
}

// hasGuideIcon reports whether the author already placed the guide icon.
func (s *state) hasGuideIcon(n *markup.Node) bool {
	for _, child := range n.Children {
		if child.IsElement("img") && strings.Contains(child.AttrOr("src", ""), s.config.GuideIconMarker) {
			return true
		}
	}
	return false
}
