package transform

import (
	"fmt"
	"regexp"
	"strconv"
)

// positionRe matches a lazy prefix, a [x,y] coordinate and a suffix restricted
// to word characters, letters, punctuation (.,:;'") and whitespace. \s only
// covers ASCII, so Unicode separators and the BOM are listed explicitly.
var positionRe = regexp.MustCompile(`(.*?)\[` + positionSpace + `*(-?\d+)` + positionSpace + `*,` + positionSpace + `*(-?\d+)` + positionSpace + `*\]([(?:\w|\p{L}|\.|,|:|;|'|")\s\p{Z}\x{FEFF}]*)`)

const positionSpace = `[\s\p{Z}\x{FEFF}]`

// PositionMatch is one coordinate found in text.
type PositionMatch struct {
	Prefix string
	X, Y   int
	Suffix string
}

// ScanPositions extracts every coordinate token from text.
//
// The returned pieces cover text completely: gaps holds, for each match, the
// text between the previous match and this one that the lazy prefix could
// not reach (it stops at newlines); tail holds the text after the last match.
func ScanPositions(text string) (matches []PositionMatch, gaps []string, tail string) {
	locs := positionRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil, nil, text
	}

	matches = make([]PositionMatch, 0, len(locs))
	gaps = make([]string, 0, len(locs))
	end := 0
	for _, loc := range locs {
		x, errX := strconv.Atoi(text[loc[4]:loc[5]])
		y, errY := strconv.Atoi(text[loc[6]:loc[7]])
		if errX != nil || errY != nil {
			// out of int range: the raw text stays in the next gap or the tail
			continue
		}

		gaps = append(gaps, text[end:loc[0]])
		matches = append(matches, PositionMatch{
			Prefix: text[loc[2]:loc[3]],
			X:      x,
			Y:      y,
			Suffix: text[loc[8]:loc[9]],
		})
		end = loc[1]
	}

	if len(matches) == 0 {
		return nil, nil, text
	}
	return matches, gaps, text[end:]
}

// scanPositions replaces a text node containing coordinates by a fragment
// of text pieces and position tokens. It returns false when the text holds
// no coordinate.
func (s *state) scanPositions(text string) (*Node, bool) {
	matches, gaps, tail := ScanPositions(text)
	if len(matches) == 0 {
		return nil, false
	}

	out := &Node{Kind: KindFragment}
	appendText := func(t string) {
		if t != "" {
			out.Children = append(out.Children, &Node{Kind: KindText, Text: t})
		}
	}

	for i, m := range matches {
		appendText(gaps[i])
		appendText(m.Prefix)
		out.Children = append(out.Children, &Node{
			Kind:     KindPosition,
			Text:     fmt.Sprintf("[%d,%d]", m.X, m.Y),
			Disabled: s.ctx.Disabled,
			Position: &Position{X: m.X, Y: m.Y, Copy: s.positionCopyText(m.X, m.Y)},
		})
		appendText(m.Suffix)
	}
	appendText(tail)

	return out, true
}

func (s *state) positionCopyText(x, y int) string {
	if s.ctx.AutoTravelCopy {
		return fmt.Sprintf(s.config.TravelCommand, x, y)
	}
	return fmt.Sprintf("[%d,%d]", x, y)
}
