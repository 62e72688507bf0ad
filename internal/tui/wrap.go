package tui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

type boundaryState int

const (
	boundaryPending boundaryState = iota
	boundaryReached
	boundaryCurrent
)

// boundaryToken is one "grade:pct" cell of the boundary strip.
type boundaryToken struct {
	text  string
	state boundaryState
}

// boundaryTokens lists the averaged boundaries best grade first. The estimated grade is
// current, worse grades are reached and better ones are pending.
func boundaryTokens(summaries []model.GradeThresholdSummary, grade *model.Grade) []boundaryToken {
	out := make([]boundaryToken, 0, len(summaries))
	for _, s := range summaries {
		state := boundaryPending
		switch {
		case grade == nil:
		case s.Grade == *grade:
			state = boundaryCurrent
		case grade.Better(s.Grade):
			state = boundaryReached
		}
		out = append(out, boundaryToken{
			text:  fmt.Sprintf("%s:%.1f", s.Grade, s.AveragedPct),
			state: state,
		})
	}
	return out
}

func buildStyledRunes(tokens []boundaryToken) []styledRune {
	out := make([]styledRune, 0, len(tokens)*8)
	for i, tok := range tokens {
		if i > 0 {
			out = append(out, styledRune{s: " ", width: 1, isSpace: true})
		}
		style := pendingStyle
		switch tok.state {
		case boundaryReached:
			style = correctStyle
		case boundaryCurrent:
			style = currentWordStyle.Underline(true)
		}
		for _, r := range tok.text {
			out = append(out, styledRune{
				s:     style.Render(string(r)),
				width: runewidth.RuneWidth(r),
			})
		}
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
