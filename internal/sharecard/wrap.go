package sharecard

import (
	"strings"

	"golang.org/x/image/font"
)

// Measurer reports the rendered width of a string in pixels
type Measurer interface {
	Measure(s string) float64
}

// MeasureFunc adapts a plain function to Measurer
type MeasureFunc func(s string) float64

// Measure implements Measurer
func (f MeasureFunc) Measure(s string) float64 { return f(s) }

// FaceMeasurer measures with a font face
type FaceMeasurer struct {
	Face font.Face
}

// Measure implements Measurer
func (m FaceMeasurer) Measure(s string) float64 {
	return float64(font.MeasureString(m.Face, s)) / 64
}

// Wrap splits text into lines no wider than maxWidth.
// Words (split on single spaces) are packed greedily first; a line that is still
// too wide, which only happens for a lone overlong word, is then re-split per rune.
func Wrap(m Measurer, text string, maxWidth float64) []string {
	var lines []string
	current := ""

	for _, word := range strings.Split(text, " ") {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}

		if m.Measure(candidate) > maxWidth && current != "" {
			lines = append(lines, current)
			current = word
		} else {
			current = candidate
		}
	}
	if current != "" {
		lines = append(lines, current)
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if m.Measure(line) <= maxWidth {
			out = append(out, line)
			continue
		}
		out = append(out, splitRunes(m, line, maxWidth)...)
	}
	return out
}

func splitRunes(m Measurer, line string, maxWidth float64) []string {
	var out []string
	current := ""
	for _, r := range line {
		candidate := current + string(r)
		if m.Measure(candidate) > maxWidth && current != "" {
			out = append(out, current)
			current = string(r)
		} else {
			current = candidate
		}
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}
