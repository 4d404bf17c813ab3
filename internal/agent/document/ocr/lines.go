package ocr

import (
	"strings"
)

// Line is one recognized text line.
type Line struct {
	Text       string
	Confidence float64
}

// JoinLines keeps lines at or above minConfidence and joins their trimmed,
// non-empty text with newlines, in recognition order.
func JoinLines(lines []Line, minConfidence float64) string {
	kept := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.Confidence < minConfidence {
			continue
		}
		if text := strings.TrimSpace(l.Text); text != "" {
			kept = append(kept, text)
		}
	}
	return strings.Join(kept, "\n")
}

// NormalizeText reduces a raw recognition dump to trimmed non-empty lines.
func NormalizeText(raw string) string {
	lines := strings.Split(raw, "\n")
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = Line{Text: l}
	}
	return JoinLines(out, 0)
}
