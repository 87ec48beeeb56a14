// Package textnorm normalizes raw extracted text before classification.
package textnorm

import "strings"

// Clean strips every line, drops empties and rejoins with single newlines.
// Pure transformation: empty input yields an empty string, no failure mode.
func Clean(raw string) string {
	if raw == "" {
		return ""
	}
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// Normalizer adapts Clean to the pipeline port.
type Normalizer struct{}

func (Normalizer) Clean(raw string) string { return Clean(raw) }
