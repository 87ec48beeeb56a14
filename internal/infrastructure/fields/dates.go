package fields

import (
	"regexp"
	"time"
)

// Date candidates in recognition order: numeric with slash/dash separators,
// spelled-out month, ISO.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`),
	regexp.MustCompile(`[A-Za-z]+\s\d{1,2},?\s\d{4}`),
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
}

// Month-first interpretation for ambiguous numeric dates.
var dateLayouts = []string{
	"01/02/2006", "1/2/2006", "01/02/06", "1/2/06",
	"01-02-2006", "1-2-2006", "01-02-06", "1-2-06",
	"January 2, 2006", "January 2 2006", "Jan 2, 2006", "Jan 2 2006",
	"2006-01-02",
}

// findDate returns the first recognizable date substring reformatted to
// ISO 8601. Substrings that match a pattern but fail to parse are dropped,
// and the scan continues with the next pattern.
func findDate(text string) *string {
	for _, pattern := range datePatterns {
		match := pattern.FindString(text)
		if match == "" {
			continue
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, match); err == nil {
				iso := parsed.Format("2006-01-02")
				return &iso
			}
		}
	}
	return nil
}
