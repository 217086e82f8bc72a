// Package extract turns OCR text from a visa-appointment scheduling page into
// structured availability data.
//
// The package is pure: every function is total over its input, and "nothing found"
// is reported through a boolean or nil result rather than an error.
package extract

import (
	"regexp"
	"strings"
)

var reLineBreak = regexp.MustCompile(`\r\n?|\n`)

// CleanLines splits raw OCR output into trimmed lines, dropping lines of one character
// or less. Line order is preserved since extractors rely on adjacency.
func CleanLines(raw string) []string {
	parts := reLineBreak.Split(raw, -1)
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len([]rune(p)) > 1 {
			lines = append(lines, p)
		}
	}
	return lines
}
