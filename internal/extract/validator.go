package extract

import (
	"regexp"
	"strings"
)

// keywordGroups partitions the page vocabulary into independent signals. A page must
// hit at least minGroupHits of them.
var keywordGroups = map[string][]string{
	"context": {
		"appointment", "schedule", "interview", "visa", "consular", "consulate", "ofc",
	},
	"weekday": {
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	},
	"availability": {
		"available", "availability", "slot", "time", "date", "select",
	},
}

const minGroupHits = 2

var reMonthName = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\b`)

// ValidateScreenshot reports whether the OCR text plausibly comes from a visa
// appointment scheduling page. It needs keyword hits in two distinct groups and at least
// one long-form date line (a comma plus a full month name); either alone is not enough.
func ValidateScreenshot(raw string, lines []string) bool {
	return groupHits(raw) >= minGroupHits && hasLongFormDate(lines)
}

func groupHits(raw string) int {
	text := strings.ToLower(raw)
	hits := 0
	for _, terms := range keywordGroups {
		for _, term := range terms {
			if strings.Contains(text, term) {
				hits++
				break
			}
		}
	}
	return hits
}

func hasLongFormDate(lines []string) bool {
	for _, l := range lines {
		if strings.Contains(l, ",") && reMonthName.MatchString(l) {
			return true
		}
	}
	return false
}
