package extract

import (
	"regexp"
	"strings"
	"time"
)

// DateLayout is the only long-form date shape accepted, e.g. "Monday September 16, 2019".
const DateLayout = "Monday January 2, 2006"

// ISODate is the canonical output form of a normalized date.
const ISODate = "2006-01-02"

var (
	// "20a20" -> "2020": a stray letter recognized as the third character of the year.
	reYearInserted = regexp.MustCompile(`\b20[A-Za-z](\d{2})\b`)
	// "2O19" -> "2019": the zero of the century read as a letter O. This touches the
	// second character, unlike the rule above; "Monday September 16, 2O19" must parse.
	reYearLetterZero = regexp.MustCompile(`\b2[Oo](\d{2})\b`)
)

// repairYear undoes the single-character year corruptions OCR produces on this page type.
func repairYear(text string) string {
	text = reYearInserted.ReplaceAllString(text, "20${1}")
	return reYearLetterZero.ReplaceAllString(text, "20${1}")
}

func trimDate(text string) string {
	return strings.TrimRight(strings.TrimSpace(text), ".,;:")
}

// NormalizeDate repairs and strictly parses a long-form date line.
// Any text that does not match DateLayout after repair reports false.
func NormalizeDate(text string) (time.Time, bool) {
	if text == "" {
		return time.Time{}, false
	}
	cleaned := trimDate(repairYear(text))
	t, err := time.Parse(DateLayout, cleaned)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// CleanDisplayDate applies the year repair and punctuation trim only, keeping the
// human-readable form for display.
func CleanDisplayDate(text string) string {
	if text == "" {
		return text
	}
	return trimDate(repairYear(text))
}
