package extract

import (
	"regexp"
	"strconv"
	"strings"

	"visaocr/pkg/models"
)

// Extractor is one availability extraction strategy. Extract reports false when the
// strategy finds nothing; that is absence of data, not an error.
type Extractor interface {
	Name() string
	Extract(lines []string) (*models.Candidate, bool)
}

// LocationConfidence is the fixed confidence of a location match.
const LocationConfidence = 0.9

// ExtractLocation returns the line following the first "location" label. The OCR
// misread "iocation" is accepted as well. Later labels are ignored.
func ExtractLocation(lines []string) (string, bool) {
	for i, line := range lines {
		l := strings.ToLower(line)
		if !strings.Contains(l, "location") && !strings.Contains(l, "iocation") {
			continue
		}
		if i+1 < len(lines) {
			return strings.TrimSpace(lines[i+1]), true
		}
	}
	return "", false
}

var (
	reClock  = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	reDigits = regexp.MustCompile(`^\d+$`)
)

// slotCount parses a pure digit line as a slot count. Values below MinSlotCount are
// calendar-day digits or other numeric noise.
func slotCount(line string) (int, bool) {
	line = strings.TrimSpace(line)
	if !reDigits.MatchString(line) {
		return 0, false
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < MinSlotCount {
		return 0, false
	}
	return n, true
}

// dateSlot starts a slot from a date line, or returns nil when the line is not a date.
func dateSlot(line string) *models.Slot {
	d, ok := NormalizeDate(line)
	if !ok {
		return nil
	}
	return &models.Slot{Date: &d, Display: CleanDisplayDate(line)}
}
