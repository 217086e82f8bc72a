package extract

import (
	"strings"

	"visaocr/pkg/models"
)

// FirstAvailableConfidence is lower than any table confidence: the callout carries no
// count and depends on a short lookahead.
const FirstAvailableConfidence = 0.6

// firstAvailableLookahead is how many lines after the trigger are searched for a date.
const firstAvailableLookahead = 3

var firstAvailablePhrases = []string{
	"first available appointment",
	"next available appointment",
	"earliest available appointment",
	"first available date",
	"next available date",
}

// FirstAvailableExtractor reads the single "first available appointment" callout.
type FirstAvailableExtractor struct{}

// Name implements Extractor.
func (FirstAvailableExtractor) Name() string { return models.SourceFirstAvailable }

// Extract implements Extractor. Only the first trigger line in document order is
// considered; if no date follows it within the lookahead there is no candidate.
func (FirstAvailableExtractor) Extract(lines []string) (*models.Candidate, bool) {
	trigger := -1
	for i, line := range lines {
		if isFirstAvailableTrigger(line) {
			trigger = i
			break
		}
	}
	if trigger < 0 {
		return nil, false
	}

	end := min(trigger+1+firstAvailableLookahead, len(lines))
	for j := trigger + 1; j < end; j++ {
		slot := dateSlot(lines[j])
		if slot == nil {
			continue
		}
		slot.Source = models.SourceFirstAvailable
		return &models.Candidate{
			Slots:      []models.Slot{*slot},
			Source:     models.SourceFirstAvailable,
			Confidence: FirstAvailableConfidence,
		}, true
	}
	return nil, false
}

func isFirstAvailableTrigger(line string) bool {
	l := strings.ToLower(line)
	for _, p := range firstAvailablePhrases {
		if strings.Contains(l, p) {
			return true
		}
	}
	return false
}
