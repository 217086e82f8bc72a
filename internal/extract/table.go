package extract

import (
	"strings"

	"visaocr/pkg/models"
)

// MinSlotCount is the smallest digit line accepted as a slot count.
const MinSlotCount = 51

// Table confidences. Time-qualified rows are the more reliable layout.
const (
	TableConfidenceTimed   = 0.95
	TableConfidenceUntimed = 0.90
)

// TableExtractor reads tabular availability layouts: time/date/count triplets and
// date/count pairs.
type TableExtractor struct{}

// Name implements Extractor.
func (TableExtractor) Name() string { return models.SourceTable }

// Extract implements Extractor.
func (TableExtractor) Extract(lines []string) (*models.Candidate, bool) {
	used := make(map[int]bool)
	var slots []models.Slot

	// Pass 1: time, date and an optional count line.
	for i := 0; i+1 < len(lines); i++ {
		if used[i] || used[i+1] || !reClock.MatchString(strings.TrimSpace(lines[i])) {
			continue
		}
		slot := dateSlot(lines[i+1])
		if slot == nil {
			continue
		}
		slot.Time = strings.TrimSpace(lines[i])
		slot.Source = models.SourceTable

		count := 1
		used[i], used[i+1] = true, true
		if i+2 < len(lines) {
			if n, ok := slotCount(lines[i+2]); ok {
				count = n
				used[i+2] = true
			}
		}
		slot.Count = &count
		slots = append(slots, *slot)
	}

	// Pass 2: date followed by a count, over lines pass 1 left alone.
	for i := 0; i+1 < len(lines); i++ {
		if used[i] || used[i+1] {
			continue
		}
		n, ok := slotCount(lines[i+1])
		if !ok {
			continue
		}
		slot := dateSlot(lines[i])
		if slot == nil {
			continue
		}
		slot.Count = &n
		slot.Source = models.SourceTable
		used[i], used[i+1] = true, true
		slots = append(slots, *slot)
	}

	if len(slots) == 0 {
		return nil, false
	}

	confidence := TableConfidenceUntimed
	for _, s := range slots {
		if s.Time != "" {
			confidence = TableConfidenceTimed
			break
		}
	}

	return &models.Candidate{
		Slots:      slots,
		Source:     models.SourceTable,
		Confidence: confidence,
	}, true
}
