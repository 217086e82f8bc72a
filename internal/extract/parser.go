package extract

import (
	"time"

	"github.com/rs/zerolog"

	"visaocr/internal/logger"
	"visaocr/pkg/models"
)

// NoteNoAvailability is recorded when no extractor produced a candidate.
const NoteNoAvailability = "no availability data found"

// Parser runs the location extractor and arbitrates between availability extractors.
type Parser struct {
	extractors []Extractor
	log        zerolog.Logger
}

// DefaultExtractors returns the availability strategies in arbitration order. On equal
// confidence the earlier entry wins, so the table extractor must stay first.
func DefaultExtractors() []Extractor {
	return []Extractor{
		TableExtractor{},
		FirstAvailableExtractor{},
	}
}

// NewParser creates a parser over the default extractor order.
func NewParser() *Parser {
	return NewParserWithExtractors(DefaultExtractors()...)
}

// NewParserWithExtractors creates a parser with an explicit extractor order.
func NewParserWithExtractors(extractors ...Extractor) *Parser {
	return &Parser{
		extractors: extractors,
		log:        logger.WithComponent("parser"),
	}
}

// Parse extracts location and availability from cleaned lines. It never fails; a page
// with nothing recognisable yields an empty result with a note.
func (p *Parser) Parse(lines []string) *models.ParseResult {
	result := &models.ParseResult{
		AvailableSlots: []models.Slot{},
		Meta:           models.Meta{Sources: []string{}},
	}

	if loc, ok := ExtractLocation(lines); ok {
		result.Location = loc
	}

	best := p.selectBest(lines)
	if best == nil {
		result.Meta.Note = NoteNoAvailability
		p.log.Debug().
			Int("lines", len(lines)).
			Str("location", result.Location).
			Msg("No availability candidate found")
		return result
	}

	result.AvailableSlots = best.Slots
	result.Meta.Sources = []string{best.Source}
	result.Meta.Confidence = best.Confidence
	result.TotalSlots = totalSlots(best.Slots)
	result.EarliestDate, result.LatestDate = dateRange(best.Slots)

	p.log.Debug().
		Str("source", best.Source).
		Float64("confidence", best.Confidence).
		Int("slots", len(best.Slots)).
		Str("location", result.Location).
		Msg("Availability candidate selected")

	return result
}

// selectBest keeps the first candidate with the strictly greatest confidence.
func (p *Parser) selectBest(lines []string) *models.Candidate {
	var best *models.Candidate
	for _, ex := range p.extractors {
		c, ok := ex.Extract(lines)
		if !ok || c == nil {
			continue
		}
		p.log.Trace().
			Str("extractor", ex.Name()).
			Float64("confidence", c.Confidence).
			Int("slots", len(c.Slots)).
			Msg("Extractor produced candidate")
		if best == nil || c.Confidence > best.Confidence {
			best = c
		}
	}
	return best
}

// totalSlots sums the known counts. Slots without a count contribute nothing, and a
// result with no counted slot has no total at all.
func totalSlots(slots []models.Slot) *int {
	var total int
	counted := false
	for _, s := range slots {
		if s.Count != nil {
			total += *s.Count
			counted = true
		}
	}
	if !counted {
		return nil
	}
	return &total
}

// dateRange returns the earliest and latest dated slot. latest is nil when only one
// distinct date is present.
func dateRange(slots []models.Slot) (earliest, latest *time.Time) {
	for _, s := range slots {
		if s.Date == nil {
			continue
		}
		d := *s.Date
		if earliest == nil || d.Before(*earliest) {
			earliest = &d
		}
		if latest == nil || d.After(*latest) {
			latest = &d
		}
	}
	if earliest != nil && latest != nil && earliest.Equal(*latest) {
		latest = nil
	}
	return earliest, latest
}
