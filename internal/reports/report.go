// Package reports exports a summary row for every screenshot that showed
// appointment availability.
package reports

import (
	"context"
	"time"

	"visaocr/internal/response"
	"visaocr/pkg/models"
)

// Report is one observed availability snapshot.
type Report struct {
	Fingerprint  string
	Consulate    string
	EarliestDate string
	LatestDate   string
	SlotCount    int
	TotalSlots   *int
	Source       string
	Confidence   float64
	ReportedAt   time.Time
}

// Sink receives reports.
type Sink interface {
	Record(ctx context.Context, r Report) error
}

// FromResult summarises a parse. It reports false when the parse found no
// availability, since there is nothing worth exporting.
func FromResult(fingerprint string, res *models.ParseResult, now time.Time) (Report, bool) {
	if !res.HasAvailability() {
		return Report{}, false
	}

	r := Report{
		Fingerprint: fingerprint,
		SlotCount:   len(res.AvailableSlots),
		TotalSlots:  res.TotalSlots,
		Confidence:  res.Meta.Confidence,
		ReportedAt:  now,
	}
	if c := response.NormalizeConsulate(res.Location); c != nil {
		r.Consulate = *c
	}
	if len(res.Meta.Sources) > 0 {
		r.Source = res.Meta.Sources[0]
	}
	if res.EarliestDate != nil {
		r.EarliestDate = res.EarliestDate.Format(time.DateOnly)
	}
	if res.LatestDate != nil {
		r.LatestDate = res.LatestDate.Format(time.DateOnly)
	}
	return r, true
}

// Discard drops reports.
type Discard struct{}

// Record implements Sink.
func (Discard) Record(context.Context, Report) error { return nil }
