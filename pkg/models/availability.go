package models

import "time"

// Extractor source tags.
const (
	SourceTable          = "table"
	SourceFirstAvailable = "first_available"
)

// Slot is one appointment availability record read off a screenshot.
type Slot struct {
	Date    *time.Time // Calendar date at UTC midnight; nil when the text could not be parsed
	Time    string     // Clock time as printed ("10:00"); empty when the layout carries no time
	Count   *int       // Number of open slots; nil when the layout conveys no count
	Display string     // Human-readable date text as it appeared (year-repaired, punctuation-trimmed)
	Source  string     // Extractor tag that produced the slot
}

// Candidate is a single extractor's proposed availability result.
// Candidates are treated as immutable once returned.
type Candidate struct {
	Slots      []Slot
	Source     string
	Confidence float64 // 0.0 to 1.0
}

// Meta describes how a ParseResult was produced.
type Meta struct {
	Sources    []string
	Confidence float64
	Note       string
}

// ParseResult is the structured availability data extracted from one screenshot.
type ParseResult struct {
	Location       string // Empty when no location line was found
	AvailableSlots []Slot
	TotalSlots     *int
	EarliestDate   *time.Time
	LatestDate     *time.Time // Only set when it differs from EarliestDate
	Meta           Meta
}

// HasAvailability reports whether any availability candidate was selected.
func (r *ParseResult) HasAvailability() bool {
	return r != nil && len(r.AvailableSlots) > 0
}

// CalendarMonth is a month header from a calendar widget and the day numbers shown
// as selectable beneath it.
type CalendarMonth struct {
	Month           string `json:"month"`
	SelectableDates []int  `json:"selectable_dates"`
}
