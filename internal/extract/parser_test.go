package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visaocr/pkg/models"
)

type stubExtractor struct {
	source     string
	confidence float64
	date       time.Time
}

func (s stubExtractor) Name() string { return s.source }

func (s stubExtractor) Extract([]string) (*models.Candidate, bool) {
	d := s.date
	return &models.Candidate{
		Slots:      []models.Slot{{Date: &d, Source: s.source}},
		Source:     s.source,
		Confidence: s.confidence,
	}, true
}

type emptyExtractor struct{}

func (emptyExtractor) Name() string { return "empty" }
func (emptyExtractor) Extract([]string) (*models.Candidate, bool) { return nil, false }

func TestParseFirstAvailable(t *testing.T) {
	lines := []string{"Location", "Delhi", "First available appointment", "Monday September 16, 2019"}

	res := NewParser().Parse(lines)

	assert.Equal(t, "Delhi", res.Location)
	require.Len(t, res.AvailableSlots, 1)
	assert.Equal(t, "2019-09-16", res.AvailableSlots[0].Date.Format(ISODate))
	assert.Equal(t, []string{models.SourceFirstAvailable}, res.Meta.Sources)
	assert.Equal(t, 0.6, res.Meta.Confidence)
	assert.Nil(t, res.TotalSlots)
	require.NotNil(t, res.EarliestDate)
	assert.Nil(t, res.LatestDate)
}

func TestParseTimedTable(t *testing.T) {
	res := NewParser().Parse([]string{"10:00", "Monday September 16, 2019", "236"})

	require.Len(t, res.AvailableSlots, 1)
	s := res.AvailableSlots[0]
	assert.Equal(t, "10:00", s.Time)
	assert.Equal(t, "2019-09-16", s.Date.Format(ISODate))
	assert.Equal(t, 236, *s.Count)
	assert.Equal(t, 0.95, res.Meta.Confidence)
	assert.Equal(t, 236, *res.TotalSlots)
	assert.Empty(t, res.Location)
}

func TestParseTableBeatsFirstAvailable(t *testing.T) {
	lines := []string{
		"Next available appointment", "Monday September 16, 2019",
		"Tuesday September 17, 2019", "120",
		"Friday September 20, 2019", "80",
	}
	res := NewParser().Parse(lines)

	assert.Equal(t, []string{models.SourceTable}, res.Meta.Sources)
	assert.Equal(t, 0.9, res.Meta.Confidence)
	assert.Equal(t, 200, *res.TotalSlots)
	assert.Equal(t, "2019-09-17", res.EarliestDate.Format(ISODate))
	assert.Equal(t, "2019-09-20", res.LatestDate.Format(ISODate))
}

func TestParseTieKeepsEarlierExtractor(t *testing.T) {
	first := stubExtractor{models.SourceTable, 0.8, time.Date(2019, 9, 16, 0, 0, 0, 0, time.UTC)}
	second := stubExtractor{models.SourceFirstAvailable, 0.8, time.Date(2019, 9, 17, 0, 0, 0, 0, time.UTC)}

	res := NewParserWithExtractors(first, second).Parse(nil)
	assert.Equal(t, []string{models.SourceTable}, res.Meta.Sources)
	assert.Equal(t, "2019-09-16", res.EarliestDate.Format(ISODate))

	// A strictly higher later candidate still wins.
	second.confidence = 0.81
	res = NewParserWithExtractors(first, second).Parse(nil)
	assert.Equal(t, []string{models.SourceFirstAvailable}, res.Meta.Sources)
}

func TestParseNoCandidate(t *testing.T) {
	res := NewParserWithExtractors(emptyExtractor{}).Parse([]string{"Location", "Chennai"})

	assert.Equal(t, "Chennai", res.Location)
	assert.False(t, res.HasAvailability())
	assert.NotNil(t, res.AvailableSlots)
	assert.Empty(t, res.Meta.Sources)
	assert.Zero(t, res.Meta.Confidence)
	assert.Equal(t, NoteNoAvailability, res.Meta.Note)
	assert.Nil(t, res.TotalSlots)
	assert.Nil(t, res.EarliestDate)
	assert.Nil(t, res.LatestDate)
}

func TestParseEmptyInput(t *testing.T) {
	res := NewParser().Parse(nil)
	assert.Empty(t, res.AvailableSlots)
	assert.Equal(t, NoteNoAvailability, res.Meta.Note)
}

func TestDateRangeSkipsUndatedSlots(t *testing.T) {
	d := time.Date(2019, 9, 16, 0, 0, 0, 0, time.UTC)
	earliest, latest := dateRange([]models.Slot{{}, {Date: &d}, {Date: &d}})
	require.NotNil(t, earliest)
	assert.True(t, d.Equal(*earliest))
	assert.Nil(t, latest)
}
