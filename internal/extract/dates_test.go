package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	want := time.Date(2019, time.September, 16, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   string
	}{
		{"clean", "Monday September 16, 2019"},
		{"letter O for zero", "Monday September 16, 2O19"},
		{"trailing punctuation", "  Monday September 16, 2019., "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeDate(tt.in)
			require.True(t, ok)
			assert.True(t, want.Equal(got), "got %s", got.Format(ISODate))
		})
	}
}

func TestNormalizeDateInsertedLetter(t *testing.T) {
	got, ok := NormalizeDate("Wednesday September 16, 20a20")
	require.True(t, ok)
	assert.Equal(t, "2020-09-16", got.Format(ISODate))
}

func TestNormalizeDateRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"16/09/2019",
		"Monday, September 16, 2019",
		"Monday September 31, 2019",
		"Mon Sep 16, 2019",
		"236",
		"10:00",
	} {
		_, ok := NormalizeDate(in)
		assert.False(t, ok, in)
	}
}

func TestCleanDisplayDate(t *testing.T) {
	assert.Equal(t, "Monday September 16, 2019", CleanDisplayDate(" Monday September 16, 2O19. "))
	assert.Equal(t, "Sept 16, 2020", CleanDisplayDate("Sept 16, 20x20;"))
	assert.Equal(t, "", CleanDisplayDate(""))
}
