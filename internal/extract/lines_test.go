package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanLines(t *testing.T) {
	raw := "  Location \r\nDelhi\n\nx\n  \r10:00\n"
	assert.Equal(t, []string{"Location", "Delhi", "10:00"}, CleanLines(raw))
}

func TestCleanLinesEmpty(t *testing.T) {
	assert.Empty(t, CleanLines(""))
	assert.NotNil(t, CleanLines(""))
}
