package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validate(raw string) bool {
	return ValidateScreenshot(raw, CleanLines(raw))
}

func TestValidateScreenshotAccepts(t *testing.T) {
	raw := `Schedule Appointment
Consular Section
Location
NEW DELHI
First Available Appointment
Monday, September 16, 2019`
	assert.True(t, validate(raw))
}

func TestValidateScreenshotRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "no keyword groups",
			raw:  "Invoice 4411\nPaid on September 16, 2019",
		},
		{
			name: "single keyword group",
			raw:  "Appointment confirmation\nSeptember 16, 2019",
		},
		{
			name: "two groups without long-form date",
			raw:  "Appointment\nAvailable\n16/09/2019",
		},
		{
			name: "abbreviated month",
			raw:  "Appointment available\nSep 16, 2019",
		},
		{
			name: "month without comma",
			raw:  "Appointment available Monday\nSeptember 16 2019",
		},
		{
			name: "empty",
			raw:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, validate(tt.raw))
		})
	}
}
