package cmd

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visaocr/internal/ocr"
	"visaocr/internal/response"
)

const appointmentText = `Schedule Appointment
Location
DELHI
First Available Appointment
Monday September 16, 2019`

func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	return rootCmd.Execute()
}

func TestParseCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "screenshot.txt")
	out := filepath.Join(dir, "result.json")
	require.NoError(t, os.WriteFile(in, []byte(appointmentText), 0644))

	require.NoError(t, runCommand(t, "parse", in, "-o", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var resp response.Response
	require.NoError(t, json.Unmarshal(data, &resp))

	require.True(t, resp.Success)
	require.NotNil(t, resp.FormData)
	assert.Equal(t, "Delhi", *resp.FormData.Consulate)
	assert.Equal(t, "2019-09-16", *resp.FormData.EarliestAvailableDate)
}

func TestParseCommandCalendar(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "calendar.txt")
	out := filepath.Join(dir, "calendar.json")
	require.NoError(t, os.WriteFile(in, []byte("October 2019\n3\n1\n"), 0644))

	require.NoError(t, runCommand(t, "parse", in, "--calendar", "-o", out))
	parseCmd.Flags().Set("calendar", "false")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"months":[{"month":"October 2019","selectable_dates":[1,3]}]}`, string(data))
}

func TestReadTextInputStdin(t *testing.T) {
	got, err := readTextInput("-", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	_, err = readTextInput(filepath.Join(t.TempDir(), "missing.txt"), nil)
	assert.Error(t, err)
}

func TestValidateImageFile(t *testing.T) {
	dir := t.TempDir()
	log := zerolog.Nop()

	_, err := validateImageFile(filepath.Join(dir, "missing.png"), log)
	assert.ErrorContains(t, err, "not found")

	_, err = validateImageFile(dir, log)
	assert.ErrorContains(t, err, "not a regular file")

	empty := filepath.Join(dir, "empty.png")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = validateImageFile(empty, log)
	assert.ErrorContains(t, err, "empty")
}

func TestHandleEngineError(t *testing.T) {
	log := zerolog.Nop()

	err := handleEngineError("vision", ocr.ErrMissingCredentials, log)
	assert.True(t, errors.Is(err, ocr.ErrMissingCredentials))
	assert.Contains(t, err.Error(), "GOOGLE_APPLICATION_CREDENTIALS")

	err = handleEngineError("tesseract", ocr.ErrEngineUnavailable, log)
	assert.Contains(t, err.Error(), "-tags tesseract")
}
