package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OCR_ENGINE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "vision", cfg.OCREngine)
	assert.Equal(t, 5000, cfg.CacheMaxEntries)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, 1024, cfg.ResizeMaxWidth)
	assert.Equal(t, 10, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, "off", cfg.ArchiveMode)
	assert.Equal(t, "visa-screenshots", cfg.S3Bucket)
	assert.Equal(t, int64(5<<20), cfg.UploadLimits().MaxBytes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OCR_ENGINE", "Tesseract")
	t.Setenv("TESSERACT_LANG", "eng+hin")
	t.Setenv("CACHE_TTL", "90")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("S3_USE_SSL", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tesseract", cfg.OCREngine)
	assert.Equal(t, []string{"eng", "hin"}, cfg.TesseractLanguages)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.False(t, cfg.S3UseSSL)
	assert.Equal(t, []string{"eng", "hin"}, cfg.OCRConfig().TesseractLanguages)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown engine", map[string]string{"OCR_ENGINE": "paddle"}},
		{"openai without key", map[string]string{"OCR_ENGINE": "openai", "OPENAI_API_KEY": ""}},
		{"documentai without processor", map[string]string{"OCR_ENGINE": "documentai", "GOOGLE_CLOUD_PROJECT": "p", "DOCUMENT_AI_PROCESSOR_ID": ""}},
		{"queue archive without redis", map[string]string{"ARCHIVE_MODE": "queue", "REDIS_URL": ""}},
		{"direct archive without endpoint", map[string]string{"ARCHIVE_MODE": "direct", "S3_ENDPOINT": ""}},
		{"bad archive mode", map[string]string{"ARCHIVE_MODE": "sometimes"}},
		{"zero cache size", map[string]string{"CACHE_MAX_ENTRIES": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OCR_ENGINE", "vision")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
