package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"visaocr/internal/archive"
	"visaocr/internal/cache"
	"visaocr/internal/imaging"
	"visaocr/internal/logger"
	"visaocr/internal/ocr"
)

type Config struct {
	// OCR engine: vision, documentai, tesseract or openai
	OCREngine  string
	OCRTimeout time.Duration

	// Google Cloud Configuration
	GoogleCloudProject         string
	GoogleCloudLocation        string
	DocumentAIProcessorID      string
	DocumentAIProcessorVersion string
	GoogleCredentials          string
	GoogleCredentialsFile      string

	// OpenAI Configuration
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	// Tesseract Configuration
	TesseractLanguages []string
	TessdataPrefix     string

	// Result cache
	CacheMaxEntries int
	CacheTTL        time.Duration
	RedisURL        string

	// Upload handling
	MaxFileSizeMB  int
	ResizeMaxWidth int

	// HTTP server
	HTTPAddr          string
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Screenshot archive: off, direct or queue
	ArchiveMode        string
	ArchiveQueue       string
	ArchiveConcurrency int
	S3Endpoint         string
	S3AccessKey        string
	S3SecretKey        string
	S3Bucket           string
	S3UseSSL           bool

	// Google Sheets slot reports (disabled when the URL is empty)
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		OCREngine:                  strings.ToLower(getEnv("OCR_ENGINE", ocr.EngineVision)),
		OCRTimeout:                 getDuration("OCR_TIMEOUT", 60*time.Second),
		GoogleCloudProject:         getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:        getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:      getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		DocumentAIProcessorVersion: getEnv("DOCUMENT_AI_PROCESSOR_VERSION", ""),
		GoogleCredentials:          getEnv("GOOGLE_CREDENTIALS", ""),
		GoogleCredentialsFile:      getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		OpenAIAPIKey:               getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:                getEnv("OPENAI_MODEL", ocr.DefaultOpenAIModel),
		OpenAIBaseURL:              getEnv("OPENAI_BASE_URL", ""),
		TesseractLanguages:         getList("TESSERACT_LANG", []string{"eng"}),
		TessdataPrefix:             getEnv("TESSDATA_PREFIX", ""),
		CacheMaxEntries:            getInt("CACHE_MAX_ENTRIES", cache.DefaultMaxEntries),
		CacheTTL:                   getDuration("CACHE_TTL", cache.DefaultTTL),
		RedisURL:                   getEnv("REDIS_URL", ""),
		MaxFileSizeMB:              getInt("MAX_FILE_SIZE_MB", 5),
		ResizeMaxWidth:             getInt("RESIZE_MAX_WIDTH", imaging.DefaultMaxWidth),
		HTTPAddr:                   getEnv("HTTP_ADDR", ":8000"),
		RateLimitRequests:          getInt("RATE_LIMIT_REQUESTS", 10),
		RateLimitWindow:            getDuration("RATE_LIMIT_WINDOW", time.Minute),
		ArchiveMode:                strings.ToLower(getEnv("ARCHIVE_MODE", archive.ModeOff)),
		ArchiveQueue:               getEnv("ARCHIVE_QUEUE", archive.DefaultQueue),
		ArchiveConcurrency:         getInt("ARCHIVE_CONCURRENCY", 4),
		S3Endpoint:                 getEnv("S3_ENDPOINT", ""),
		S3AccessKey:                getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:                getEnv("S3_SECRET_KEY", ""),
		S3Bucket:                   getEnv("S3_BUCKET", archive.DefaultBucket),
		S3UseSSL:                   getBool("S3_USE_SSL", true),
		GoogleSheetURL:             getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:       getEnv("GOOGLE_SHEET_WORKSHEET", "Slot Reports"),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		LogFormat:                  getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:              getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                  getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.OCREngine {
	case ocr.EngineVision, ocr.EngineTesseract:
	case ocr.EngineDocumentAI:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required for the documentai engine")
		}
		if c.DocumentAIProcessorID == "" {
			return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required for the documentai engine")
		}
	case ocr.EngineOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai engine")
		}
	default:
		return fmt.Errorf("OCR_ENGINE must be one of vision, documentai, tesseract, openai (got %q)", c.OCREngine)
	}

	if c.CacheMaxEntries <= 0 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE_MB must be positive")
	}
	if c.ResizeMaxWidth <= 0 {
		return fmt.Errorf("RESIZE_MAX_WIDTH must be positive")
	}
	if c.RateLimitRequests < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative")
	}

	switch c.ArchiveMode {
	case archive.ModeOff:
	case archive.ModeDirect:
		if c.S3Endpoint == "" {
			return fmt.Errorf("S3_ENDPOINT is required when ARCHIVE_MODE=direct")
		}
	case archive.ModeQueue:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when ARCHIVE_MODE=queue")
		}
	default:
		return fmt.Errorf("ARCHIVE_MODE must be one of off, direct, queue (got %q)", c.ArchiveMode)
	}
	return nil
}

// OCRConfig returns the engine settings.
func (c *Config) OCRConfig() ocr.Config {
	return ocr.Config{
		Engine:             c.OCREngine,
		ProjectID:          c.GoogleCloudProject,
		Location:           c.GoogleCloudLocation,
		ProcessorID:        c.DocumentAIProcessorID,
		ProcessorVersion:   c.DocumentAIProcessorVersion,
		CredentialsJSON:    c.GoogleCredentials,
		CredentialsFile:    c.GoogleCredentialsFile,
		OpenAIAPIKey:       c.OpenAIAPIKey,
		OpenAIModel:        c.OpenAIModel,
		OpenAIBaseURL:      c.OpenAIBaseURL,
		TesseractLanguages: c.TesseractLanguages,
		TessdataPrefix:     c.TessdataPrefix,
		Timeout:            c.OCRTimeout,
	}
}

// UploadLimits returns the upload guardrail settings.
func (c *Config) UploadLimits() imaging.Limits {
	return imaging.Limits{
		MaxBytes:     int64(c.MaxFileSizeMB) << 20,
		AllowedTypes: imaging.AllowedTypes,
	}
}

// S3Config returns the archive bucket settings.
func (c *Config) S3Config() archive.S3Config {
	return archive.S3Config{
		Endpoint:  c.S3Endpoint,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
		Bucket:    c.S3Bucket,
		UseSSL:    c.S3UseSSL,
	}
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

// getDuration accepts Go durations ("90s", "1h") or a plain number of seconds.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == '+' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
