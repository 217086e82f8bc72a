// Package ocr reads text from screenshot images.
//
// Several engines are available behind one interface:
//   - vision: Google Cloud Vision document text detection
//   - documentai: a Google Document AI OCR processor
//   - tesseract: local Tesseract through gosseract (build tag "tesseract")
//   - openai: transcription by an OpenAI vision model
//
// Engines return the recognised text with one line per text line in reading order.
// A blank image is not an error; it yields empty text.
package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Engine names accepted by New.
const (
	EngineVision     = "vision"
	EngineDocumentAI = "documentai"
	EngineTesseract  = "tesseract"
	EngineOpenAI     = "openai"
)

// MaxInlineBytes is the largest image sent inline to a cloud engine.
const MaxInlineBytes = 20 * 1024 * 1024

// Engine extracts text from a PNG-encoded image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, png []byte) (*Result, error)
	Close() error
}

// Warmer is implemented by engines that benefit from a throwaway run at startup.
type Warmer interface {
	Warm(ctx context.Context) error
}

// Result is the text read from one image.
type Result struct {
	Text string `json:"text"`

	// Confidence is the engine's average confidence (0.0 to 1.0), zero when the
	// engine does not report one.
	Confidence float32 `json:"confidence"`

	Engine             string        `json:"engine"`
	ProcessedAt        time.Time     `json:"processed_at"`
	ProcessingDuration time.Duration `json:"processing_duration"`
}

// Config selects and configures an engine.
type Config struct {
	Engine string

	// Google Cloud
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	CredentialsJSON  string
	CredentialsFile  string

	// OpenAI
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	// Tesseract
	TesseractLanguages []string
	TessdataPrefix     string

	Timeout time.Duration
}

// New creates the engine named by cfg.Engine.
func New(ctx context.Context, cfg Config) (Engine, error) {
	const op = "New"

	switch strings.ToLower(cfg.Engine) {
	case "", EngineVision:
		e, err := NewGoogleVisionEngine(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	case EngineDocumentAI:
		e, err := NewDocumentAIEngine(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	case EngineTesseract:
		return NewTesseractEngine(cfg)
	case EngineOpenAI:
		e, err := NewOpenAIEngine(cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, WrapOCRError(op, ErrUnknownEngine, fmt.Sprintf("engine %q", cfg.Engine))
	}
}

func checkImage(op string, png []byte) error {
	if len(png) == 0 {
		return WrapOCRError(op, ErrEmptyImage, "")
	}
	if len(png) > MaxInlineBytes {
		return WrapOCRError(op, ErrImageTooLarge, fmt.Sprintf("image size: %d bytes", len(png)))
	}
	return nil
}

// joinLines normalises engine output to newline-separated, trimmed lines.
func joinLines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func newResult(engine, text string, confidence float32, start time.Time) *Result {
	now := time.Now()
	return &Result{
		Text:               joinLines(text),
		Confidence:         confidence,
		Engine:             engine,
		ProcessedAt:        now,
		ProcessingDuration: now.Sub(start),
	}
}
