//go:build tesseract

package ocr

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"time"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	"visaocr/internal/logger"
)

// TesseractEngine runs a local Tesseract instance. A gosseract client is not safe
// for concurrent use, so calls are serialized.
type TesseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
	log    zerolog.Logger
}

// NewTesseractEngine creates a Tesseract client for the configured languages.
func NewTesseractEngine(cfg Config) (Engine, error) {
	const op = "NewTesseractEngine"

	client := gosseract.NewClient()

	langs := cfg.TesseractLanguages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	if err := client.SetLanguage(langs...); err != nil {
		_ = client.Close()
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "failed to set languages: "+err.Error())
	}
	if cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataPrefix); err != nil {
			_ = client.Close()
			return nil, WrapOCRError(op, ErrInvalidConfiguration, "failed to set tessdata prefix: "+err.Error())
		}
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		_ = client.Close()
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "failed to set page segmentation mode: "+err.Error())
	}

	return &TesseractEngine{
		client: client,
		log:    logger.WithComponent("ocr.tesseract"),
	}, nil
}

// Name implements Engine.
func (t *TesseractEngine) Name() string { return EngineTesseract }

// Recognize implements Engine.
func (t *TesseractEngine) Recognize(ctx context.Context, png []byte) (*Result, error) {
	const op = "TesseractEngine.Recognize"
	start := time.Now()

	if err := checkImage(op, png); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, WrapOCRError(op, ErrContextCanceled, err.Error())
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(png); err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, "failed to load image: "+err.Error())
	}
	text, err := t.client.Text()
	if err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, "text extraction failed: "+err.Error())
	}

	t.log.Debug().
		Int("chars", len(text)).
		Dur("duration", time.Since(start)).
		Msg("Tesseract recognition finished")

	return newResult(EngineTesseract, text, 0, start), nil
}

// Warm loads the language models by recognising a blank image.
func (t *TesseractEngine) Warm(ctx context.Context) error {
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	for i := range img.Pix {
		img.Pix[i] = color.White.Y
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return WrapOCRError("TesseractEngine.Warm", err, "failed to encode warm-up image")
	}
	_, err := t.Recognize(ctx, buf.Bytes())
	return err
}

// Close releases the Tesseract client.
func (t *TesseractEngine) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}
