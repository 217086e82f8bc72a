package ocr

import (
	"context"
	"fmt"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"

	"visaocr/internal/logger"
)

// GoogleVisionEngine runs Cloud Vision document text detection on single images.
type GoogleVisionEngine struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

// NewGoogleVisionEngine creates a Vision client from the configured credentials.
func NewGoogleVisionEngine(ctx context.Context, cfg Config) (*GoogleVisionEngine, error) {
	const op = "NewGoogleVisionEngine"

	client, err := vision.NewImageAnnotatorClient(ctx, googleClientOptions(cfg)...)
	if err != nil {
		if !hasExplicitCredentials(cfg) {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials configured and no default credentials found")
		}
		return nil, WrapOCRError(op, err, "failed to create Vision client")
	}
	return NewGoogleVisionEngineWithClient(client), nil
}

// NewGoogleVisionEngineWithClient wraps an existing client.
func NewGoogleVisionEngineWithClient(client *vision.ImageAnnotatorClient) *GoogleVisionEngine {
	return &GoogleVisionEngine{
		client: client,
		log:    logger.WithComponent("ocr.vision"),
	}
}

// Name implements Engine.
func (g *GoogleVisionEngine) Name() string { return EngineVision }

// Recognize implements Engine.
func (g *GoogleVisionEngine) Recognize(ctx context.Context, png []byte) (*Result, error) {
	const op = "GoogleVisionEngine.Recognize"
	start := time.Now()

	if err := checkImage(op, png); err != nil {
		return nil, err
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: png},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, callError(op, ctx, err, "Vision API")
	}

	text, confidence, err := visionText(resp)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read Vision API response")
	}

	g.log.Debug().
		Int("chars", len(text)).
		Float32("confidence", confidence).
		Dur("duration", time.Since(start)).
		Msg("Vision text detection finished")

	return newResult(EngineVision, text, confidence, start), nil
}

// visionText pulls the full text and average page confidence out of a response.
func visionText(resp *visionpb.BatchAnnotateImagesResponse) (string, float32, error) {
	if resp == nil || len(resp.Responses) == 0 {
		return "", 0, fmt.Errorf("%w: no response from Vision API", ErrOCRFailed)
	}

	r := resp.Responses[0]
	if r.Error != nil && r.Error.Message != "" {
		return "", 0, fmt.Errorf("%w: Vision API error: %s", ErrOCRFailed, r.Error.Message)
	}

	annotation := r.GetFullTextAnnotation()
	if annotation == nil {
		return "", 0, nil
	}

	var sum float32
	for _, page := range annotation.Pages {
		sum += page.Confidence
	}
	var avg float32
	if len(annotation.Pages) > 0 {
		avg = sum / float32(len(annotation.Pages))
	}
	return annotation.Text, avg, nil
}

// Close closes the underlying Vision client.
func (g *GoogleVisionEngine) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
