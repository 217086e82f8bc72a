package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"visaocr/internal/logger"
)

// DocumentAIEngine sends images to a Document AI OCR processor.
type DocumentAIEngine struct {
	client *documentai.DocumentProcessorClient
	cfg    Config
	log    zerolog.Logger
}

// NewDocumentAIEngine creates a regional Document AI client.
// Requires ProjectID and ProcessorID; Location defaults to "us".
func NewDocumentAIEngine(ctx context.Context, cfg Config) (*DocumentAIEngine, error) {
	const op = "NewDocumentAIEngine"

	if cfg.ProjectID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "GOOGLE_CLOUD_PROJECT is required")
	}
	if cfg.ProcessorID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if cfg.Location == "" {
		cfg.Location = "us"
	}

	opts := googleClientOptions(cfg)
	if cfg.Location != "us" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		if !hasExplicitCredentials(cfg) {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials configured and no default credentials found")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", cfg.Location))
	}

	return NewDocumentAIEngineWithClient(client, cfg), nil
}

// NewDocumentAIEngineWithClient wraps an existing client.
func NewDocumentAIEngineWithClient(client *documentai.DocumentProcessorClient, cfg Config) *DocumentAIEngine {
	if cfg.Location == "" {
		cfg.Location = "us"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &DocumentAIEngine{
		client: client,
		cfg:    cfg,
		log:    logger.WithComponent("ocr.documentai"),
	}
}

// Name implements Engine.
func (d *DocumentAIEngine) Name() string { return EngineDocumentAI }

// Recognize implements Engine.
func (d *DocumentAIEngine) Recognize(ctx context.Context, png []byte) (*Result, error) {
	const op = "DocumentAIEngine.Recognize"
	start := time.Now()

	if err := checkImage(op, png); err != nil {
		return nil, err
	}

	processCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: d.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  png,
				MimeType: "image/png",
			},
		},
	}

	resp, err := d.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, d.handleProcessingError(op, processCtx, err)
	}
	if resp.GetDocument() == nil {
		return nil, WrapOCRError(op, ErrOCRFailed, "no document in response")
	}

	text, confidence := documentText(resp.GetDocument())
	d.log.Debug().
		Int("chars", len(text)).
		Float32("confidence", confidence).
		Dur("duration", time.Since(start)).
		Msg("Document AI OCR finished")

	return newResult(EngineDocumentAI, text, confidence, start), nil
}

// processorName is the full resource name of the configured processor.
func (d *DocumentAIEngine) processorName() string {
	name := fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		d.cfg.ProjectID, d.cfg.Location, d.cfg.ProcessorID)
	if d.cfg.ProcessorVersion != "" {
		name += "/processorVersions/" + d.cfg.ProcessorVersion
	}
	return name
}

func (d *DocumentAIEngine) handleProcessingError(op string, ctx context.Context, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PermissionDenied") || strings.Contains(errStr, "PERMISSION_DENIED"):
		return WrapOCRError(op, ErrMissingCredentials, "insufficient permissions for Document AI")
	case strings.Contains(errStr, "NotFound") || strings.Contains(errStr, "NOT_FOUND"):
		return WrapOCRError(op, ErrInvalidConfiguration, fmt.Sprintf("processor not found: %s", d.cfg.ProcessorID))
	default:
		return callError(op, ctx, err, "Document AI")
	}
}

// documentText returns the document text and the mean page layout confidence.
func documentText(doc *documentaipb.Document) (string, float32) {
	var sum float32
	var n int
	for _, page := range doc.GetPages() {
		if layout := page.GetLayout(); layout != nil {
			sum += layout.GetConfidence()
			n++
		}
	}
	if n == 0 {
		return doc.GetText(), 0
	}
	return doc.GetText(), sum / float32(n)
}

// Close closes the underlying client.
func (d *DocumentAIEngine) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}
