// Package pipeline runs a screenshot through guardrails, OCR, validation, extraction
// and the result cache.
package pipeline

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"visaocr/internal/archive"
	"visaocr/internal/cache"
	"visaocr/internal/extract"
	"visaocr/internal/imaging"
	"visaocr/internal/logger"
	"visaocr/internal/metrics"
	"visaocr/internal/ocr"
	"visaocr/internal/reports"
	"visaocr/internal/response"
)

// DefaultSideEffectTimeout bounds archive and report dispatches.
const DefaultSideEffectTimeout = 30 * time.Second

const (
	outcomeSuccess        = "success"
	outcomeNoAvailability = "no_availability"
)

// Config wires a Service. Engine and Cache are required; the rest have defaults.
type Config struct {
	Engine   ocr.Engine
	Cache    cache.Store
	Parser   *extract.Parser
	Archiver archive.Archiver
	Reports  reports.Sink

	Limits   imaging.Limits
	MaxWidth int

	// OCRTimeout bounds a single Recognize call. Zero means no extra deadline.
	OCRTimeout        time.Duration
	SideEffectTimeout time.Duration
}

// Service processes screenshots. It is safe for concurrent use.
type Service struct {
	engine   ocr.Engine
	cache    cache.Store
	parser   *extract.Parser
	archiver archive.Archiver
	reports  reports.Sink

	limits   imaging.Limits
	maxWidth int

	ocrTimeout        time.Duration
	sideEffectTimeout time.Duration
	now               func() time.Time
	wg                sync.WaitGroup
	log               zerolog.Logger
}

// Outcome is the answer to one scan plus what the caller needs for auditing.
type Outcome struct {
	Response    *response.Response
	Fingerprint string
	CacheHit    bool
}

// New creates a Service.
func New(cfg Config) *Service {
	s := &Service{
		engine:            cfg.Engine,
		cache:             cfg.Cache,
		parser:            cfg.Parser,
		archiver:          cfg.Archiver,
		reports:           cfg.Reports,
		limits:            cfg.Limits,
		maxWidth:          cfg.MaxWidth,
		ocrTimeout:        cfg.OCRTimeout,
		sideEffectTimeout: cfg.SideEffectTimeout,
		now:               time.Now,
		log:               logger.WithComponent("pipeline"),
	}
	if s.parser == nil {
		s.parser = extract.NewParser()
	}
	if s.archiver == nil {
		s.archiver = archive.Discard{}
	}
	if s.reports == nil {
		s.reports = reports.Discard{}
	}
	if s.maxWidth <= 0 {
		s.maxWidth = imaging.DefaultMaxWidth
	}
	if s.sideEffectTimeout <= 0 {
		s.sideEffectTimeout = DefaultSideEffectTimeout
	}
	return s
}

// Scan handles an uploaded image end to end. Upload and OCR failures come back as
// rejected responses and are not cached; screenshot rejections and parses are.
func (s *Service) Scan(ctx context.Context, data []byte) *Outcome {
	log := logger.FromContext(ctx)

	if err := imaging.CheckUpload(data, s.limits); err != nil {
		return s.rejectUpload(err)
	}

	prepared, err := imaging.Prepare(data, s.maxWidth)
	if err != nil {
		return s.rejectUpload(err)
	}
	out := &Outcome{Fingerprint: prepared.Fingerprint}

	if resp, ok := s.cache.Get(ctx, prepared.Fingerprint); ok {
		log.Debug().Str("fingerprint", prepared.Fingerprint).Msg("Result cache hit")
		out.Response, out.CacheHit = resp, true
		return out
	}

	s.dispatch(ctx, "archive", func(ctx context.Context) error {
		return s.archiver.Archive(ctx, archive.Screenshot{
			Data:        data,
			ContentType: http.DetectContentType(data),
			Fingerprint: prepared.Fingerprint,
		})
	})

	png, err := prepared.PNG()
	if err != nil {
		out.Response = s.rejectUpload(err).Response
		return out
	}

	start := time.Now()
	result, err := s.recognize(ctx, png)
	if err != nil {
		metrics.RecordOCRDuration(s.engine.Name(), "error", time.Since(start).Seconds())
		log.Error().Err(err).
			Str("engine", s.engine.Name()).
			Str("fingerprint", prepared.Fingerprint).
			Msg("OCR failed")
		metrics.RecordOutcome(response.CodeImageProcessingError)
		out.Response = response.Reject(response.CodeImageProcessingError, "Could not read text from the image")
		return out
	}
	metrics.RecordOCRDuration(s.engine.Name(), "ok", time.Since(start).Seconds())

	out.Response = s.process(ctx, result.Text, prepared.Fingerprint)
	return out
}

func (s *Service) recognize(ctx context.Context, png []byte) (*ocr.Result, error) {
	if s.ocrTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ocrTimeout)
		defer cancel()
	}
	return s.engine.Recognize(ctx, png)
}

// Process runs the text stage for OCR output that was already computed. A cached
// answer for fingerprint is returned as is. An empty fingerprint disables caching.
func (s *Service) Process(ctx context.Context, rawText, fingerprint string) *response.Response {
	if fingerprint != "" {
		if resp, ok := s.cache.Get(ctx, fingerprint); ok {
			return resp
		}
	}
	return s.process(ctx, rawText, fingerprint)
}

func (s *Service) process(ctx context.Context, rawText, fingerprint string) *response.Response {
	log := logger.FromContext(ctx)
	lines := extract.CleanLines(rawText)

	if !extract.ValidateScreenshot(rawText, lines) {
		resp := response.InvalidScreenshot()
		s.store(ctx, fingerprint, resp)
		metrics.RecordOutcome(response.CodeInvalidScreenshot)
		log.Info().
			Str("fingerprint", fingerprint).
			Int("lines", len(lines)).
			Msg("Rejected: not a visa appointment screenshot")
		return resp
	}

	res := s.parser.Parse(lines)
	resp := response.Build(rawText, res)
	s.store(ctx, fingerprint, resp)

	if !res.HasAvailability() {
		metrics.RecordOutcome(outcomeNoAvailability)
		return resp
	}
	metrics.RecordOutcome(outcomeSuccess)
	metrics.RecordExtractorWin(res.Meta.Sources[0])

	if report, ok := reports.FromResult(fingerprint, res, s.now()); ok {
		s.dispatch(ctx, "report", func(ctx context.Context) error {
			return s.reports.Record(ctx, report)
		})
	}

	log.Info().
		Str("fingerprint", fingerprint).
		Str("source", res.Meta.Sources[0]).
		Float64("confidence", res.Meta.Confidence).
		Int("slots", len(res.AvailableSlots)).
		Msg("Availability extracted")
	return resp
}

func (s *Service) store(ctx context.Context, fingerprint string, resp *response.Response) {
	if fingerprint == "" {
		return
	}
	s.cache.Set(ctx, fingerprint, resp)
}

func (s *Service) rejectUpload(err error) *Outcome {
	var resp *response.Response
	var ue *imaging.UploadError
	if errors.As(err, &ue) {
		resp = ue.Response()
	} else {
		resp = response.Reject(response.CodeImageProcessingError, err.Error())
	}
	metrics.RecordOutcome(resp.ErrorCode)
	return &Outcome{Response: resp}
}

// dispatch runs fn in the background, detached from the caller's cancellation.
// Failures are logged and counted; they never reach the caller.
func (s *Service) dispatch(ctx context.Context, kind string, fn func(context.Context) error) {
	log := logger.FromContext(ctx).With().Str("side_effect", kind).Logger()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sideEffectTimeout)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		if err := fn(ctx); err != nil {
			metrics.RecordSideEffectFailure(kind)
			log.Warn().Err(err).Msg("Background dispatch failed")
		}
	}()
}

// Warm gives the engine a throwaway run if it supports one.
func (s *Service) Warm(ctx context.Context) error {
	if w, ok := s.engine.(ocr.Warmer); ok {
		return w.Warm(ctx)
	}
	return nil
}

// EngineName names the configured OCR engine.
func (s *Service) EngineName() string {
	return s.engine.Name()
}

// Wait blocks until in-flight background dispatches have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}
