// Package server exposes the OCR pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"visaocr/internal/logger"
	"visaocr/internal/pipeline"
	"visaocr/internal/response"
)

// FormField is the multipart field carrying the screenshot.
const FormField = "file"

// Scanner is the part of the pipeline the server needs.
type Scanner interface {
	Scan(ctx context.Context, data []byte) *pipeline.Outcome
}

// Config holds HTTP settings.
type Config struct {
	Addr              string
	MaxUploadBytes    int64
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Server is the HTTP API.
type Server struct {
	cfg     Config
	scanner Scanner
	router  *gin.Engine
	limiter *rateLimiter
	http    *http.Server
	log     zerolog.Logger
}

// New builds the router.
func New(cfg Config, scanner Scanner) *Server {
	s := &Server{
		cfg:     cfg,
		scanner: scanner,
		limiter: newRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		log:     logger.WithComponent("http"),
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestContext(), accessLog(), allowCORS())

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	ocr := r.Group("/ocr", s.limiter.middleware())
	ocr.POST("", s.handleOCR)
	ocr.POST("/", s.handleOCR)

	s.router = r
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.close()
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleOCR(c *gin.Context) {
	log := logger.FromContext(c.Request.Context())

	header, err := c.FormFile(FormField)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Reject(response.CodeNoFile, "No file uploaded"))
		return
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Reject(response.CodeImageProcessingError, "Failed to read upload"))
		return
	}
	defer f.Close()

	// Read one byte past the limit so oversize uploads are still detected.
	var reader io.Reader = f
	if s.cfg.MaxUploadBytes > 0 {
		reader = io.LimitReader(f, s.cfg.MaxUploadBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Reject(response.CodeImageProcessingError, "Failed to read upload"))
		return
	}

	out := s.scanner.Scan(c.Request.Context(), data)

	ev := log.Info().
		Str("filename", header.Filename).
		Int("bytes", len(data)).
		Str("fingerprint", out.Fingerprint).
		Bool("cache_hit", out.CacheHit).
		Bool("success", out.Response.Success)
	if out.Response.ErrorCode != "" {
		ev = ev.Str("error_code", out.Response.ErrorCode)
	}
	if fd := out.Response.FormData; fd != nil {
		ev = ev.Float64("confidence", fd.Meta.Confidence)
	}
	ev.Msg("OCR request handled")

	c.JSON(statusFor(out.Response), out.Response)
}

// statusFor maps a response to its HTTP status. A screenshot that is not a visa
// page is a normal answer, not a client error.
func statusFor(resp *response.Response) int {
	if resp.Success {
		return http.StatusOK
	}
	switch resp.ErrorCode {
	case response.CodeInvalidScreenshot:
		return http.StatusOK
	case response.CodeNoFile, response.CodeInvalidFileType, response.CodeEmptyFile, response.CodeInvalidImage:
		return http.StatusBadRequest
	case response.CodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case response.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
