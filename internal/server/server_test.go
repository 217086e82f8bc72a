package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visaocr/internal/pipeline"
	"visaocr/internal/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeScanner struct {
	mu   sync.Mutex
	got  [][]byte
	resp *response.Response
}

func (f *fakeScanner) Scan(_ context.Context, data []byte) *pipeline.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, data)
	return &pipeline.Outcome{Response: f.resp, Fingerprint: "abc123", CacheHit: len(f.got) > 1}
}

func successResponse() *response.Response {
	consulate := "New Delhi"
	return &response.Response{
		Success: true,
		FormData: &response.FormData{
			Consulate:      &consulate,
			AvailableSlots: []response.SlotView{},
			Meta:           response.MetaView{Sources: []string{"table"}, Confidence: 0.95},
		},
	}
}

func uploadRequest(t *testing.T, path, field string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if field != "" {
		part, err := w.CreateFormFile(field, "screenshot.png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func newTestServer(scanner Scanner, cfg Config) *Server {
	s := New(cfg, scanner)
	return s
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var out response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeScanner{}, Config{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestOCRUpload(t *testing.T) {
	scanner := &fakeScanner{resp: successResponse()}
	s := newTestServer(scanner, Config{MaxUploadBytes: 1 << 20})

	for _, path := range []string{"/ocr", "/ocr/"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, uploadRequest(t, path, FormField, []byte("png-bytes")))

		require.Equal(t, http.StatusOK, rec.Code, path)
		out := decode(t, rec)
		assert.True(t, out.Success)
		require.NotNil(t, out.FormData)
		assert.Equal(t, "New Delhi", *out.FormData.Consulate)
		assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	}

	require.Len(t, scanner.got, 2)
	assert.Equal(t, []byte("png-bytes"), scanner.got[0])
}

func TestOCRMissingFile(t *testing.T) {
	scanner := &fakeScanner{resp: successResponse()}
	s := newTestServer(scanner, Config{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, "/ocr", "", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	out := decode(t, rec)
	assert.False(t, out.Success)
	assert.Equal(t, response.CodeNoFile, out.ErrorCode)
	assert.Empty(t, scanner.got)
}

func TestOCRWrongField(t *testing.T) {
	scanner := &fakeScanner{resp: successResponse()}
	s := newTestServer(scanner, Config{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, "/ocr", "image", []byte("x")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, response.CodeNoFile, decode(t, rec).ErrorCode)
}

func TestOCRTruncatesOversizedUpload(t *testing.T) {
	scanner := &fakeScanner{resp: response.Reject(response.CodeFileTooLarge, "too large")}
	s := newTestServer(scanner, Config{MaxUploadBytes: 4})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, "/ocr", FormField, []byte("0123456789")))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Len(t, scanner.got, 1)
	assert.Len(t, scanner.got[0], 5)
}

func TestOCRInvalidScreenshotIsOK(t *testing.T) {
	scanner := &fakeScanner{resp: response.InvalidScreenshot()}
	s := newTestServer(scanner, Config{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, "/ocr", FormField, []byte("x")))

	assert.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.False(t, out.Success)
	assert.Equal(t, response.CodeInvalidScreenshot, out.ErrorCode)
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(&fakeScanner{}, Config{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-42")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
}

func TestRateLimit(t *testing.T) {
	scanner := &fakeScanner{resp: successResponse()}
	s := newTestServer(scanner, Config{RateLimitRequests: 2, RateLimitWindow: time.Minute})
	defer s.Shutdown(context.Background())

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		s.Handler().ServeHTTP(last, uploadRequest(t, "/ocr", FormField, []byte("x")))
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, response.CodeRateLimited, decode(t, last).ErrorCode)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
	assert.Len(t, scanner.got, 2)

	// health is not limited
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitPerClient(t *testing.T) {
	s := newTestServer(&fakeScanner{resp: successResponse()}, Config{RateLimitRequests: 1, RateLimitWindow: time.Minute})
	defer s.Shutdown(context.Background())

	for _, addr := range []string{"10.0.0.1:1000", "10.0.0.2:1000"} {
		req := uploadRequest(t, "/ocr", FormField, []byte("x"))
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, addr)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(&fakeScanner{}, Config{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(&fakeScanner{}, Config{})
	req := httptest.NewRequest(http.MethodOptions, "/ocr", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestCORSSimpleRequest(t *testing.T) {
	s := newTestServer(&fakeScanner{}, Config{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := map[string]int{
		response.CodeNoFile:               http.StatusBadRequest,
		response.CodeInvalidFileType:      http.StatusBadRequest,
		response.CodeEmptyFile:            http.StatusBadRequest,
		response.CodeInvalidImage:         http.StatusBadRequest,
		response.CodeFileTooLarge:         http.StatusRequestEntityTooLarge,
		response.CodeRateLimited:          http.StatusTooManyRequests,
		response.CodeInvalidScreenshot:    http.StatusOK,
		response.CodeImageProcessingError: http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, statusFor(response.Reject(code, "")), code)
	}
	assert.Equal(t, http.StatusOK, statusFor(successResponse()))
}

func TestRateLimiterReusesBucket(t *testing.T) {
	l := newRateLimiter(1, time.Minute)
	defer l.close()

	ok, _ := l.allow("10.0.0.1")
	require.True(t, ok)
	first := l.buckets.Get("10.0.0.1").Value()

	ok, retryAfter := l.allow("10.0.0.1")
	assert.False(t, ok)
	assert.Positive(t, retryAfter)
	assert.Same(t, first, l.buckets.Get("10.0.0.1").Value())
	assert.Equal(t, 1, l.buckets.Len())
}
