// Package imaging validates uploads and turns them into the canonical image the
// OCR engines read and the result cache is keyed by.
package imaging

import (
	"fmt"
	"net/http"
	"slices"

	"visaocr/internal/response"
)

// DefaultMaxBytes is the upload size limit when none is configured.
const DefaultMaxBytes = 5 << 20

// AllowedTypes are the sniffed content types accepted from clients.
var AllowedTypes = []string{"image/png", "image/jpeg"}

// UploadError is a client-facing rejection carrying a response error code.
type UploadError struct {
	Code    string
	Message string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Response converts the error into a rejected response.
func (e *UploadError) Response() *response.Response {
	return response.Reject(e.Code, e.Message)
}

// Limits bounds what CheckUpload accepts.
type Limits struct {
	MaxBytes     int64
	AllowedTypes []string
}

// DefaultLimits mirrors the service defaults.
func DefaultLimits() Limits {
	return Limits{MaxBytes: DefaultMaxBytes, AllowedTypes: AllowedTypes}
}

// CheckUpload applies the upload guardrails. The content type is sniffed from the
// bytes; the client-declared type is not trusted.
func CheckUpload(data []byte, limits Limits) error {
	if len(data) == 0 {
		return &UploadError{Code: response.CodeEmptyFile, Message: "Uploaded file is empty"}
	}
	if limits.MaxBytes > 0 && int64(len(data)) > limits.MaxBytes {
		return &UploadError{
			Code:    response.CodeFileTooLarge,
			Message: fmt.Sprintf("File exceeds the %d MB limit", limits.MaxBytes>>20),
		}
	}
	if len(limits.AllowedTypes) > 0 {
		if ct := http.DetectContentType(data); !slices.Contains(limits.AllowedTypes, ct) {
			return &UploadError{
				Code:    response.CodeInvalidFileType,
				Message: "Only PNG and JPEG images are supported",
			}
		}
	}
	return nil
}
