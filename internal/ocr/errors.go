package ocr

import (
	"errors"
	"fmt"
)

// Engine errors
var (
	// ErrEmptyImage is returned when an engine is handed no image bytes.
	ErrEmptyImage = errors.New("image data is empty")

	// ErrImageTooLarge is returned when the encoded image exceeds the engine's inline limit.
	ErrImageTooLarge = errors.New("image exceeds the maximum inline size (20MB)")

	// ErrOCRFailed is returned when the engine call itself fails.
	ErrOCRFailed = errors.New("OCR processing failed")

	// ErrMissingCredentials is returned when a cloud engine has no usable credentials.
	ErrMissingCredentials = errors.New("missing credentials for OCR engine")

	// ErrInvalidConfiguration is returned for incomplete engine settings.
	ErrInvalidConfiguration = errors.New("invalid OCR engine configuration")

	// ErrUnknownEngine is returned by New for an unrecognised engine name.
	ErrUnknownEngine = errors.New("unknown OCR engine")

	// ErrEngineUnavailable is returned when an engine was not compiled into the binary.
	ErrEngineUnavailable = errors.New("OCR engine not available in this build")

	// ErrContextCanceled is returned when the caller gave up before the engine answered.
	ErrContextCanceled = errors.New("OCR processing was canceled")
)

// OCRError records which engine operation failed.
type OCRError struct {
	Op      string
	Err     error
	Details string
}

func (e *OCRError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

func (e *OCRError) Unwrap() error {
	return e.Err
}

func (e *OCRError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapOCRError wraps err with the failing operation. Errors that already carry an
// operation are returned unchanged so the innermost one is reported.
func WrapOCRError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err
	}

	return &OCRError{Op: op, Err: err, Details: details}
}
