//go:build !tesseract

package ocr

// NewTesseractEngine reports that Tesseract support was not compiled in. Build with
// -tags tesseract (and libtesseract installed) to enable it.
func NewTesseractEngine(Config) (Engine, error) {
	return nil, WrapOCRError("NewTesseractEngine", ErrEngineUnavailable, "rebuild with -tags tesseract")
}
