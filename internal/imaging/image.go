package imaging

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"visaocr/internal/response"
)

// DefaultMaxWidth is the width screenshots are scaled down to before OCR.
const DefaultMaxWidth = 1024

// Prepared is a decoded, resized screenshot in canonical RGBA form.
type Prepared struct {
	Image       *image.RGBA
	Fingerprint string

	pngOnce sync.Once
	png     []byte
	pngErr  error
}

// Prepare decodes data, scales it down to maxWidth if wider, and fingerprints the
// resulting pixels. The same image always yields the same fingerprint regardless of
// its original encoding metadata.
func Prepare(data []byte, maxWidth int) (*Prepared, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &UploadError{Code: response.CodeInvalidImage, Message: "Could not decode image"}
	}
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}

	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, &UploadError{Code: response.CodeInvalidImage, Message: "Image has no pixels"}
	}

	rgba := Resize(src, maxWidth)
	return &Prepared{Image: rgba, Fingerprint: Fingerprint(rgba)}, nil
}

// Resize returns src as RGBA, scaled proportionally when wider than maxWidth.
func Resize(src image.Image, maxWidth int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > maxWidth {
		h = max(h*maxWidth/w, 1)
		w = maxWidth
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}
	draw.BiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// Fingerprint hashes the dimensions and pixel data of img.
func Fingerprint(img *image.RGBA) string {
	h := xxhash.New()

	var dim [8]byte
	binary.BigEndian.PutUint32(dim[0:4], uint32(img.Rect.Dx()))
	binary.BigEndian.PutUint32(dim[4:8], uint32(img.Rect.Dy()))
	_, _ = h.Write(dim[:])

	rowLen := img.Rect.Dx() * 4
	for y := 0; y < img.Rect.Dy(); y++ {
		off := y * img.Stride
		_, _ = h.Write(img.Pix[off : off+rowLen])
	}

	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], h.Sum64())
	return hex.EncodeToString(sum[:])
}

// PNG returns the canonical image encoded as PNG, encoding it once on first use.
func (p *Prepared) PNG() ([]byte, error) {
	p.pngOnce.Do(func() {
		var buf bytes.Buffer
		if err := png.Encode(&buf, p.Image); err != nil {
			p.pngErr = &UploadError{Code: response.CodeImageProcessingError, Message: "Could not encode image"}
			return
		}
		p.png = buf.Bytes()
	})
	return p.png, p.pngErr
}
