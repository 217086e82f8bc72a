// Package cache memoizes OCR responses by image fingerprint.
//
// Both successful parses and screenshot rejections are stored, so a repeated upload
// of the same image always gets the same answer without running OCR again.
package cache

import (
	"context"
	"time"

	"visaocr/internal/response"
)

// Defaults for the in-process store.
const (
	DefaultMaxEntries = 5000
	DefaultTTL        = time.Hour
)

// Store is a fingerprint-keyed response store. Implementations must be safe for
// concurrent use; Get and Set are atomic per key. Store failures surface as misses.
type Store interface {
	Get(ctx context.Context, key string) (*response.Response, bool)
	Set(ctx context.Context, key string, resp *response.Response)
}
