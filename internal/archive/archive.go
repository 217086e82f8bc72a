// Package archive stores uploaded screenshots for later review. Archiving is a side
// effect of an upload and never decides its outcome.
package archive

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Archive modes.
const (
	ModeOff    = "off"
	ModeDirect = "direct"
	ModeQueue  = "queue"
)

// DefaultBucket is the bucket screenshots are written to.
const DefaultBucket = "visa-screenshots"

// Screenshot is one uploaded image.
type Screenshot struct {
	Data        []byte `json:"data"`
	ContentType string `json:"content_type"`
	Fingerprint string `json:"fingerprint"`
}

// Archiver persists a screenshot.
type Archiver interface {
	Archive(ctx context.Context, shot Screenshot) error
}

// ObjectName returns a fresh object key under screenshots/.
func ObjectName() string {
	return fmt.Sprintf("screenshots/%s.png", uuid.NewString())
}

// Discard drops screenshots; it backs ModeOff.
type Discard struct{}

// Archive implements Archiver.
func (Discard) Archive(context.Context, Screenshot) error { return nil }
