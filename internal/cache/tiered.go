package cache

import (
	"context"

	"visaocr/internal/response"
)

// Tiered checks a local store before a shared one and back-fills the local store
// on a shared hit.
type Tiered struct {
	local  Store
	shared Store
}

// NewTiered layers local over shared.
func NewTiered(local, shared Store) *Tiered {
	return &Tiered{local: local, shared: shared}
}

// Get implements Store.
func (t *Tiered) Get(ctx context.Context, key string) (*response.Response, bool) {
	if resp, ok := t.local.Get(ctx, key); ok {
		return resp, true
	}
	resp, ok := t.shared.Get(ctx, key)
	if !ok {
		return nil, false
	}
	t.local.Set(ctx, key, resp)
	return resp, true
}

// Set implements Store.
func (t *Tiered) Set(ctx context.Context, key string, resp *response.Response) {
	t.local.Set(ctx, key, resp)
	t.shared.Set(ctx, key, resp)
}
