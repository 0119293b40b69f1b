package cache

import (
	"context"
	"time"

	"github.com/sellout/backend/internal/domain/sellout"
)

// ReferenceCache stores the reference snapshot shared by report requests
type ReferenceCache interface {
	Get(ctx context.Context) (*sellout.ReferenceSnapshot, bool, error)
	Set(ctx context.Context, snapshot *sellout.ReferenceSnapshot, ttl time.Duration) error
	Invalidate(ctx context.Context) error
	Close() error
}

// DefaultReferenceKey is the redis key holding the encoded snapshot
const DefaultReferenceKey = "sellout:references:v1"
