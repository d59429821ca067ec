package storage

import (
	"context"
	"errors"
	"time"
)

var ErrEmptyKey = errors.New("empty object key")

// Signer issues time-limited URLs for objects in a bucket.
type Signer interface {
	SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}
