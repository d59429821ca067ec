package storage

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FSStore serves objects from a local directory, one sub-directory per
// bucket. Offline mode only: URLs are file:// and the expiry is advisory.
type FSStore struct {
	base string
	now  func() time.Time
}

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base, now: time.Now}, nil
}

func (s *FSStore) SignedURL(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", ErrEmptyKey
	}
	abs, err := filepath.Abs(filepath.Join(s.base, filepath.Clean("/"+bucket), filepath.Clean("/"+key)))
	if err != nil {
		return "", err
	}
	u := url.URL{
		Scheme:   "file",
		Path:     filepath.ToSlash(abs),
		RawQuery: url.Values{"expires": {strconv.FormatInt(s.now().Add(ttl).Unix(), 10)}}.Encode(),
	}
	return u.String(), nil
}
