package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/mind-engage/eduverse/internal/storage"
)

var _ storage.Signer = (*Client)(nil)

func (c *Client) SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	key = escapePath(key)
	if key == "" {
		return "", storage.ErrEmptyKey
	}
	var out struct {
		SignedURL string `json:"signedURL"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/storage/v1/object/sign/" + url.PathEscape(bucket) + "/" + key,
		body:   map[string]int64{"expiresIn": int64(ttl / time.Second)},
	}, &out)
	if err != nil {
		return "", err
	}
	if out.SignedURL == "" {
		return "", errors.New("storage returned an empty signed URL")
	}
	// signedURL is relative to the storage API root.
	return c.baseURL + "/storage/v1" + out.SignedURL, nil
}
