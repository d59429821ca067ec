package lesson

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mind-engage/eduverse/internal/apperr"
	"github.com/mind-engage/eduverse/internal/storage"
	"github.com/mind-engage/eduverse/internal/tables"
)

const table = "lessons"

type Service struct {
	store  tables.Store
	signer storage.Signer
	bucket string
	ttl    time.Duration
}

func NewService(store tables.Store, signer storage.Signer, bucket string, ttl time.Duration) *Service {
	if bucket == "" {
		bucket = "videos"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{store: store, signer: signer, bucket: bucket, ttl: ttl}
}

// List returns the course's lessons in playback order.
func (s *Service) List(ctx context.Context, courseID string) ([]tables.Row, error) {
	rows, err := s.store.Select(ctx, table, tables.Query{
		Filters: []tables.Filter{tables.Eq("course_id", courseID)},
		Order:   &tables.Order{Column: "position"},
	})
	if err != nil {
		return nil, apperr.Upstream(http.StatusInternalServerError, err)
	}
	return rows, nil
}

// StreamURL signs the lesson's video for playback.
func (s *Service) StreamURL(ctx context.Context, id string) (string, error) {
	row, err := tables.SelectOne(ctx, s.store, table, tables.Query{Filters: []tables.Filter{tables.Eq("id", id)}})
	if err != nil {
		return "", apperr.NotFound("Lesson not found")
	}
	url, err := s.signer.SignedURL(ctx, s.bucket, row.String("video_path"), s.ttl)
	if errors.Is(err, storage.ErrEmptyKey) {
		return "", apperr.NotFound("Lesson has no video")
	}
	if err != nil {
		return "", apperr.Upstream(http.StatusInternalServerError, err)
	}
	return url, nil
}
