package progress

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mind-engage/eduverse/internal/apperr"
	"github.com/mind-engage/eduverse/internal/tables"
)

const table = "progress"

type Service struct {
	store tables.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewService(store tables.Store, log zerolog.Logger) *Service {
	return &Service{store: store, log: log.With().Str("component", "progress").Logger(), now: time.Now}
}

// Get returns userID's progress in courseID. Only the user may read it; a
// missing record reads as zero progress.
func (s *Service) Get(ctx context.Context, viewerID, userID, courseID string) (tables.Row, error) {
	if viewerID != userID {
		return nil, apperr.Forbidden("Forbidden")
	}
	row, err := tables.SelectOne(ctx, s.store, table, tables.Query{
		Filters: []tables.Filter{tables.Eq("user_id", userID), tables.Eq("course_id", courseID)},
	})
	if err == nil {
		return row, nil
	}
	s.log.Debug().Err(err).Str("user_id", userID).Str("course_id", courseID).Msg("no stored progress")
	now := s.now().UTC().Format(time.RFC3339Nano)
	return tables.Row{
		"user_id":                userID,
		"course_id":              courseID,
		"completed_percent":      0,
		"last_watched_lesson_id": nil,
		"created_at":             now,
		"updated_at":             now,
	}, nil
}

type UpdateInput struct {
	CourseID            string
	CompletedPercent    float64
	LastWatchedLessonID any // optional; nil leaves the stored value alone
}

// Update records progress, last write wins.
func (s *Service) Update(ctx context.Context, userID string, in UpdateInput) (tables.Row, error) {
	row := tables.Row{
		"user_id":           userID,
		"course_id":         in.CourseID,
		"completed_percent": in.CompletedPercent,
		"updated_at":        s.now().UTC().Format(time.RFC3339Nano),
	}
	if in.LastWatchedLessonID != nil {
		row["last_watched_lesson_id"] = in.LastWatchedLessonID
	}
	saved, err := s.store.Upsert(ctx, table, row, "user_id", "course_id")
	if err != nil {
		return nil, apperr.Upstream(http.StatusBadRequest, err)
	}
	return saved, nil
}
