package course

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mind-engage/eduverse/internal/apperr"
	"github.com/mind-engage/eduverse/internal/tables"
)

const table = "courses"

var errNotFound = apperr.NotFound("Course not found")

type Service struct {
	store tables.Store
	log   zerolog.Logger
}

func NewService(store tables.Store, log zerolog.Logger) *Service {
	return &Service{store: store, log: log.With().Str("component", "course").Logger()}
}

// List returns every course, newest id first. Stores that cannot order by
// id still get an unordered listing.
func (s *Service) List(ctx context.Context) ([]tables.Row, error) {
	rows, err := s.store.Select(ctx, table, tables.Query{Order: &tables.Order{Column: "id", Desc: true}})
	if err == nil {
		return rows, nil
	}
	s.log.Warn().Err(err).Msg("ordered course listing failed, retrying unordered")
	rows, err = s.store.Select(ctx, table, tables.Query{})
	if err != nil {
		return nil, apperr.Upstream(http.StatusInternalServerError, err)
	}
	return rows, nil
}

func (s *Service) Get(ctx context.Context, id string) (tables.Row, error) {
	row, err := tables.SelectOne(ctx, s.store, table, tables.Query{Filters: []tables.Filter{tables.Eq("id", id)}})
	if err != nil {
		if !errors.Is(err, tables.ErrNoRows) {
			s.log.Debug().Err(err).Str("course_id", id).Msg("course lookup failed")
		}
		return nil, errNotFound
	}
	return row, nil
}

type CreateInput struct {
	Title        string
	Description  string
	ThumbnailURL string
	IsPremium    *bool
	Price        *float64
}

func (s *Service) Create(ctx context.Context, instructorID string, in CreateInput) (tables.Row, error) {
	row := tables.Row{
		"title":         in.Title,
		"description":   in.Description,
		"instructor_id": instructorID,
		"is_premium":    false,
		"price":         float64(0),
	}
	if in.ThumbnailURL != "" {
		row["thumbnail_url"] = in.ThumbnailURL
	}
	if in.IsPremium != nil {
		row["is_premium"] = *in.IsPremium
	}
	if in.Price != nil {
		row["price"] = *in.Price
	}
	created, err := s.store.Insert(ctx, table, row)
	if err != nil {
		return nil, apperr.Upstream(http.StatusBadRequest, err)
	}
	if len(created) == 0 {
		return nil, apperr.Upstream(http.StatusBadRequest, errors.New("course insert returned no row"))
	}
	return created[0], nil
}

// Update applies patch as-is to the course.
func (s *Service) Update(ctx context.Context, id string, patch tables.Row) (tables.Row, error) {
	rows, err := s.store.Update(ctx, table, patch, tables.Eq("id", id))
	switch {
	case errors.Is(err, tables.ErrEmptyPatch), errors.Is(err, tables.ErrInvalidColumn):
		return nil, apperr.InvalidInput(err.Error())
	case err != nil:
		return nil, apperr.Upstream(http.StatusBadRequest, err)
	case len(rows) == 0:
		return nil, errNotFound
	}
	return rows[0], nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, table, tables.Eq("id", id)); err != nil {
		return apperr.Upstream(http.StatusBadRequest, err)
	}
	return nil
}
