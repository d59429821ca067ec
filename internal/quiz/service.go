// Package quiz lists course questions and scores submissions against them.
package quiz

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mind-engage/eduverse/internal/apperr"
	"github.com/mind-engage/eduverse/internal/tables"
)

const table = "quizzes"

type Service struct {
	store tables.Store
}

func NewService(store tables.Store) *Service { return &Service{store: store} }

// ListQuestions returns the course's questions in id order with options
// normalized. correct_index is dropped unless revealAnswers is set.
func (s *Service) ListQuestions(ctx context.Context, courseID string, revealAnswers bool) ([]tables.Row, error) {
	rows, err := s.store.Select(ctx, table, tables.Query{
		Filters: []tables.Filter{tables.Eq("course_id", courseID)},
		Order:   &tables.Order{Column: "id"},
	})
	if err != nil {
		return nil, apperr.Upstream(http.StatusInternalServerError, err)
	}
	out := make([]tables.Row, 0, len(rows))
	for _, r := range rows {
		q := r.Clone()
		q["options"] = NormalizeOptions(r["options"])
		if !revealAnswers {
			delete(q, "correct_index")
		}
		out = append(out, q)
	}
	return out, nil
}

// Submit scores answers against the stored correct indices. Nothing is
// persisted. courseID is a decoded JSON string or number; answers must be a
// JSON array.
func (s *Service) Submit(ctx context.Context, courseID any, answers json.RawMessage) (Result, error) {
	id := courseIDString(courseID)
	if id == "" || !isArray(answers) {
		return Result{}, apperr.InvalidInput("Invalid payload")
	}
	list, err := parseAnswers(answers)
	if err != nil {
		return Result{}, apperr.InvalidInput("Invalid payload")
	}

	rows, err := s.store.Select(ctx, table, tables.Query{
		Columns: []string{"id", "correct_index"},
		Filters: []tables.Filter{tables.Eq("course_id", id)},
	})
	if err != nil {
		return Result{}, apperr.Upstream(http.StatusInternalServerError, err)
	}
	questions := make([]Question, 0, len(rows))
	for _, r := range rows {
		questions = append(questions, Question{ID: r["id"], CorrectIndex: r["correct_index"]})
	}
	correct, score := Score(questions, list)
	return Result{Score: score, Total: len(questions), Correct: correct, CourseID: courseID}, nil
}

func isArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

func courseIDString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return ""
}
