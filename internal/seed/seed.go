// Package seed loads the demo catalogue into an empty deployment.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"

	"github.com/mind-engage/eduverse/internal/apperr"
	"github.com/mind-engage/eduverse/internal/identity"
	"github.com/mind-engage/eduverse/internal/rbac"
	"github.com/mind-engage/eduverse/internal/tables"
)

//go:embed fixtures/demo.yaml
var demoYAML []byte

type Fixtures struct {
	Instructor struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"instructor"`
	Courses []struct {
		Title        string  `yaml:"title"`
		Description  string  `yaml:"description"`
		ThumbnailURL string  `yaml:"thumbnail_url"`
		IsPremium    bool    `yaml:"is_premium"`
		Price        float64 `yaml:"price"`
	} `yaml:"courses"`
	Lessons []struct {
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
	} `yaml:"lessons"`
	Quizzes []struct {
		Question     string   `yaml:"question"`
		Options      []string `yaml:"options"`
		CorrectIndex int      `yaml:"correct_index"`
	} `yaml:"quizzes"`
}

func LoadFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if len(f.Courses) == 0 {
		return nil, errors.New("fixtures define no courses")
	}
	return &f, nil
}

type Result struct {
	Message string `json:"message"`
	Courses int    `json:"courses"`
	Lessons int    `json:"lessons"`
	Quizzes int    `json:"quizzes"`
}

type Service struct {
	idp      identity.Provider
	store    tables.Store
	fixtures *Fixtures
	log      zerolog.Logger
}

// NewService uses the embedded demo catalogue.
func NewService(idp identity.Provider, store tables.Store, log zerolog.Logger) (*Service, error) {
	f, err := LoadFixtures(demoYAML)
	if err != nil {
		return nil, err
	}
	return &Service{idp: idp, store: store, fixtures: f, log: log.With().Str("component", "seed").Logger()}, nil
}

// DemoData inserts the catalogue. Lesson and quiz batches that fail are
// skipped and left out of the counts; a failed course insert aborts.
func (s *Service) DemoData(ctx context.Context) (Result, error) {
	instructorID, err := s.instructor(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("no demo instructor, courses will be unowned")
	}

	rows := make([]tables.Row, 0, len(s.fixtures.Courses))
	for _, c := range s.fixtures.Courses {
		row := tables.Row{
			"title":         c.Title,
			"description":   c.Description,
			"thumbnail_url": c.ThumbnailURL,
			"is_premium":    c.IsPremium,
			"price":         c.Price,
			"instructor_id": nil,
		}
		if instructorID != "" {
			row["instructor_id"] = instructorID
		}
		rows = append(rows, row)
	}
	courses, err := s.store.Insert(ctx, "courses", rows...)
	if err != nil {
		return Result{}, apperr.Upstreamf(http.StatusBadRequest, "Failed to seed courses: ", err)
	}

	res := Result{Message: "Demo data seeded successfully", Courses: len(courses)}
	for _, c := range courses {
		lessons := s.lessonRows(c)
		if _, err := s.store.Insert(ctx, "lessons", lessons...); err != nil {
			s.log.Warn().Err(err).Str("course_id", c.String("id")).Msg("seed lessons failed")
		} else {
			res.Lessons += len(lessons)
		}

		quizzes, err := s.quizRows(c)
		if err == nil {
			_, err = s.store.Insert(ctx, "quizzes", quizzes...)
		}
		if err != nil {
			s.log.Warn().Err(err).Str("course_id", c.String("id")).Msg("seed quizzes failed")
		} else {
			res.Quizzes += len(quizzes)
		}
	}
	s.log.Info().Int("courses", res.Courses).Int("lessons", res.Lessons).Int("quizzes", res.Quizzes).Msg("demo data seeded")
	return res, nil
}

// instructor returns the first existing account, creating the demo
// instructor when there is none.
func (s *Service) instructor(ctx context.Context) (string, error) {
	users, err := s.idp.ListUsers(ctx)
	if err == nil && len(users) > 0 {
		return users[0].ID, nil
	}
	u, err := s.idp.CreateUser(ctx, identity.CreateUserParams{
		Email:        s.fixtures.Instructor.Email,
		Password:     s.fixtures.Instructor.Password,
		EmailConfirm: true,
		UserMetadata: map[string]any{"role": rbac.RoleInstructor},
	})
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

func (s *Service) lessonRows(course tables.Row) []tables.Row {
	id := course.String("id")
	expand := templater(course)
	out := make([]tables.Row, 0, len(s.fixtures.Lessons))
	for i, l := range s.fixtures.Lessons {
		out = append(out, tables.Row{
			"course_id":   course["id"],
			"title":       expand(l.Title),
			"description": expand(l.Description),
			"video_path":  fmt.Sprintf("videos/%s/lesson-%d.mp4", id, i+1),
			"position":    i + 1,
		})
	}
	return out
}

func (s *Service) quizRows(course tables.Row) ([]tables.Row, error) {
	expand := templater(course)
	out := make([]tables.Row, 0, len(s.fixtures.Quizzes))
	for _, q := range s.fixtures.Quizzes {
		opts := make([]string, len(q.Options))
		for i, o := range q.Options {
			opts[i] = expand(o)
		}
		// options are stored as JSON text, as the hosted schema expects
		encoded, err := json.Marshal(opts)
		if err != nil {
			return nil, err
		}
		out = append(out, tables.Row{
			"course_id":     course["id"],
			"question":      expand(q.Question),
			"options":       string(encoded),
			"correct_index": q.CorrectIndex,
		})
	}
	return out, nil
}

func templater(course tables.Row) func(string) string {
	title := course.String("title")
	word, _, _ := strings.Cut(title, " ")
	r := strings.NewReplacer("{word}", word, "{title}", title)
	return r.Replace
}
