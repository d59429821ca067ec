package http

import (
	"encoding/json"

	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	authmw "github.com/mind-engage/eduverse/internal/auth/middleware"
	"github.com/mind-engage/eduverse/internal/quiz"
	"github.com/mind-engage/eduverse/internal/rbac"
)

type submitQuizRequest struct {
	CourseID any             `json:"courseId"`
	Answers  json.RawMessage `json:"answers"`
}

// GET /quiz/{courseId} (optional bearer). Answers are included only for
// callers allowed to see them.
func ListQuizHandler(svc *quiz.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		claims := authmw.ClaimsFromContext(r.Context())
		reveal := claims != nil && rbac.Can(claims.Role, rbac.PermQuizAnswers)
		rows, err := svc.ListQuestions(r.Context(), chi.URLParam(r, "courseId"), reveal)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, rows)
	}
}

// POST /quiz/submit (bearer) { "courseId", "answers": [{ "id", "selected_index" }] }
func SubmitQuizHandler(svc *quiz.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req submitQuizRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		res, err := svc.Submit(r.Context(), req.CourseID, req.Answers)
		if err != nil {
			writeError(w, r, err)
			return
		}
		zerolog.Ctx(r.Context()).Info().
			Str("user_id", authmw.SubjectFromContext(r.Context())).
			Int("score", res.Score).
			Msg("quiz submitted")
		writeJSON(w, nethttp.StatusOK, res)
	}
}
