package http

import (
	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/eduverse/internal/auth/middleware"
	"github.com/mind-engage/eduverse/internal/progress"
)

type updateProgressRequest struct {
	CourseID            any      `json:"courseId" validate:"required"`
	CompletedPercent    *float64 `json:"completedPercent" validate:"required,gte=0,lte=100"`
	LastWatchedLessonID any      `json:"lastWatchedLessonId"`
}

// GET /progress/{userId}/{courseId} (bearer, self only)
func GetProgressHandler(svc *progress.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		row, err := svc.Get(r.Context(),
			authmw.SubjectFromContext(r.Context()),
			chi.URLParam(r, "userId"),
			chi.URLParam(r, "courseId"),
		)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, row)
	}
}

// POST /progress/update (bearer) { "courseId", "completedPercent", "lastWatchedLessonId"? }
func UpdateProgressHandler(svc *progress.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req updateProgressRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := validateStruct(&req); err != nil {
			writeError(w, r, err)
			return
		}
		row, err := svc.Update(r.Context(), authmw.SubjectFromContext(r.Context()), progress.UpdateInput{
			CourseID:            idString(req.CourseID),
			CompletedPercent:    *req.CompletedPercent,
			LastWatchedLessonID: req.LastWatchedLessonID,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, row)
	}
}
