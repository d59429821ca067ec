package http

import (
	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/eduverse/internal/auth/middleware"
	"github.com/mind-engage/eduverse/internal/course"
	"github.com/mind-engage/eduverse/internal/tables"
)

type createCourseRequest struct {
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description"`
	ThumbnailURL string   `json:"thumbnail_url" validate:"omitempty,url"`
	IsPremium    *bool    `json:"is_premium"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
}

func ListCoursesHandler(svc *course.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		rows, err := svc.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, rows)
	}
}

func GetCourseHandler(svc *course.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		row, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, row)
	}
}

// POST /courses (instructor|admin); the caller becomes the instructor.
func CreateCourseHandler(svc *course.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req createCourseRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := validateStruct(&req); err != nil {
			writeError(w, r, err)
			return
		}
		row, err := svc.Create(r.Context(), authmw.SubjectFromContext(r.Context()), course.CreateInput{
			Title:        req.Title,
			Description:  req.Description,
			ThumbnailURL: req.ThumbnailURL,
			IsPremium:    req.IsPremium,
			Price:        req.Price,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusCreated, row)
	}
}

// PATCH /courses/{id}: the body is applied as-is.
func UpdateCourseHandler(svc *course.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var patch map[string]any
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, r, err)
			return
		}
		row, err := svc.Update(r.Context(), chi.URLParam(r, "id"), tables.Row(patch))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, row)
	}
}

func DeleteCourseHandler(svc *course.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(nethttp.StatusNoContent)
	}
}
