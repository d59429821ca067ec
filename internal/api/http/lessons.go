package http

import (
	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/eduverse/internal/lesson"
)

func ListLessonsHandler(svc *lesson.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		rows, err := svc.List(r.Context(), chi.URLParam(r, "courseId"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, rows)
	}
}

// GET /lessons/stream/{id} (bearer) → { "url": signed playback URL }
func StreamLessonHandler(svc *lesson.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		url, err := svc.StreamURL(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, map[string]string{"url": url})
	}
}
