package http

import (
	nethttp "net/http"

	"github.com/mind-engage/eduverse/internal/account"
	"github.com/mind-engage/eduverse/internal/apperr"
	authmw "github.com/mind-engage/eduverse/internal/auth/middleware"
)

type signupRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role" validate:"omitempty,oneof=student instructor admin"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /auth/signup  { "email", "password", "name", "role" }
func SignupHandler(svc *account.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req signupRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := validateStruct(&req); err != nil {
			writeError(w, r, err)
			return
		}
		u, err := svc.Signup(r.Context(), account.SignupInput{
			Email:    req.Email,
			Password: req.Password,
			Name:     req.Name,
			Role:     req.Role,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{"user": u})
	}
}

// POST /auth/login  { "email", "password" }
func LoginHandler(svc *account.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		res, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, res)
	}
}

// GET /auth/profile (bearer)
func ProfileHandler(svc *account.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		claims := authmw.ClaimsFromContext(r.Context())
		if claims == nil {
			writeError(w, r, apperr.Unauthorized("Unauthorized"))
			return
		}
		u, err := svc.Profile(r.Context(), claims)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{"user": u})
	}
}
