package supabase

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mind-engage/eduverse/internal/identity"
	"github.com/mind-engage/eduverse/internal/tables"
)

// Error is a non-2xx answer from any Supabase service. Message is kept
// verbatim so handlers can echo it.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool {
	switch target {
	case identity.ErrEmailNotConfirmed:
		return e.Code == "email_not_confirmed" || identity.IsEmailNotConfirmed(errors.New(e.Message))
	case identity.ErrInvalidCredentials:
		return e.Code == "invalid_credentials" || e.Message == identity.ErrInvalidCredentials.Error()
	case identity.ErrUserExists:
		return e.Code == "email_exists" || e.Code == "user_already_exists"
	case identity.ErrUserNotFound:
		return e.Code == "user_not_found"
	case tables.ErrNoRows:
		// PGRST116: zero rows for a singular response.
		return e.Code == "PGRST116"
	}
	return false
}

// GoTrue answers with {error, error_description}, {msg, error_code} or
// {message, code}; PostgREST with {message, code, details, hint}.
type errorBody struct {
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Code             any    `json:"code"`
}

func parseError(status int, raw []byte) *Error {
	var b errorBody
	_ = json.Unmarshal(raw, &b)

	e := &Error{Status: status}
	e.Message = firstNonEmpty(b.Message, b.Msg, b.ErrorDescription, b.Error, strings.TrimSpace(string(raw)))
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	// GoTrue sometimes sends the HTTP status as a numeric "code".
	code, _ := b.Code.(string)
	e.Code = firstNonEmpty(b.ErrorCode, code, b.Error)
	return e
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
