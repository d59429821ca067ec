package http

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	nethttp "net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mind-engage/eduverse/internal/apperr"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w nethttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as {message} with the status its kind maps to.
func writeError(w nethttp.ResponseWriter, r *nethttp.Request, err error) {
	status := apperr.StatusOf(err)
	ev := zerolog.Ctx(r.Context()).Debug()
	if status >= nethttp.StatusInternalServerError {
		ev = zerolog.Ctx(r.Context()).Error()
	}
	ev.Err(err).Int("status", status).Msg("request failed")
	writeJSON(w, status, map[string]string{"message": apperr.MessageOf(err)})
}

// decodeJSON reads the body into dst keeping numbers as json.Number. An
// empty body leaves dst untouched.
func decodeJSON(r *nethttp.Request, dst any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return apperr.InvalidInput("Invalid JSON payload: " + err.Error())
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return apperr.InvalidInput("Invalid JSON payload: " + err.Error())
	}
	return nil
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return apperr.InvalidInput("Validation failed: " + err.Error())
	}
	return nil
}

// idString renders a JSON id (string or number) as text.
func idString(v any) string {
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
