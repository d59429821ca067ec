package rbac

import (
	"encoding/json"
	"net/http"
	"slices"
)

var defaultChecker = NewChecker(nil)

// Can reports whether role holds perm under the default policy.
func Can(role, perm string) bool { return defaultChecker.Has(role, perm) }

// RequireRole lets the request through only when the context role is one of
// roles. Mount it after the JWT middleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(roles, RoleFromContext(r.Context())) {
				forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Forbidden"})
}
