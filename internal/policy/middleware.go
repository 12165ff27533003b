package policy

import (
	"encoding/json"
	"net/http"
)

// Guard enforces a RouteRequirement on an HTTP route. The decision maps to
// HTTP the way the SPA maps it to navigation: Redirect → 401 with the login
// path, Deny → 403 with the roles the caller would need.
func Guard(req RouteRequirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			d := Evaluate(role, role != "", req)
			switch d.Effect {
			case Allow:
				next.ServeHTTP(w, r)
			case Redirect:
				writeDecision(w, http.StatusUnauthorized, d)
			default:
				writeDecision(w, http.StatusForbidden, d)
			}
		})
	}
}

// Require is the common case: any one of the given roles may enter.
func Require(roles ...Role) func(http.Handler) http.Handler {
	return Guard(RouteRequirement{Roles: roles})
}

// RequireAuthenticated admits any session with a role.
func RequireAuthenticated() func(http.Handler) http.Handler {
	return Guard(RouteRequirement{})
}

func writeDecision(w http.ResponseWriter, status int, d Decision) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(d)
}
