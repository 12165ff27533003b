package http

import (
	"encoding/json"
	"net/http"

	"github.com/AHsytraka/concours-app/internal/policy"
)

// GET /session/landing — where the SPA should send the current user.
// Also backs the "go home" action on the denial view.
func LandingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := policy.RoleFromContext(r.Context())
		_ = json.NewEncoder(w).Encode(map[string]string{
			"role":         string(role),
			"landing_page": policy.LandingPageFor(role),
		})
	}
}
