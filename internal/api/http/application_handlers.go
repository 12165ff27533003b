package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AHsytraka/concours-app/internal/audit"
	authmw "github.com/AHsytraka/concours-app/internal/auth/middleware"
	"github.com/AHsytraka/concours-app/internal/contest"
)

// POST /contests/{contestID}/applications
// The candidate is always the authenticated subject; a student cannot apply
// on someone else's behalf.
func ApplyHandler(store contest.Store, events *audit.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contestID := chi.URLParam(r, "contestID")
		candidateID := authmw.SubjectFromContext(r.Context())
		if candidateID == "" {
			http.Error(w, "no subject in session", http.StatusUnauthorized)
			return
		}
		a, err := store.CreateApplication(r.Context(), contestID, candidateID)
		if err != nil {
			switch {
			case errors.Is(err, contest.ErrContestNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, contest.ErrAlreadyApplied):
				http.Error(w, err.Error(), http.StatusConflict)
			case errors.Is(err, contest.ErrContestPublished):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		recordEvent(r, events, audit.TypeApplicationSubmitted, a.ID, a)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(a)
	}
}

// GET /contests/{contestID}/applications
func ListApplicationsHandler(store contest.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := store.ListApplications(r.Context(), chi.URLParam(r, "contestID"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

type decideReq struct {
	Decision string `json:"decision"` // "validate" | "reject"
}

// POST /applications/{applicationID}/decision
func DecideApplicationHandler(store contest.Store, events *audit.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "applicationID")
		var req decideReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		var status contest.ApplicationStatus
		switch req.Decision {
		case "validate":
			status = contest.ApplicationValidated
		case "reject":
			status = contest.ApplicationRejected
		default:
			http.Error(w, `decision must be "validate" or "reject"`, http.StatusBadRequest)
			return
		}
		a, err := store.SetApplicationStatus(r.Context(), id, status)
		if err != nil {
			if errors.Is(err, contest.ErrApplicationNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		recordEvent(r, events, audit.TypeApplicationDecided, a.ID, map[string]string{"status": string(a.Status)})
		_ = json.NewEncoder(w).Encode(a)
	}
}
