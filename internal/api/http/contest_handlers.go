package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/AHsytraka/concours-app/internal/audit"
	authmw "github.com/AHsytraka/concours-app/internal/auth/middleware"
	"github.com/AHsytraka/concours-app/internal/contest"
	"github.com/AHsytraka/concours-app/internal/deliberation"
)

type createContestReq struct {
	Title         string                 `json:"title"`
	InstitutionID string                 `json:"institution_id"`
	Subjects      []deliberation.Subject `json:"subjects"`
	Rules         deliberation.Rules     `json:"rules"`
}

// POST /contests
func CreateContestHandler(store contest.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createContestReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			http.Error(w, "title required", http.StatusBadRequest)
			return
		}
		seen := map[string]struct{}{}
		for _, s := range req.Subjects {
			if strings.TrimSpace(s.Name) == "" || s.Coefficient <= 0 {
				http.Error(w, "subjects need a name and a positive coefficient", http.StatusBadRequest)
				return
			}
			if _, dup := seen[s.Name]; dup {
				http.Error(w, "duplicate subject: "+s.Name, http.StatusBadRequest)
				return
			}
			seen[s.Name] = struct{}{}
		}
		c := contest.Contest{
			ID:            uuid.NewString(),
			Title:         req.Title,
			InstitutionID: req.InstitutionID,
			Status:        contest.StatusOpen,
			Subjects:      req.Subjects,
			Rules:         req.Rules,
		}
		if err := store.PutContest(r.Context(), c); err != nil {
			http.Error(w, "put contest: "+err.Error(), http.StatusInternalServerError)
			return
		}
		created, err := store.GetContest(r.Context(), c.ID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(created)
	}
}

// GET /contests
func ListContestsHandler(store contest.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := store.ListContests(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

// GET /contests/{contestID}
func GetContestHandler(store contest.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.GetContest(r.Context(), chi.URLParam(r, "contestID"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(c)
	}
}

// POST /contests/{contestID}/publish
func PublishContestHandler(store contest.Store, events *audit.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "contestID")
		c, err := store.Publish(r.Context(), id)
		if err != nil {
			if errors.Is(err, contest.ErrContestNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		recordEvent(r, events, audit.TypeContestPublished, c.ID, map[string]string{"status": string(c.Status)})
		_ = json.NewEncoder(w).Encode(c)
	}
}

// GET /contests/{contestID}/ranking
func RankingHandler(store contest.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "contestID")
		c, err := store.GetContest(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if c.Status != contest.StatusPublished {
			http.Error(w, contest.ErrContestNotPublished.Error(), http.StatusConflict)
			return
		}
		apps, err := store.ListApplications(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		sheets, err := store.ListGradeSheets(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(contest.Rank(c, apps, sheets))
	}
}

func recordEvent(r *http.Request, events *audit.EventRepo, typ, key string, payload interface{}) {
	if events == nil {
		return
	}
	actor := authmw.SubjectFromContext(r.Context())
	if err := events.Record(r.Context(), typ, key, actor, payload); err != nil {
		log.Printf("audit %s %s: %v", typ, key, err)
	}
}
