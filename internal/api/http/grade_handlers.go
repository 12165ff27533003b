package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AHsytraka/concours-app/internal/audit"
	"github.com/AHsytraka/concours-app/internal/contest"
	"github.com/AHsytraka/concours-app/internal/deliberation"
)

type saveGradesReq struct {
	// subject name -> raw grade; numbers and strings both accepted, exactly
	// like the entry form sends them.
	Grades map[string]interface{} `json:"grades"`
}

// PUT /contests/{contestID}/candidates/{candidateID}/grades
func SaveGradesHandler(store contest.Store, events *audit.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contestID := chi.URLParam(r, "contestID")
		candidateID := chi.URLParam(r, "candidateID")
		var req saveGradesReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if len(req.Grades) == 0 {
			http.Error(w, "grades required", http.StatusBadRequest)
			return
		}
		grades := deliberation.Grades{}
		for name, raw := range req.Grades {
			grades[name] = deliberation.ClampGrade(raw)
		}
		sheet, err := store.SaveGrades(r.Context(), contestID, candidateID, grades)
		if err != nil {
			writeGradeErr(w, err)
			return
		}
		recordEvent(r, events, audit.TypeGradesSaved, contestID+"/"+candidateID, sheet)
		_ = json.NewEncoder(w).Encode(sheet)
	}
}

// GET /contests/{contestID}/candidates/{candidateID}/grades
func GetGradeSheetHandler(store contest.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sheet, err := store.GetGradeSheet(r.Context(), chi.URLParam(r, "contestID"), chi.URLParam(r, "candidateID"))
		if err != nil {
			writeGradeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(sheet)
	}
}

// GET /contests/{contestID}/candidates/{candidateID}/evaluation
//
// A complete sheet with no average means the contest has zero subjects;
// that is a configuration error worth surfacing, not a result.
func EvaluationHandler(store contest.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contestID := chi.URLParam(r, "contestID")
		candidateID := chi.URLParam(r, "candidateID")
		c, err := store.GetContest(r.Context(), contestID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		sheet, err := store.GetGradeSheet(r.Context(), contestID, candidateID)
		if errors.Is(err, contest.ErrSheetNotFound) {
			sheet = contest.GradeSheet{ContestID: contestID, CandidateID: candidateID, Grades: deliberation.Grades{}}
		} else if err != nil {
			writeGradeErr(w, err)
			return
		}
		res := deliberation.Evaluate(sheet.Grades, c.Subjects, c.Rules)
		if res.IsComplete && res.WeightedAverage == nil {
			http.Error(w, "contest has no subjects", http.StatusUnprocessableEntity)
			return
		}
		_ = json.NewEncoder(w).Encode(res)
	}
}

func writeGradeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contest.ErrContestNotFound),
		errors.Is(err, contest.ErrApplicationNotFound),
		errors.Is(err, contest.ErrSheetNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, contest.ErrContestPublished),
		errors.Is(err, contest.ErrNotValidated):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, contest.ErrUnknownSubject):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
