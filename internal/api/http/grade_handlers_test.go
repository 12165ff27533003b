package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/AHsytraka/concours-app/internal/contest"
	"github.com/AHsytraka/concours-app/internal/deliberation"
)

func testRouter(store contest.Store) chi.Router {
	r := chi.NewRouter()
	r.Put("/contests/{contestID}/candidates/{candidateID}/grades", SaveGradesHandler(store, nil))
	r.Get("/contests/{contestID}/candidates/{candidateID}/grades", GetGradeSheetHandler(store))
	r.Get("/contests/{contestID}/candidates/{candidateID}/evaluation", EvaluationHandler(store))
	return r
}

func seedStore(t *testing.T) contest.Store {
	t.Helper()
	store := contest.NewInMemoryStore()
	ctx := context.Background()
	five := 5.0
	c := contest.Contest{
		ID:    "c1",
		Title: "Entrance 2026",
		Subjects: []deliberation.Subject{
			{Name: "Math", Coefficient: 3},
			{Name: "French", Coefficient: 2},
		},
		Rules: deliberation.Rules{
			EliminatoryThreshold: &five,
			PassingAverage:       10,
			EliminatorySubjects:  []string{"Math"},
		},
	}
	if err := store.PutContest(ctx, c); err != nil {
		t.Fatal(err)
	}
	a, err := store.CreateApplication(ctx, "c1", "cand-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.SetApplicationStatus(ctx, a.ID, contest.ApplicationValidated); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestSaveGradesClampsRawInput(t *testing.T) {
	store := seedStore(t)
	r := testRouter(store)

	// strings and out-of-range values arrive exactly like the entry form
	// sends them
	body := `{"grades": {"Math": "25", "French": "abc"}}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("PUT", "/contests/c1/candidates/cand-1/grades", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var sheet contest.GradeSheet
	if err := json.Unmarshal(rec.Body.Bytes(), &sheet); err != nil {
		t.Fatal(err)
	}
	if sheet.Grades["Math"] != 20 || sheet.Grades["French"] != 0 {
		t.Fatalf("clamped grades = %+v", sheet.Grades)
	}
}

func TestSaveGradesUnknownSubject(t *testing.T) {
	store := seedStore(t)
	r := testRouter(store)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("PUT", "/contests/c1/candidates/cand-1/grades",
		strings.NewReader(`{"grades": {"History": 10}}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestEvaluationEndpoint(t *testing.T) {
	store := seedStore(t)
	r := testRouter(store)

	// ungraded candidate: incomplete, no average, not eliminated
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/contests/c1/candidates/cand-1/evaluation", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var res deliberation.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.IsComplete || res.IsEliminated || res.WeightedAverage != nil {
		t.Fatalf("empty sheet result = %+v", res)
	}

	// full sheet
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("PUT", "/contests/c1/candidates/cand-1/grades",
		strings.NewReader(`{"grades": {"Math": 14, "French": 10}}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("save: %d %s", rec.Code, rec.Body.String())
	}
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/contests/c1/candidates/cand-1/evaluation", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.IsComplete || res.IsEliminated {
		t.Fatalf("result = %+v", res)
	}
	if res.WeightedAverage == nil || *res.WeightedAverage != 12.4 {
		t.Fatalf("average = %v", res.WeightedAverage)
	}
}

func TestEvaluationZeroSubjectContestIsConfigError(t *testing.T) {
	store := contest.NewInMemoryStore()
	ctx := context.Background()
	if err := store.PutContest(ctx, contest.Contest{ID: "empty", Title: "Misconfigured"}); err != nil {
		t.Fatal(err)
	}
	r := testRouter(store)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/contests/empty/candidates/cand-1/evaluation", nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422", rec.Code)
	}
}
