package contest

import (
	"context"
	"testing"

	"github.com/AHsytraka/concours-app/internal/deliberation"
)

func validatedApps(contestID string, candidateIDs ...string) []Application {
	out := make([]Application, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		out = append(out, Application{
			ID:          "app-" + id,
			ContestID:   contestID,
			CandidateID: id,
			Status:      ApplicationValidated,
		})
	}
	return out
}

func TestRankPartitionsAndOrders(t *testing.T) {
	c := Contest{
		ID: "concours-2026",
		Subjects: []deliberation.Subject{
			{Name: "Math", Coefficient: 3},
			{Name: "French", Coefficient: 2},
		},
		Rules: deliberation.Rules{
			EliminatoryThreshold: threshold(5),
			PassingAverage:       10,
			EliminatorySubjects:  []string{"Math"},
		},
	}
	apps := validatedApps(c.ID, "cand-low", "cand-top", "cand-elim", "cand-partial", "cand-weak")
	sheets := []GradeSheet{
		{ContestID: c.ID, CandidateID: "cand-low", Grades: deliberation.Grades{"Math": 10, "French": 10}},
		{ContestID: c.ID, CandidateID: "cand-top", Grades: deliberation.Grades{"Math": 16, "French": 14}},
		{ContestID: c.ID, CandidateID: "cand-elim", Grades: deliberation.Grades{"Math": 2, "French": 19}},
		{ContestID: c.ID, CandidateID: "cand-partial", Grades: deliberation.Grades{"Math": 15}},
		{ContestID: c.ID, CandidateID: "cand-weak", Grades: deliberation.Grades{"Math": 8, "French": 9}},
	}

	report := Rank(c, apps, sheets)

	if got := len(report.Admissible); got != 2 {
		t.Fatalf("admissible = %d, want 2", got)
	}
	if report.Admissible[0].CandidateID != "cand-top" || report.Admissible[0].Rank != 1 {
		t.Fatalf("first = %+v", report.Admissible[0])
	}
	if report.Admissible[1].CandidateID != "cand-low" || report.Admissible[1].Rank != 2 {
		t.Fatalf("second = %+v", report.Admissible[1])
	}

	if len(report.Eliminated) != 2 {
		t.Fatalf("eliminated = %+v", report.Eliminated)
	}
	// cand-elim by eliminatory subject, cand-weak by average
	reasons := map[string]string{}
	for _, rc := range report.Eliminated {
		reasons[rc.CandidateID] = rc.Result.EliminationReason
	}
	if reasons["cand-elim"] != "eliminatory subject Math below threshold" {
		t.Fatalf("cand-elim reason = %q", reasons["cand-elim"])
	}
	if reasons["cand-weak"] != "average below passing threshold" {
		t.Fatalf("cand-weak reason = %q", reasons["cand-weak"])
	}

	if len(report.Incomplete) != 1 || report.Incomplete[0].CandidateID != "cand-partial" {
		t.Fatalf("incomplete = %+v", report.Incomplete)
	}
	if report.Incomplete[0].Result.IsEliminated {
		t.Fatal("incomplete candidate must not be eliminated")
	}
}

func TestRankTieBrokenByCandidateID(t *testing.T) {
	c := Contest{
		ID:       "tie",
		Subjects: []deliberation.Subject{{Name: "Math", Coefficient: 1}},
		Rules:    deliberation.Rules{PassingAverage: 0},
	}
	apps := validatedApps(c.ID, "a", "b")
	sheets := []GradeSheet{
		{CandidateID: "b", Grades: deliberation.Grades{"Math": 12}},
		{CandidateID: "a", Grades: deliberation.Grades{"Math": 12}},
	}
	report := Rank(c, apps, sheets)
	if report.Admissible[0].CandidateID != "a" || report.Admissible[1].CandidateID != "b" {
		t.Fatalf("tie order = %+v", report.Admissible)
	}
}

func TestRankSkipsNonValidatedCandidates(t *testing.T) {
	c := Contest{
		ID:       "filter",
		Subjects: []deliberation.Subject{{Name: "Math", Coefficient: 1}},
		Rules:    deliberation.Rules{PassingAverage: 10},
	}
	apps := []Application{
		{ID: "app-ok", ContestID: c.ID, CandidateID: "cand-ok", Status: ApplicationValidated},
		{ID: "app-rej", ContestID: c.ID, CandidateID: "cand-rej", Status: ApplicationRejected},
		{ID: "app-pend", ContestID: c.ID, CandidateID: "cand-pend", Status: ApplicationPending},
	}
	sheets := []GradeSheet{
		{CandidateID: "cand-ok", Grades: deliberation.Grades{"Math": 12}},
		{CandidateID: "cand-rej", Grades: deliberation.Grades{"Math": 18}},
		{CandidateID: "cand-pend", Grades: deliberation.Grades{"Math": 15}},
	}
	report := Rank(c, apps, sheets)
	if len(report.Admissible) != 1 || report.Admissible[0].CandidateID != "cand-ok" {
		t.Fatalf("admissible = %+v", report.Admissible)
	}
	if len(report.Eliminated) != 0 || len(report.Incomplete) != 0 {
		t.Fatalf("non-validated sheets leaked: %+v / %+v", report.Eliminated, report.Incomplete)
	}
}

// A candidate rejected after grades were already entered must drop out of
// the published ranking entirely.
func TestRankExcludesCandidateRejectedAfterGrading(t *testing.T) {
	store := NewInMemoryStore()
	c := seedContest(t, store)
	ctx := context.Background()

	a := validatedApplication(t, store, c.ID, "cand-1")
	if _, err := store.SaveGrades(ctx, c.ID, "cand-1", deliberation.Grades{"Math": 16, "French": 14}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SetApplicationStatus(ctx, a.ID, ApplicationRejected); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Publish(ctx, c.ID); err != nil {
		t.Fatal(err)
	}

	apps, err := store.ListApplications(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	sheets, err := store.ListGradeSheets(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	report := Rank(c, apps, sheets)
	if len(report.Admissible)+len(report.Eliminated)+len(report.Incomplete) != 0 {
		t.Fatalf("rejected candidate still ranked: %+v", report)
	}
}
