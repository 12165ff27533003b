package contest

import (
	"sort"

	"github.com/AHsytraka/concours-app/internal/deliberation"
)

type RankedCandidate struct {
	Rank        int                 `json:"rank,omitempty"`
	CandidateID string              `json:"candidate_id"`
	Result      deliberation.Result `json:"result"`
}

// RankingReport partitions a contest's candidates by verdict. Only admissible
// candidates carry a rank; eliminated and incomplete sheets are listed so the
// jury can see who fell where.
type RankingReport struct {
	ContestID  string            `json:"contest_id"`
	Admissible []RankedCandidate `json:"admissible"`
	Eliminated []RankedCandidate `json:"eliminated"`
	Incomplete []RankedCandidate `json:"incomplete"`
}

// Rank evaluates every validated candidate's sheet against the contest's
// rules and orders the admissible candidates by average, descending. Equal
// averages are ordered by candidate ID so the ranking is stable across runs.
// Sheets belonging to pending or rejected applications are skipped entirely:
// a rejection after grade entry removes the candidate from the report.
func Rank(c Contest, apps []Application, sheets []GradeSheet) RankingReport {
	validated := make(map[string]struct{}, len(apps))
	for _, a := range apps {
		if a.Status == ApplicationValidated {
			validated[a.CandidateID] = struct{}{}
		}
	}
	report := RankingReport{
		ContestID:  c.ID,
		Admissible: []RankedCandidate{},
		Eliminated: []RankedCandidate{},
		Incomplete: []RankedCandidate{},
	}
	for _, sheet := range sheets {
		if _, ok := validated[sheet.CandidateID]; !ok {
			continue
		}
		res := deliberation.Evaluate(sheet.Grades, c.Subjects, c.Rules)
		rc := RankedCandidate{CandidateID: sheet.CandidateID, Result: res}
		switch {
		case !res.IsComplete:
			report.Incomplete = append(report.Incomplete, rc)
		case res.IsEliminated:
			report.Eliminated = append(report.Eliminated, rc)
		default:
			report.Admissible = append(report.Admissible, rc)
		}
	}
	sort.Slice(report.Admissible, func(i, j int) bool {
		a, b := report.Admissible[i], report.Admissible[j]
		if av, bv := avgOrZero(a), avgOrZero(b); av != bv {
			return av > bv
		}
		return a.CandidateID < b.CandidateID
	})
	for i := range report.Admissible {
		report.Admissible[i].Rank = i + 1
	}
	sort.Slice(report.Eliminated, func(i, j int) bool {
		return report.Eliminated[i].CandidateID < report.Eliminated[j].CandidateID
	})
	sort.Slice(report.Incomplete, func(i, j int) bool {
		return report.Incomplete[i].CandidateID < report.Incomplete[j].CandidateID
	})
	return report
}

// avgOrZero guards the degenerate zero-subject contest, where a sheet is
// vacuously complete yet has no average.
func avgOrZero(rc RankedCandidate) float64 {
	if rc.Result.WeightedAverage == nil {
		return 0
	}
	return *rc.Result.WeightedAverage
}
