package deliberation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Subject is one graded discipline of a contest. Coefficient is the integer
// weight applied in the average; names are unique within a contest and the
// slice order is the order subjects were entered, which also fixes the
// eliminatory tie-break.
type Subject struct {
	Name        string `json:"name"`
	Coefficient int    `json:"coefficient"`
}

// Rules are a contest's deliberation settings. A nil EliminatoryThreshold
// disables the per-subject cutoff entirely.
type Rules struct {
	EliminatoryThreshold *float64 `json:"eliminatory_threshold"`
	PassingAverage       float64  `json:"passing_average"`
	EliminatorySubjects  []string `json:"eliminatory_subjects,omitempty"`
}

// Grades maps subject name to a grade in [0, 20]. A missing key means the
// subject is still ungraded.
type Grades map[string]float64

// Result is the admission-readiness verdict for one candidate.
// WeightedAverage is non-nil exactly when IsComplete is true.
type Result struct {
	WeightedAverage   *float64 `json:"weighted_average"`
	IsComplete        bool     `json:"is_complete"`
	IsEliminated      bool     `json:"is_eliminated"`
	EliminationReason string   `json:"elimination_reason,omitempty"`
}

const (
	GradeMin = 0.0
	GradeMax = 20.0
)

// IsComplete reports whether every subject has a grade. It uses the same
// membership test as ComputeAverage so the two can never disagree.
func IsComplete(g Grades, subjects []Subject) bool {
	for _, s := range subjects {
		if _, ok := g[s.Name]; !ok {
			return false
		}
	}
	return true
}

// ComputeAverage returns the coefficient-weighted average rounded to two
// decimals, or nil when any subject is ungraded. No partial average is ever
// reported. A zero total coefficient (empty subject list) also yields nil.
func ComputeAverage(g Grades, subjects []Subject) *float64 {
	var sum, total float64
	for _, s := range subjects {
		grade, ok := g[s.Name]
		if !ok {
			return nil
		}
		sum += grade * float64(s.Coefficient)
		total += float64(s.Coefficient)
	}
	if total == 0 {
		return nil
	}
	avg := round2(sum / total)
	return &avg
}

// round2 rounds half away from zero at two decimals. Picked over banker's
// rounding to match the display formatting the grade-entry UI always used.
func round2(v float64) float64 {
	if v < 0 {
		return math.Ceil(v*100-0.5) / 100
	}
	return math.Floor(v*100+0.5) / 100
}

// ClampGrade sanitizes a single manually-entered grade. Strings, numbers and
// json.Number are accepted; anything unparsable coerces to 0 rather than
// failing, so the input widget is never blocked. The result is clamped to
// [0, 20]. Entry-time only: Evaluate assumes grades are already in range.
func ClampGrade(raw interface{}) float64 {
	var v float64
	switch t := raw.(type) {
	case float64:
		v = t
	case float32:
		v = float64(t)
	case int:
		v = float64(t)
	case json.Number:
		v, _ = t.Float64()
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return GradeMin
		}
		v = parsed
	default:
		return GradeMin
	}
	if math.IsNaN(v) || v < GradeMin {
		return GradeMin
	}
	if v > GradeMax {
		return GradeMax
	}
	return v
}

// Evaluate classifies one candidate's sheet against a contest's rules.
//
// An incomplete sheet is never eliminated; "incomplete" and "eliminated" are
// distinct states the UI surfaces separately. On a complete sheet the first
// eliminatory subject (in subject order) strictly below the threshold wins;
// only then is the average compared to the passing threshold.
func Evaluate(g Grades, subjects []Subject, rules Rules) Result {
	if !IsComplete(g, subjects) {
		return Result{}
	}
	avg := ComputeAverage(g, subjects)
	res := Result{WeightedAverage: avg, IsComplete: true}

	if rules.EliminatoryThreshold != nil {
		elim := make(map[string]struct{}, len(rules.EliminatorySubjects))
		for _, name := range rules.EliminatorySubjects {
			elim[name] = struct{}{}
		}
		for _, s := range subjects {
			if _, ok := elim[s.Name]; !ok {
				continue
			}
			if g[s.Name] < *rules.EliminatoryThreshold {
				res.IsEliminated = true
				res.EliminationReason = fmt.Sprintf("eliminatory subject %s below threshold", s.Name)
				return res
			}
		}
	}
	if avg != nil && *avg < rules.PassingAverage {
		res.IsEliminated = true
		res.EliminationReason = "average below passing threshold"
	}
	return res
}
