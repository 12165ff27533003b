package deliberation

import (
	"reflect"
	"testing"
)

func f(v float64) *float64 { return &v }

func twoSubjects() []Subject {
	return []Subject{
		{Name: "Math", Coefficient: 3},
		{Name: "French", Coefficient: 2},
	}
}

func TestComputeAverageWeighted(t *testing.T) {
	g := Grades{"Math": 14, "French": 10}
	avg := ComputeAverage(g, twoSubjects())
	if avg == nil {
		t.Fatal("expected average, got nil")
	}
	// (14*3 + 10*2) / 5
	if *avg != 12.4 {
		t.Fatalf("average = %v, want 12.4", *avg)
	}
	if !IsComplete(g, twoSubjects()) {
		t.Fatal("sheet should be complete")
	}
}

func TestComputeAverageMissingGrade(t *testing.T) {
	if avg := ComputeAverage(Grades{"Math": 14}, twoSubjects()); avg != nil {
		t.Fatalf("partial sheet must yield nil average, got %v", *avg)
	}
}

func TestComputeAverageZeroCoefficientTotal(t *testing.T) {
	if avg := ComputeAverage(Grades{}, nil); avg != nil {
		t.Fatalf("empty subject list must yield nil average, got %v", *avg)
	}
}

func TestComputeAverageRoundsHalfAwayFromZero(t *testing.T) {
	// 12.375 is exactly representable, so the .5 case is hit for real.
	subjects := []Subject{{Name: "Math", Coefficient: 2}}
	avg := ComputeAverage(Grades{"Math": 12.375}, subjects)
	if avg == nil || *avg != 12.38 {
		t.Fatalf("average = %v, want 12.38", avg)
	}
}

func TestCompleteIffAverageNonNil(t *testing.T) {
	cases := []Grades{
		{},
		{"Math": 10},
		{"French": 10},
		{"Math": 10, "French": 10},
		{"Math": 0, "French": 20},
	}
	for _, g := range cases {
		complete := IsComplete(g, twoSubjects())
		avg := ComputeAverage(g, twoSubjects())
		if complete != (avg != nil) {
			t.Fatalf("grades %v: complete=%v but average=%v", g, complete, avg)
		}
	}
}

func TestClampGrade(t *testing.T) {
	cases := []struct {
		in   interface{}
		want float64
	}{
		{-5.0, 0},
		{25.0, 20},
		{12.5, 12.5},
		{"abc", 0},
		{"12.5", 12.5},
		{" 7 ", 7},
		{"", 0},
		{nil, 0},
		{0.0, 0},
		{20.0, 20},
	}
	for _, c := range cases {
		if got := ClampGrade(c.in); got != c.want {
			t.Errorf("ClampGrade(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestEvaluateIncompleteNeverEliminated(t *testing.T) {
	rules := Rules{EliminatoryThreshold: f(5), PassingAverage: 10, EliminatorySubjects: []string{"Math"}}
	res := Evaluate(Grades{"Math": 2}, twoSubjects(), rules)
	want := Result{}
	if !reflect.DeepEqual(res, want) {
		t.Fatalf("incomplete sheet: got %+v, want %+v", res, want)
	}
}

func TestEvaluateEliminatoryCutoff(t *testing.T) {
	rules := Rules{EliminatoryThreshold: f(5), PassingAverage: 10, EliminatorySubjects: []string{"Math"}}
	res := Evaluate(Grades{"Math": 3, "French": 18}, twoSubjects(), rules)
	if !res.IsEliminated {
		t.Fatal("expected elimination")
	}
	if res.EliminationReason != "eliminatory subject Math below threshold" {
		t.Fatalf("reason = %q", res.EliminationReason)
	}
	if !res.IsComplete {
		t.Fatal("eliminated implies complete")
	}
}

func TestEvaluateFirstFailingEliminatorySubjectWins(t *testing.T) {
	subjects := []Subject{
		{Name: "Math", Coefficient: 1},
		{Name: "Physics", Coefficient: 1},
	}
	rules := Rules{EliminatoryThreshold: f(5), PassingAverage: 0, EliminatorySubjects: []string{"Physics", "Math"}}
	res := Evaluate(Grades{"Math": 1, "Physics": 1}, subjects, rules)
	// subject order, not rule order, decides
	if res.EliminationReason != "eliminatory subject Math below threshold" {
		t.Fatalf("reason = %q", res.EliminationReason)
	}
}

func TestEvaluateBelowPassingAverage(t *testing.T) {
	rules := Rules{PassingAverage: 13}
	res := Evaluate(Grades{"Math": 12, "French": 12}, twoSubjects(), rules)
	if res.WeightedAverage == nil || *res.WeightedAverage != 12 {
		t.Fatalf("average = %v, want 12", res.WeightedAverage)
	}
	if !res.IsEliminated || res.EliminationReason != "average below passing threshold" {
		t.Fatalf("got %+v", res)
	}
}

func TestEvaluateAdmissible(t *testing.T) {
	rules := Rules{EliminatoryThreshold: f(5), PassingAverage: 10, EliminatorySubjects: []string{"Math"}}
	res := Evaluate(Grades{"Math": 14, "French": 10}, twoSubjects(), rules)
	if res.IsEliminated || res.EliminationReason != "" {
		t.Fatalf("got %+v", res)
	}
	if res.WeightedAverage == nil || *res.WeightedAverage != 12.4 {
		t.Fatalf("average = %v", res.WeightedAverage)
	}
}

func TestEvaluateThresholdNotStrict(t *testing.T) {
	// a grade exactly at the threshold does not eliminate
	rules := Rules{EliminatoryThreshold: f(5), PassingAverage: 0, EliminatorySubjects: []string{"Math"}}
	res := Evaluate(Grades{"Math": 5, "French": 5}, twoSubjects(), rules)
	if res.IsEliminated {
		t.Fatalf("grade at threshold must not eliminate: %+v", res)
	}
}

func TestEvaluateZeroSubjectsIsCompleteWithNilAverage(t *testing.T) {
	res := Evaluate(Grades{}, nil, Rules{PassingAverage: 10})
	if !res.IsComplete {
		t.Fatal("zero subjects: vacuously complete")
	}
	if res.WeightedAverage != nil {
		t.Fatalf("zero subjects: average must be nil, got %v", *res.WeightedAverage)
	}
	if res.IsEliminated {
		t.Fatal("zero subjects: nothing to eliminate on")
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	rules := Rules{EliminatoryThreshold: f(5), PassingAverage: 10, EliminatorySubjects: []string{"Math"}}
	g := Grades{"Math": 3, "French": 18}
	first := Evaluate(g, twoSubjects(), rules)
	second := Evaluate(g, twoSubjects(), rules)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("evaluate not idempotent: %+v vs %+v", first, second)
	}
}
