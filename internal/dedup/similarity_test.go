package dedup

import (
	"testing"

	"jobscout/internal/model"
)

func TestRatio(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "engineer", "engineer", 1},
		{"both empty", "", "", 1},
		{"one empty", "engineer", "", 0},
		{"disjoint", "aaa", "bbb", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Ratio(tc.a, tc.b); got != tc.want {
				t.Errorf("Ratio(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestRatio_SingleEdit(t *testing.T) {
	// One dropped character keeps the ratio very high.
	got := Ratio("senior backend engineer", "senior backend enginer")
	if got < 0.95 {
		t.Errorf("Ratio = %v, want >= 0.95 for a one-character edit", got)
	}
}

func TestSimilar_ThresholdBoundary(t *testing.T) {
	near := [2]model.Job{
		{Title: "Senior Backend Engineer", Company: "Acme"},
		{Title: "Senior Backend Enginer", Company: "Acme"},
	}
	if !Similar(near[0], near[1], DefaultThreshold) {
		t.Error("one-character title edit at the same company should classify as similar")
	}

	far := [2]model.Job{
		{Title: "Backend Engineer", Company: "Acme"},
		{Title: "Frontend Designer", Company: "Acme"},
	}
	if Similar(far[0], far[1], DefaultThreshold) {
		t.Error("unrelated titles should not classify as similar")
	}
}

func TestSimilar_RequiresExactCompany(t *testing.T) {
	a := model.Job{Title: "Backend Engineer", Company: "Acme"}
	b := model.Job{Title: "Backend Engineer", Company: "Acme Labs"}

	if Similar(a, b, DefaultThreshold) {
		t.Error("identical titles at different companies must not match")
	}
}

func TestSimilar_CompanyCaseFolded(t *testing.T) {
	a := model.Job{Title: "Backend Engineer", Company: "ACME"}
	b := model.Job{Title: "backend engineer", Company: "acme"}

	if !Similar(a, b, DefaultThreshold) {
		t.Error("company comparison must be case-insensitive")
	}
}

func TestSimilar_IgnoresLocation(t *testing.T) {
	a := model.Job{Title: "Backend Engineer", Company: "Acme", Location: "Remote"}
	b := model.Job{Title: "Backend Engineer", Company: "Acme", Location: "Austin, TX"}

	if !Similar(a, b, DefaultThreshold) {
		t.Error("location must not participate in the fuzzy check")
	}
}
