package dedup

import (
	"testing"

	"jobscout/internal/model"
)

func TestFingerprint_Deterministic(t *testing.T) {
	j := model.Job{Title: "Backend Engineer", Company: "Acme", Location: "Austin, TX"}

	first := Fingerprint(j)
	second := Fingerprint(j)
	if first != second {
		t.Errorf("Fingerprint not deterministic: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("Fingerprint length = %d, want 64 hex chars", len(first))
	}
}

func TestFingerprint_CaseAndWhitespaceInsensitive(t *testing.T) {
	a := model.Job{Title: "Backend Engineer", Company: "Acme", Location: "Austin, TX"}
	b := model.Job{Title: "  backend engineer ", Company: "ACME", Location: " austin, tx"}

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("jobs differing only in casing/whitespace should share a fingerprint")
	}
}

func TestFingerprint_DistinguishesFields(t *testing.T) {
	base := model.Job{Title: "Backend Engineer", Company: "Acme", Location: "Austin"}

	cases := []struct {
		name string
		job  model.Job
	}{
		{"different title", model.Job{Title: "Frontend Engineer", Company: "Acme", Location: "Austin"}},
		{"different company", model.Job{Title: "Backend Engineer", Company: "Globex", Location: "Austin"}},
		{"different location", model.Job{Title: "Backend Engineer", Company: "Acme", Location: "Remote"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if Fingerprint(base) == Fingerprint(tc.job) {
				t.Error("expected different fingerprints")
			}
		})
	}
}

func TestFingerprint_IgnoresNonIdentityFields(t *testing.T) {
	a := model.Job{Title: "Backend Engineer", Company: "Acme", Location: "Austin", Description: "one"}
	b := model.Job{Title: "Backend Engineer", Company: "Acme", Location: "Austin", Description: "two", URL: "https://x"}

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("fingerprint must depend only on title/company/location")
	}
}
