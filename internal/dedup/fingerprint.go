package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"jobscout/internal/model"
)

// Fingerprint returns a stable digest of a job's identity fields
// {title, company, location}. Each field is lower-cased and space-trimmed,
// then the three are serialized in sorted key order before hashing, so the
// output is deterministic across restarts and independent of struct layout.
func Fingerprint(j model.Job) string {
	h := sha256.New()
	fmt.Fprintf(h, "company=%s\x00location=%s\x00title=%s",
		foldField(j.Company),
		foldField(j.Location),
		foldField(j.Title),
	)
	return hex.EncodeToString(h.Sum(nil))
}

func foldField(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
