package db

import "strings"

// readOnlyKeywords are the statement prefixes allowed through the guard.
var readOnlyKeywords = []string{"SELECT", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "WITH"}

// Classify decides whether a raw statement may reach the executor. The
// check is syntactic: trim whitespace, case-fold, and match the leading
// keyword against the read-only set. A statement that begins with an
// allowed keyword but nests a write (e.g. inside a CTE) is not detected;
// that is the documented contract, not an oversight.
func Classify(statement string) error {
	upper := strings.ToUpper(strings.TrimSpace(statement))
	for _, kw := range readOnlyKeywords {
		if strings.HasPrefix(upper, kw) {
			return nil
		}
	}
	return &PolicyError{Statement: statement}
}
