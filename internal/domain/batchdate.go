package domain

import (
	"regexp"
	"time"
)

// Canonical batch form: DDMMYYYY, e.g. "26082025".
const batchDateLayout = "02012006"

var (
	digits8Regex   = regexp.MustCompile(`^\d{8}$`)
	slashDateRegex = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
	isoDateRegex   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	dashDateRegex  = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`)
)

// NormalizeBatchToken reduces the accepted external batch representations
// to the canonical DDMMYYYY form:
//
//	"26082025"   -> "26082025"
//	"26/08/2025" -> "26082025"
//	"2025-08-26" -> "26082025"
//	"26-08-2025" -> "26082025"
//
// Unparseable values normalize to their original string, so two
// identical unknown tokens still compare equal.
func NormalizeBatchToken(token string) string {
	if token == "" {
		return ""
	}

	if digits8Regex.MatchString(token) {
		return token
	}

	if m := slashDateRegex.FindStringSubmatch(token); m != nil {
		return m[1] + m[2] + m[3]
	}
	if m := isoDateRegex.FindStringSubmatch(token); m != nil {
		return m[3] + m[2] + m[1]
	}
	if m := dashDateRegex.FindStringSubmatch(token); m != nil {
		return m[1] + m[2] + m[3]
	}

	return token
}

// NormalizeBatchDate renders a stored date value in the canonical form.
func NormalizeBatchDate(t time.Time) string {
	return t.Format(batchDateLayout)
}
