package models

import (
	"fmt"
	"strings"
	"time"
)

// TermSeparator joins the year and period parts of a term label.
const TermSeparator = "/"

// TermKey identifies an academic term by year and period, e.g. "2024/1".
type TermKey struct {
	Year   string
	Period string
}

// ParseTermKey parses a canonical term label ("YYYY/P").
func ParseTermKey(s string) (TermKey, error) {
	parts := strings.Split(s, TermSeparator)
	if len(parts) != 2 {
		return TermKey{}, fmt.Errorf("invalid term %q: expected format year%speriod", s, TermSeparator)
	}
	year, period := parts[0], parts[1]
	if len(year) < 4 {
		return TermKey{}, fmt.Errorf("invalid term %q: year must have at least 4 digits", s)
	}
	if len(period) != 1 {
		return TermKey{}, fmt.Errorf("invalid term %q: period must be a single character", s)
	}
	return TermKey{Year: year, Period: period}, nil
}

// CurrentTermAt derives the term in effect at the given time. The first
// semester runs through June, the second from July on.
func CurrentTermAt(now time.Time) TermKey {
	period := "1"
	if now.Month() > time.June {
		period = "2"
	}
	return TermKey{Year: fmt.Sprintf("%04d", now.Year()), Period: period}
}

// CurrentTerm derives the term in effect right now.
func CurrentTerm() TermKey {
	return CurrentTermAt(time.Now())
}

// String renders the canonical label.
func (k TermKey) String() string {
	return k.Year + TermSeparator + k.Period
}

// IsZero reports whether the key is empty.
func (k TermKey) IsZero() bool {
	return k.Year == "" && k.Period == ""
}
