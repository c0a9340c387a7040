package facade

import "strings"

// MatchMode selects how name patterns compare.
type MatchMode string

const (
	MatchContains   MatchMode = "contains"
	MatchStartsWith MatchMode = "startswith"
	MatchEquals     MatchMode = "equals"
)

// ParseMatchMode validates a wire match_mode string; empty defaults to
// contains.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(s)) {
	case "", MatchContains:
		return MatchContains, nil
	case MatchStartsWith:
		return MatchStartsWith, nil
	case MatchEquals:
		return MatchEquals, nil
	}
	return "", BadValuef("match_mode %q is not one of contains|startswith|equals", s)
}

// Match reports whether name matches pattern under the given mode.
// Matching is case-insensitive; an empty pattern matches everything.
func Match(name, pattern string, mode MatchMode) bool {
	if pattern == "" {
		return true
	}
	n := strings.ToLower(name)
	p := strings.ToLower(pattern)
	switch mode {
	case MatchStartsWith:
		return strings.HasPrefix(n, p)
	case MatchEquals:
		return n == p
	default:
		return strings.Contains(n, p)
	}
}
