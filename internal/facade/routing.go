package facade

import (
	"strings"

	"github.com/soundctl/livebridge/pkg/live"
)

// ResolveOption resolves a wire routing target against a host option list.
//
// target may be an integer index into options, or a substring matched
// case-insensitively against each option's display name, or nil (no change).
// When several display names contain the substring, the FIRST match in
// option order wins, deterministic by construction. Returns nil when
// nothing resolves; never fails.
func ResolveOption(options []live.RoutingOption, target any) live.RoutingOption {
	switch x := target.(type) {
	case nil:
		return nil
	case float64:
		i := int(x)
		if i >= 0 && i < len(options) {
			return options[i]
		}
	case int:
		if x >= 0 && x < len(options) {
			return options[x]
		}
	case string:
		trimmed := strings.TrimSpace(x)
		want := strings.ToLower(trimmed)
		if want == "" {
			return nil
		}
		// Exact display-name match takes priority over substring.
		for _, o := range options {
			if strings.EqualFold(o.DisplayName(), trimmed) {
				return o
			}
		}
		for _, o := range options {
			if strings.Contains(strings.ToLower(o.DisplayName()), want) {
				return o
			}
		}
	}
	return nil
}

// OptionNames extracts the display names of an option list.
func OptionNames(options []live.RoutingOption) []string {
	out := make([]string, len(options))
	for i, o := range options {
		out[i] = o.DisplayName()
	}
	return out
}

// DisplayNameOrNil returns o's display name or nil for a missing option.
func DisplayNameOrNil(o live.RoutingOption) any {
	if o == nil {
		return nil
	}
	return o.DisplayName()
}
