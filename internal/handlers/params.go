package handlers

import (
	"strconv"

	"github.com/soundctl/livebridge/internal/facade"
)

// Params is the decoded request params object with typed accessors.
// JSON numbers arrive as float64; the accessors tolerate integer strings
// where clients are known to send them.
type Params map[string]any

// Int returns the integer at key, or def when absent.
func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch x := v.(type) {
	case float64:
		return int(x), nil
	case int:
		return x, nil
	case string:
		i, err := strconv.Atoi(x)
		if err != nil {
			return 0, facade.BadValuef("%s must be an integer, got %q", key, x)
		}
		return i, nil
	}
	return 0, facade.BadValuef("%s must be an integer, got %T", key, v)
}

// RequireInt returns the integer at key, failing when absent.
func (p Params) RequireInt(key string) (int, error) {
	if _, ok := p[key]; !ok {
		return 0, facade.BadValuef("missing required parameter %q", key)
	}
	return p.Int(key, 0)
}

// Float returns the float at key, or def when absent.
func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, facade.BadValuef("%s must be a number, got %q", key, x)
		}
		return f, nil
	}
	return 0, facade.BadValuef("%s must be a number, got %T", key, v)
}

// RequireFloat returns the float at key, failing when absent.
func (p Params) RequireFloat(key string) (float64, error) {
	if _, ok := p[key]; !ok {
		return 0, facade.BadValuef("missing required parameter %q", key)
	}
	return p.Float(key, 0)
}

// String returns the string at key, or def when absent.
func (p Params) String(key, def string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", facade.BadValuef("%s must be a string, got %T", key, v)
	}
	return s, nil
}

// RequireString returns the non-empty string at key.
func (p Params) RequireString(key string) (string, error) {
	s, err := p.String(key, "")
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", facade.BadValuef("missing required parameter %q", key)
	}
	return s, nil
}

// Bool returns the boolean at key, or def when absent. Numeric truthiness
// is accepted for clients that send 0/1.
func (p Params) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch x := v.(type) {
	case bool:
		return x, nil
	case float64:
		return x != 0, nil
	}
	return false, facade.BadValuef("%s must be a boolean, got %T", key, v)
}

// Has reports whether key is present and non-nil.
func (p Params) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// firstKey returns the first of names present in p, or "".
func (p Params) firstKey(names ...string) string {
	for _, n := range names {
		if p.Has(n) {
			return n
		}
	}
	return ""
}

// IntAlias returns the integer under the first present name, or def.
// Handlers use this where the wire accepts a legacy spelling next to the
// canonical key.
func (p Params) IntAlias(def int, names ...string) (int, error) {
	if k := p.firstKey(names...); k != "" {
		return p.Int(k, def)
	}
	return def, nil
}

// RequireIntAlias returns the integer under the first present name, failing
// when none is present. The first name is the canonical one for errors.
func (p Params) RequireIntAlias(names ...string) (int, error) {
	if k := p.firstKey(names...); k != "" {
		return p.Int(k, 0)
	}
	return 0, facade.BadValuef("missing required parameter %q", names[0])
}

// FloatAlias returns the float under the first present name, or def.
func (p Params) FloatAlias(def float64, names ...string) (float64, error) {
	if k := p.firstKey(names...); k != "" {
		return p.Float(k, def)
	}
	return def, nil
}

// StringAlias returns the string under the first present name, or def.
func (p Params) StringAlias(def string, names ...string) (string, error) {
	if k := p.firstKey(names...); k != "" {
		return p.String(k, def)
	}
	return def, nil
}

// RequireStringAlias returns the non-empty string under the first present
// name, failing when none is present.
func (p Params) RequireStringAlias(names ...string) (string, error) {
	if k := p.firstKey(names...); k != "" {
		return p.RequireString(k)
	}
	return "", facade.BadValuef("missing required parameter %q", names[0])
}

// BoolAlias returns the boolean under the first present name, or def.
func (p Params) BoolAlias(def bool, names ...string) (bool, error) {
	if k := p.firstKey(names...); k != "" {
		return p.Bool(k, def)
	}
	return def, nil
}

// Any returns the raw value at key.
func (p Params) Any(key string) any { return p[key] }

// MatchMode parses the match_mode parameter with the contains default.
func (p Params) MatchMode() (facade.MatchMode, error) {
	s, err := p.String("match_mode", "")
	if err != nil {
		return "", err
	}
	return facade.ParseMatchMode(s)
}
