package facade

import (
	"math"
	"strconv"
	"strings"

	"github.com/soundctl/livebridge/pkg/live"
)

// Normalize resolves a polymorphic wire value against a parameter and
// returns the concrete value to set. Accepted forms:
//
//   - a number: passthrough
//   - "min" / "max": the parameter bounds
//   - "N%": percentage of the [min, max] span
//   - "NdB" / "N dB": the numeric part parsed as a float
//   - a bare numeric string
//   - one of the parameter's value item labels (quantized parameters only):
//     resolves to the item's index
//
// The result is always clamped to [min, max] and, for quantized parameters,
// rounded to the nearest integer.
func Normalize(p live.Parameter, value any) (float64, error) {
	var v float64
	switch x := value.(type) {
	case float64:
		v = x
	case int:
		v = float64(x)
	case bool:
		// Toggles arrive as booleans from some clients.
		if x {
			v = 1
		}
	case string:
		parsed, err := normalizeString(p, x)
		if err != nil {
			return 0, err
		}
		v = parsed
	default:
		return 0, BadValuef("cannot interpret %v (%T) as a value for parameter %q", value, value, p.Name())
	}
	return Clamp(p, v), nil
}

func normalizeString(p live.Parameter, s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	lower := strings.ToLower(trimmed)

	switch lower {
	case "min":
		return p.Min(), nil
	case "max":
		return p.Max(), nil
	}

	if strings.HasSuffix(trimmed, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(trimmed, "%")), 64)
		if err != nil {
			return 0, BadValuef("bad percentage %q for parameter %q", s, p.Name())
		}
		return p.Min() + pct/100*(p.Max()-p.Min()), nil
	}

	if strings.HasSuffix(lower, "db") {
		num, err := strconv.ParseFloat(strings.TrimSpace(trimmed[:len(trimmed)-2]), 64)
		if err != nil {
			return 0, BadValuef("bad dB value %q for parameter %q", s, p.Name())
		}
		return num, nil
	}

	if num, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return num, nil
	}

	if p.IsQuantized() {
		for i, item := range p.ValueItems() {
			if strings.EqualFold(item, trimmed) {
				return float64(i), nil
			}
		}
	}

	return 0, BadValuef("cannot interpret %q as a value for parameter %q", s, p.Name())
}

// Clamp bounds v to the parameter range, rounding quantized parameters to
// the nearest step.
func Clamp(p live.Parameter, v float64) float64 {
	v = math.Max(p.Min(), math.Min(p.Max(), v))
	if p.IsQuantized() {
		v = math.Round(v)
	}
	return v
}

// SetParam normalizes value against p and writes it.
func SetParam(p live.Parameter, value any) (float64, error) {
	v, err := Normalize(p, value)
	if err != nil {
		return 0, err
	}
	if err := p.SetValue(v); err != nil {
		return 0, BadValuef("set %q: %v", p.Name(), err)
	}
	return v, nil
}

// FindParameter resolves a parameter reference that may be an integer index
// or a case-insensitive name.
func FindParameter(d live.Device, ref any) (int, live.Parameter, error) {
	params := d.Parameters()
	switch x := ref.(type) {
	case float64:
		i := int(x)
		if i < 0 || i >= len(params) {
			return 0, nil, OutOfRangef("parameter index %d out of range (0-%d)", i, len(params)-1)
		}
		return i, params[i], nil
	case int:
		if x < 0 || x >= len(params) {
			return 0, nil, OutOfRangef("parameter index %d out of range (0-%d)", x, len(params)-1)
		}
		return x, params[x], nil
	case string:
		for i, p := range params {
			if strings.EqualFold(p.Name(), x) {
				return i, p, nil
			}
		}
		return 0, nil, NotFoundf("no parameter named %q on device %q", x, d.Name())
	}
	return 0, nil, BadValuef("parameter reference must be an index or name, got %T", ref)
}

// ParamInfo shapes one parameter for the wire.
func ParamInfo(index int, p live.Parameter) map[string]any {
	info := map[string]any{
		"index":        index,
		"name":         p.Name(),
		"min":          p.Min(),
		"max":          p.Max(),
		"value":        p.Value(),
		"is_quantized": p.IsQuantized(),
	}
	if items := p.ValueItems(); len(items) > 0 {
		info["value_items"] = items
	}
	if u := p.Unit(); u != "" {
		info["unit"] = u
	}
	return info
}
