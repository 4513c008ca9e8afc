package flatten

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Float coerces a JSON leaf to float64. Numeric strings are accepted because
// the CSSE API encodes coordinates as strings.
func Float(v any) (float64, error) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: number %q", ErrBadValue, x)
		}
		return f, nil
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		s := strings.TrimSpace(x)
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: string %q is not a number", ErrBadValue, x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %s is not a number", ErrBadValue, kindOf(v))
	}
}

// Int coerces a JSON leaf to int64. Fractional values are truncated toward zero.
func Int(v any) (int64, error) {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: number %q", ErrBadValue, x)
		}
		return truncate(f)
	case float64:
		return truncate(x)
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: string %q is not a number", ErrBadValue, x)
		}
		return truncate(f)
	default:
		return 0, fmt.Errorf("%w: %s is not a number", ErrBadValue, kindOf(v))
	}
}

// String coerces a JSON scalar to its string form.
func String(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		return "", fmt.Errorf("%w: %s is not a scalar", ErrBadValue, kindOf(v))
	}
}

func truncate(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%w: %v out of int64 range", ErrBadValue, f)
	}
	return int64(math.Trunc(f)), nil
}

// Floats returns every non-null value at p coerced to float64.
func Floats(doc any, p Path) ([]float64, error) {
	return collect(doc, p, Float)
}

// Ints returns every non-null value at p coerced to int64.
func Ints(doc any, p Path) ([]int64, error) {
	return collect(doc, p, Int)
}

// Strings returns every non-null value at p in string form.
func Strings(doc any, p Path) ([]string, error) {
	return collect(doc, p, String)
}

func collect[T any](doc any, p Path, conv func(any) (T, error)) ([]T, error) {
	vals, err := Walk(doc, p)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(vals))
	for i, v := range vals {
		if v == nil {
			continue
		}
		t, err := conv(v)
		if err != nil {
			return nil, fmt.Errorf("%s: value %d: %w", p, i, err)
		}
		out = append(out, t)
	}
	return out, nil
}
