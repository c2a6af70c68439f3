package rank

import (
	"fmt"
	"math"
)

// Parameters decoded from JSON arrive as float64, from YAML as int, and from
// Go callers as whatever they pass. These helpers coerce them.

func paramString(params []any, i int, name string) (string, error) {
	s, ok := params[i].(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidParameter, name, params[i])
	}
	return s, nil
}

func paramInt(params []any, i int, name string) (int, error) {
	switch v := params[i].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		if v > math.MaxInt {
			break
		}
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
			break
		}
		return int(v), nil
	}
	return 0, fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidParameter, name, params[i])
}

// maxPosition is the largest offset or length a MARC record can hold
const maxPosition = 99999

func paramNonNegativeInt(params []any, i int, name string) (int, error) {
	n, err := paramInt(params, i, name)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > maxPosition {
		return 0, fmt.Errorf("%w: %s must be between 0 and %d, got %d", ErrInvalidParameter, name, maxPosition, n)
	}
	return n, nil
}

// paramStrings accepts a single string or a list of strings
func paramStrings(params []any, i int, name string) ([]string, error) {
	switch v := params[i].(type) {
	case string:
		return []string{v}, nil
	case []string:
		return append([]string{}, v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for j, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d] must be a string, got %T", ErrInvalidParameter, name, j, item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s must be a string or a list of strings, got %T", ErrInvalidParameter, name, params[i])
}
