package loader

import (
	"fmt"
	"time"

	"github.com/zeusync/behave/internal/core/bt"
)

// Params are the free-form settings of a node as decoded from YAML or JSON.
type Params map[string]any

func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns p[key], or def when the key is absent.
func (p Params) String(key, def string) (string, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidParam, key, v)
	}
	return s, nil
}

// RequireString is String for mandatory keys.
func (p Params) RequireString(key string) (string, error) {
	if !p.Has(key) {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidParam, key)
	}
	return p.String(key, "")
}

// Int accepts YAML integers and JSON numbers without a fractional part.
func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidParam, key, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: %s must be an integer, got %T", ErrInvalidParam, key, v)
	}
}

func (p Params) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s must be a boolean, got %T", ErrInvalidParam, key, v)
	}
	return b, nil
}

// Duration parses strings such as "250ms".
func (p Params) Duration(key string, def time.Duration) (time.Duration, error) {
	s, err := p.String(key, "")
	if err != nil || s == "" {
		return def, err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidParam, key, err)
	}
	return d, nil
}

// Status reads a terminal leaf result, success or failure.
func (p Params) Status(key string, def bt.Status) (bt.Status, error) {
	s, err := p.String(key, "")
	if err != nil || s == "" {
		return def, err
	}
	st, err := bt.ParseStatus(s)
	if err != nil || (st != bt.StatusSuccess && st != bt.StatusFailure) {
		return 0, fmt.Errorf("%w: %s must be success or failure, got %q", ErrInvalidParam, key, s)
	}
	return st, nil
}
