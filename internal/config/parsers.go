// Package config assembles the RunConfiguration for an inference benchmark
// run from built-in defaults, an optional config file and command-line flags.
//
// Config files are decoded by viper, so file settings reach this package as
// the few types the JSON, YAML and TOML decoders emit: string, bool, int,
// int64, float64, []interface{} and map[string]interface{} with lowercased
// keys. The coercion helpers below accept exactly those and refuse values
// that would silently change a count, a token bound or a request rate.
package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// lookupSetting returns the first of keys present in settings. Viper
// lowercases file keys, so callers list every accepted spelling in lowercase
// (snake_case, run-together and kebab-case).
func lookupSetting(settings map[string]interface{}, keys ...string) (interface{}, bool) {
	for _, key := range keys {
		if val, ok := settings[key]; ok {
			return val, true
		}
	}
	return nil, false
}

// asString accepts a scalar setting. Lists and tables are rejected so that a
// misplaced block in a config file does not turn into a Go-syntax string.
func asString(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool, int, int64, float64:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("expected a scalar value, got %T", value)
	}
}

// asInteger coerces counts such as max_vus, num_rates and token bounds.
// Floats are accepted only when integral: JSON has no integer type, but
// 1.9 virtual users or 200.5 tokens is a mistake, not a request to truncate.
// A nil or blank value is zero.
func asInteger(value interface{}) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int64:
		if v > math.MaxInt || v < math.MinInt {
			return 0, fmt.Errorf("%d is out of range", v)
		}
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("must be an integer, got %g", v)
		}
		if v >= math.MaxInt || v < math.MinInt {
			return 0, fmt.Errorf("%g is out of range", v)
		}
		return int(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("must be an integer, got %q", s)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("must be an integer, got %T", value)
	}
}

// asRate coerces one request rate in requests per second.
func asRate(value interface{}) (float64, error) {
	var f float64
	switch v := value.(type) {
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid rate %q", strings.TrimSpace(v))
		}
		f = parsed
	default:
		return 0, fmt.Errorf("invalid rate of type %T", value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("rate must be finite, got %g", f)
	}
	return f, nil
}

// asRates coerces the rates setting, given either as a list or as a
// comma-separated string such as "1.5,3,10". An empty list or blank string
// means no explicit rates and yields nil, the same as omitting the key.
func asRates(value interface{}) ([]float64, error) {
	var items []interface{}
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		for _, part := range strings.Split(v, ",") {
			items = append(items, part)
		}
	case []interface{}:
		items = v
	default:
		return nil, fmt.Errorf("expected a list of rates, got %T", value)
	}
	if len(items) == 0 {
		return nil, nil
	}
	rates := make([]float64, len(items))
	for i, item := range items {
		r, err := asRate(item)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		rates[i] = r
	}
	return rates, nil
}

func asBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return false, nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("must be true or false, got %q", s)
		}
		return b, nil
	default:
		return false, fmt.Errorf("must be true or false, got %T", value)
	}
}

// asDuration accepts a Go duration string ("2m", "90s") or a bare number of
// seconds, fractional seconds included.
func asDuration(value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		return time.ParseDuration(s)
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("duration must be finite, got %g", v)
		}
		return time.Duration(v * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("expected a duration, got %T", value)
	}
}

// asStringMap coerces a table of run metadata. Values must be scalars.
func asStringMap(value interface{}) (map[string]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		result := make(map[string]string, len(v))
		for key, raw := range v {
			if strings.TrimSpace(key) == "" {
				return nil, fmt.Errorf("key cannot be empty")
			}
			str, err := asString(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			result[key] = str
		}
		return result, nil
	default:
		return nil, fmt.Errorf("expected a table, got %T", value)
	}
}

// asOptionTable coerces a nested table such as prompt_options. Keys are
// lowercased and kebab-case is folded to snake_case.
func asOptionTable(value interface{}) (map[string]interface{}, error) {
	table, ok := value.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a table, got %T", value)
	}
	result := make(map[string]interface{}, len(table))
	for key, val := range table {
		key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
		result[key] = val
	}
	return result, nil
}
