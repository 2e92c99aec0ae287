package config

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var tokenizeOptionKeys = []string{"num_tokens", "min_tokens", "max_tokens", "variance"}

// ParseTokenizeOptions parses the compact flag form
// "num_tokens=200,min_tokens=180,max_tokens=220,variance=10".
// min_tokens, max_tokens and variance are required; num_tokens may be omitted.
// An empty string yields nil, meaning no constraint.
func ParseTokenizeOptions(value string) (*TokenizeOptions, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	settings := map[string]interface{}{}
	for _, part := range strings.Split(value, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("token option must be in key=value format: %q", part)
		}
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		if _, dup := settings[key]; dup {
			return nil, fmt.Errorf("duplicate token option %q", key)
		}
		settings[key] = strings.TrimSpace(kv[1])
	}
	return buildTokenizeOptions(settings)
}

// tokenizeOptionsFromSetting accepts either the compact string form or a
// nested map from a config file.
func tokenizeOptionsFromSetting(value interface{}) (*TokenizeOptions, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return ParseTokenizeOptions(v)
	default:
		table, err := asOptionTable(value)
		if err != nil {
			return nil, err
		}
		return buildTokenizeOptions(table)
	}
}

func buildTokenizeOptions(settings map[string]interface{}) (*TokenizeOptions, error) {
	for key := range settings {
		if !isTokenizeOptionKey(key) {
			return nil, fmt.Errorf("unknown token option %q", key)
		}
	}

	opts := &TokenizeOptions{}
	if raw, ok := settings["num_tokens"]; ok {
		val, err := strictInt(raw)
		if err != nil {
			return nil, fmt.Errorf("num_tokens: %w", err)
		}
		opts.NumTokens = &val
	}
	required := []struct {
		key string
		dst *int
	}{
		{"min_tokens", &opts.MinTokens},
		{"max_tokens", &opts.MaxTokens},
		{"variance", &opts.Variance},
	}
	for _, field := range required {
		raw, ok := settings[field.key]
		if !ok {
			return nil, fmt.Errorf("%s is required", field.key)
		}
		val, err := strictInt(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field.key, err)
		}
		*field.dst = val
	}
	return opts, nil
}

func isTokenizeOptionKey(key string) bool {
	for _, known := range tokenizeOptionKeys {
		if key == known {
			return true
		}
	}
	return false
}

// strictInt is asInteger without the blank-means-zero leniency.
func strictInt(value interface{}) (int, error) {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("value is required")
	}
	if value == nil {
		return 0, fmt.Errorf("value is required")
	}
	return asInteger(value)
}

// ParseExtraMetadata parses run metadata given either as "key1=value1,key2=value2"
// or as a JSON object. Non-string JSON values keep their raw JSON text.
func ParseExtraMetadata(value string) (map[string]string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if strings.HasPrefix(value, "{") {
		if !gjson.Valid(value) {
			return nil, fmt.Errorf("extra metadata is not valid JSON")
		}
		parsed := gjson.Parse(value)
		if !parsed.IsObject() {
			return nil, fmt.Errorf("extra metadata must be a JSON object")
		}
		meta := map[string]string{}
		parsed.ForEach(func(key, val gjson.Result) bool {
			if val.Type == gjson.String {
				meta[key.String()] = val.String()
			} else {
				meta[key.String()] = val.Raw
			}
			return true
		})
		return meta, nil
	}

	meta := map[string]string{}
	for _, entry := range strings.Split(value, ",") {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("extra metadata must be in key=value format: %s", entry)
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			return nil, fmt.Errorf("extra metadata key cannot be empty")
		}
		meta[key] = strings.TrimSpace(parts[1])
	}
	return meta, nil
}

func extraMetadataFromSetting(value interface{}) (map[string]string, error) {
	if s, ok := value.(string); ok {
		return ParseExtraMetadata(s)
	}
	return asStringMap(value)
}
