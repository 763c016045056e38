package registry

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// ValidateArgs checks a tool call's arguments against the tool's parameter
// schema before the implementation runs: required fields must be present
// and values must match the declared primitive JSON types and enums.
// A nil or empty schema accepts any arguments.
func ValidateArgs(schema, args json.RawMessage) error {
	if len(schema) == 0 {
		return nil
	}
	var s objectSchema
	if err := json.Unmarshal(schema, &s); err != nil {
		return fmt.Errorf("malformed parameter schema: %w", err)
	}

	params := map[string]any{}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return fmt.Errorf("arguments are not a JSON object: %w", err)
		}
	}

	for _, field := range s.Required {
		if _, ok := params[field]; !ok {
			return fmt.Errorf("missing required argument: %s", field)
		}
	}

	for key, value := range params {
		prop, ok := s.Properties[key]
		if !ok {
			continue
		}
		if err := validateType(value, prop.Type); err != nil {
			return fmt.Errorf("argument %s: %w", key, err)
		}
		if len(prop.Enum) > 0 {
			str, _ := value.(string)
			if !slices.Contains(prop.Enum, str) {
				return fmt.Errorf("argument %s: %q is not one of %v", key, str, prop.Enum)
			}
		}
	}
	return nil
}

func validateType(value any, expected string) error {
	switch expected {
	case "", "any":
		return nil
	case "string":
		if _, ok := value.(string); ok {
			return nil
		}
	case "number":
		if _, ok := value.(float64); ok {
			return nil
		}
	case "integer":
		if f, ok := value.(float64); ok && math.Trunc(f) == f {
			return nil
		}
	case "boolean":
		if _, ok := value.(bool); ok {
			return nil
		}
	case "object":
		if _, ok := value.(map[string]any); ok {
			return nil
		}
	case "array":
		if _, ok := value.([]any); ok {
			return nil
		}
	case "null":
		if value == nil {
			return nil
		}
	default:
		return fmt.Errorf("unsupported schema type %q", expected)
	}
	return fmt.Errorf("expected %s, got %T", expected, value)
}
