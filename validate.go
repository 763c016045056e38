package chain

import (
	"fmt"
	"unicode"
)

// Validate checks universal constraints on Request.
// Model implementations may apply additional provider-specific validation.
func (r Request) Validate() error {
	if r.Temperature != nil {
		if *r.Temperature < 0 || *r.Temperature > 2 {
			return fmt.Errorf("temperature must be in [0, 2], got %g: %w", *r.Temperature, ErrValidation)
		}
	}
	if r.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d: %w", r.MaxTokens, ErrValidation)
	}
	for _, t := range r.Tools {
		if !ValidToolName(t.Name) {
			return fmt.Errorf("invalid tool name %q: %w", t.Name, ErrValidation)
		}
	}
	return nil
}

// ValidToolName reports whether name is a valid tool identifier: a letter
// or underscore followed by letters, digits, or underscores.
func ValidToolName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
