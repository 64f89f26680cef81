package shortcode

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// DefaultMinAliasLength is the minimum alias length used when none is configured.
const DefaultMinAliasLength = 8

// Reason tells why an alias was rejected.
type Reason int

const (
	ReasonTooShort Reason = iota + 1
	ReasonTooLong
	ReasonInvalidCharacters
)

func (r Reason) String() string {
	switch r {
	case ReasonTooShort:
		return "too short"
	case ReasonTooLong:
		return "too long"
	case ReasonInvalidCharacters:
		return "invalid characters"
	default:
		return "unknown"
	}
}

// AliasError is returned by AliasValidator.Validate for a rejected alias.
type AliasError struct {
	Reason    Reason
	MinLength int
	MaxLength int
}

func (e *AliasError) Error() string {
	switch e.Reason {
	case ReasonTooShort:
		return fmt.Sprintf("alias must be at least %d characters", e.MinLength)
	case ReasonTooLong:
		return fmt.Sprintf("alias must be at most %d characters", e.MaxLength)
	case ReasonInvalidCharacters:
		return "alias may only contain letters and digits"
	default:
		return "invalid alias"
	}
}

// AliasValidator checks the syntax of custom aliases.
type AliasValidator struct {
	minLength int
	validate  *validator.Validate
}

// NewAliasValidator returns a validator requiring at least minLength characters.
// A non-positive minLength falls back to DefaultMinAliasLength.
func NewAliasValidator(minLength int) *AliasValidator {
	if minLength <= 0 {
		minLength = DefaultMinAliasLength
	}

	return &AliasValidator{
		minLength: minLength,
		validate:  validator.New(),
	}
}

// MinLength returns the configured minimum alias length.
func (v *AliasValidator) MinLength() int {
	return v.minLength
}

// Validate returns nil for an acceptable alias or an *AliasError describing
// the first rule it breaks. Rules are checked in order: minimum length,
// ASCII letters and digits only, maximum length.
func (v *AliasValidator) Validate(alias string) error {
	rules := []struct {
		tag    string
		reason Reason
	}{
		{tag: fmt.Sprintf("min=%d", v.minLength), reason: ReasonTooShort},
		{tag: "alphanum", reason: ReasonInvalidCharacters},
		{tag: fmt.Sprintf("max=%d", MaxLength), reason: ReasonTooLong},
	}

	for _, rule := range rules {
		if err := v.validate.Var(alias, rule.tag); err != nil {
			return &AliasError{
				Reason:    rule.reason,
				MinLength: v.minLength,
				MaxLength: MaxLength,
			}
		}
	}

	return nil
}
