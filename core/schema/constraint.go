package schema

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Constraint defines a validation rule for a field.
type Constraint struct {
	// Type is the constraint type (min, positive, max_length, min_items, etc.)
	Type ConstraintType `yaml:"type" json:"type"`

	// Value is the constraint parameter: a bound, a length or a count.
	Value any `yaml:"value,omitempty" json:"value,omitempty"`

	// Message is the custom error message (optional).
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
}

// ConstraintType identifies the type of constraint.
type ConstraintType string

const (
	// Numeric constraints
	ConstraintMin      ConstraintType = "min"      // Minimum numeric value, inclusive
	ConstraintPositive ConstraintType = "positive" // Strictly greater than zero

	// String constraints
	ConstraintMinLength ConstraintType = "min_length"
	ConstraintMaxLength ConstraintType = "max_length"
	ConstraintURL       ConstraintType = "url"

	// Array constraints
	ConstraintMinItems ConstraintType = "min_items"
)

// Error codes carried by FieldError.
const (
	CodeRequired     = "required"
	CodeInvalidType  = "invalid_type"
	CodeInvalidEnum  = "invalid_enum"
	CodeTooSmall     = "too_small"
	CodeTooBig       = "too_big"
	CodeInvalidValue = "invalid_value"
)

// FieldError is one validation failure located by a dotted path
// such as "ingredients.0.amount".
type FieldError struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationResult is the outcome of validating one input.
// Value is populated only when Valid is true.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Value  map[string]any `json:"value,omitempty"`
	Errors []FieldError   `json:"errors,omitempty"`
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(path, code, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, FieldError{Path: path, Code: code, Message: message})
}

// Error returns a combined error message.
func (r ValidationResult) Error() string {
	if r.Valid {
		return ""
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, ", ")
}

// Paths returns the error paths in order.
func (r ValidationResult) Paths() []string {
	paths := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		paths[i] = e.Path
	}
	return paths
}

// ValidateConstraint validates a normalized value against a single constraint.
// This is a PURE function.
func ValidateConstraint(path string, value any, c Constraint) *FieldError {
	switch c.Type {
	case ConstraintMin:
		return checkNumber(path, value, c, CodeTooSmall, func(v, limit float64) bool { return v >= limit }, "must be at least %v")
	case ConstraintPositive:
		return validatePositive(path, value, c)
	case ConstraintMinLength:
		return validateMinLength(path, value, c)
	case ConstraintMaxLength:
		return validateMaxLength(path, value, c)
	case ConstraintURL:
		return validateURL(path, value, c)
	case ConstraintMinItems:
		return validateMinItems(path, value, c)
	default:
		return nil
	}
}

func checkNumber(path string, value any, c Constraint, code string, ok func(v, limit float64) bool, format string) *FieldError {
	limit, err := toFloat64(c.Value)
	if err != nil {
		return nil // Invalid constraint config, rejected at parse time
	}
	val, isNum := value.(float64)
	if !isNum {
		return nil
	}
	if ok(val, limit) {
		return nil
	}
	return &FieldError{Path: path, Code: code, Message: messageOr(c, fmt.Sprintf(format, limit))}
}

func validatePositive(path string, value any, c Constraint) *FieldError {
	val, ok := value.(float64)
	if !ok || val > 0 {
		return nil
	}
	return &FieldError{Path: path, Code: CodeTooSmall, Message: messageOr(c, "must be positive")}
}

func validateMinLength(path string, value any, c Constraint) *FieldError {
	minLen, err := toInt(c.Value)
	if err != nil {
		return nil
	}
	str, ok := value.(string)
	if !ok {
		return nil
	}
	if utf8.RuneCountInString(str) < minLen {
		return &FieldError{Path: path, Code: CodeTooSmall, Message: messageOr(c, fmt.Sprintf("must be at least %d characters", minLen))}
	}
	return nil
}

func validateMaxLength(path string, value any, c Constraint) *FieldError {
	maxLen, err := toInt(c.Value)
	if err != nil {
		return nil
	}
	str, ok := value.(string)
	if !ok {
		return nil
	}
	if utf8.RuneCountInString(str) > maxLen {
		return &FieldError{Path: path, Code: CodeTooBig, Message: messageOr(c, fmt.Sprintf("must be less than %d characters", maxLen))}
	}
	return nil
}

func validateURL(path string, value any, c Constraint) *FieldError {
	str, ok := value.(string)
	if !ok {
		return nil
	}
	u, err := url.ParseRequestURI(str)
	if err == nil && u.Scheme != "" && u.Host != "" {
		return nil
	}
	return &FieldError{Path: path, Code: CodeInvalidValue, Message: messageOr(c, "must be a valid URL")}
}

func validateMinItems(path string, value any, c Constraint) *FieldError {
	minItems, err := toInt(c.Value)
	if err != nil {
		return nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	if len(items) < minItems {
		return &FieldError{Path: path, Code: CodeTooSmall, Message: messageOr(c, fmt.Sprintf("must contain at least %d item(s)", minItems))}
	}
	return nil
}

func messageOr(c Constraint, fallback string) string {
	if c.Message != "" {
		return c.Message
	}
	return fallback
}

// toFloat64 converts various numeric types to float64.
func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", v)
	}
}

// toInt converts various types to int.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("cannot convert %T to int", v)
	}
}
