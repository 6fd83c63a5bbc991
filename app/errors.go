package app

import (
	"github.com/artpar/familyhub/core/schema"
)

// ValidationError reports rejected client input with every failure found.
type ValidationError struct {
	Entity    string
	Operation schema.Operation
	Result    schema.ValidationResult
}

func (e *ValidationError) Error() string {
	prefix := "Validation failed: "
	if e.Operation == schema.OpQuery {
		prefix = "Query validation failed: "
	}
	return prefix + e.Result.Error()
}

// Details returns the individual field failures in order.
func (e *ValidationError) Details() []schema.FieldError {
	return e.Result.Errors
}
