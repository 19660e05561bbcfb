package models

import "fmt"

// ValidationError reports the first violated invariant of a record, naming
// the offending field and value. Callers match it with errors.As and can
// recover by correcting the input.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s=%v: %s", e.Field, e.Value, e.Reason)
}

func invalid(field string, value any, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}
