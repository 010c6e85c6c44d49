package orchestrator

import "fmt"

// ValidationError reports a bad workflow definition. It is raised
// synchronously at create/update time, never later. Unknown ids are not
// errors; lookups soft-fail with nil/false returns so batch loops keep going.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// IsValidationError unwraps err as a ValidationError
func IsValidationError(err error) (*ValidationError, bool) {
	ve, ok := err.(*ValidationError)
	return ve, ok
}
