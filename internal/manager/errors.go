package manager

import "fmt"

// invalidPreferenceError signals a rejected preference update. It names the
// offending field; the prior preferences stay active.
type invalidPreferenceError struct {
	field  string
	reason string
}

func (e invalidPreferenceError) Error() string {
	return fmt.Sprintf("invalid preference %s: %s", e.field, e.reason)
}

// Field returns the name of the rejected preference field.
func (e invalidPreferenceError) Field() string { return e.field }

// ErrInvalidPreference constructs an invalidPreferenceError.
func ErrInvalidPreference(field, reason string) error {
	return invalidPreferenceError{field: field, reason: reason}
}

// IsInvalidPreference reports whether err indicates a preference validation
// failure.
func IsInvalidPreference(err error) bool {
	_, ok := err.(invalidPreferenceError)
	return ok
}
