package governor

import "fmt"

// resourceExhaustedError signals that a model cannot be admitted even after
// evicting every other resident entry. It carries required vs. available
// bytes for diagnostics.
type resourceExhaustedError struct {
	requiredBytes  int64
	availableBytes int64
}

func (e resourceExhaustedError) Error() string {
	return fmt.Sprintf("resource exhausted: need %d bytes, budget is %d", e.requiredBytes, e.availableBytes)
}

// ErrResourceExhausted constructs a resourceExhaustedError.
func ErrResourceExhausted(required, available int64) error {
	return resourceExhaustedError{requiredBytes: required, availableBytes: available}
}

// IsResourceExhausted reports whether err indicates an admission that cannot
// fit the memory budget.
func IsResourceExhausted(err error) bool {
	_, ok := err.(resourceExhaustedError)
	return ok
}

// ExhaustedBytes extracts required and available bytes from a
// resource-exhausted error.
func ExhaustedBytes(err error) (required, available int64, ok bool) {
	e, isExhausted := err.(resourceExhaustedError)
	if !isExhausted {
		return 0, 0, false
	}
	return e.requiredBytes, e.availableBytes, true
}
