package registry

import "fmt"

// discoveryError signals that a scan directory could not be read. It is fatal
// to that scan only; individual bad artifacts are skipped instead.
type discoveryError struct {
	dir string
	err error
}

func (e discoveryError) Error() string { return fmt.Sprintf("discover %s: %v", e.dir, e.err) }
func (e discoveryError) Unwrap() error { return e.err }

// IsDiscoveryError reports whether err indicates an unreadable models directory.
func IsDiscoveryError(err error) bool {
	_, ok := err.(discoveryError)
	return ok
}

// notFoundError signals an unknown model id.
type notFoundError struct{ id string }

func (e notFoundError) Error() string { return "model not found: " + e.id }

// ErrNotFound constructs a notFoundError for the given id.
func ErrNotFound(id string) error { return notFoundError{id: id} }

// IsNotFound reports whether the error indicates a missing model id.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}
