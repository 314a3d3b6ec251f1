package selector

import (
	"fmt"

	"ravend/pkg/types"
)

// noCompatibleModelError signals that no candidate survived the hard hardware
// filter. It carries the constraints that could not be satisfied for
// user-facing diagnostics.
type noCompatibleModelError struct {
	constraints types.TaskRequest
	missing     []types.AcceleratorKind
}

func (e noCompatibleModelError) Error() string {
	if len(e.missing) > 0 {
		return fmt.Sprintf("no compatible model: host lacks required hardware %v", e.missing)
	}
	return "no compatible model for the given constraints"
}

// Constraints returns the task constraints that could not be satisfied.
func (e noCompatibleModelError) Constraints() types.TaskRequest { return e.constraints }

// ErrNoCompatibleModel constructs the error carried when every candidate is
// excluded by the hard filter.
func ErrNoCompatibleModel(c types.TaskRequest, missing []types.AcceleratorKind) error {
	return noCompatibleModelError{constraints: c, missing: missing}
}

// IsNoCompatibleModel reports whether err indicates an empty candidate pool.
func IsNoCompatibleModel(err error) bool {
	_, ok := err.(noCompatibleModelError)
	return ok
}

// UnmetConstraints extracts the constraints from a no-compatible-model error.
func UnmetConstraints(err error) (types.TaskRequest, bool) {
	e, ok := err.(noCompatibleModelError)
	if !ok {
		return types.TaskRequest{}, false
	}
	return e.constraints, true
}
