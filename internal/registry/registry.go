// Package registry discovers model artifacts on disk and answers
// capability/constraint queries over their metadata.
package registry

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"ravend/pkg/types"
)

// Registry owns the set of ModelDescriptor records. State mutates only via
// Discover and Unregister; all read operations are pure. Registration order
// is preserved and is the deterministic tie-break order downstream.
type Registry struct {
	mu     sync.RWMutex
	log    zerolog.Logger
	models []types.ModelDescriptor
	byID   map[string]int
}

func New(log zerolog.Logger) *Registry {
	return &Registry{
		log:  log,
		byID: make(map[string]int),
	}
}

// List returns all registered descriptors in registration order.
func (r *Registry) List() []types.ModelDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.ModelDescriptor, len(r.models))
	copy(out, r.models)
	return out
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}

// Get returns the descriptor for id or a not-found error.
func (r *Registry) Get(id string) (types.ModelDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[id]
	if !ok {
		return types.ModelDescriptor{}, ErrNotFound(id)
	}
	return r.models[i], nil
}

// Unregister removes the descriptor for id. Returns a not-found error when
// the id is unknown.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.byID[id]
	if !ok {
		return ErrNotFound(id)
	}
	r.models = append(r.models[:i], r.models[i+1:]...)
	delete(r.byID, id)
	for j := i; j < len(r.models); j++ {
		r.byID[r.models[j].ID] = j
	}
	return nil
}

// SelectCandidates returns descriptors satisfying every set constraint, in
// registration order. Unset fields impose no filter. An empty result is not
// an error.
func (r *Registry) SelectCandidates(c types.TaskRequest) []types.ModelDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.ModelDescriptor, 0, len(r.models))
	for _, m := range r.models {
		if meetsConstraints(m, c) {
			out = append(out, m)
		}
	}
	return out
}

func meetsConstraints(m types.ModelDescriptor, c types.TaskRequest) bool {
	if c.DeclaredType != "" && m.DeclaredType != c.DeclaredType {
		return false
	}
	if c.MaxSizeBytes > 0 && m.SizeBytes > c.MaxSizeBytes {
		return false
	}
	if c.RequiresBatching && !m.SupportsBatching {
		return false
	}
	for _, kind := range c.RequiredHardware {
		if kind == types.AcceleratorCPU {
			continue
		}
		if !hasKind(m.RequiredHardware, kind) {
			return false
		}
	}
	if c.MaxQuantBits > 0 && m.Quantization != "" {
		if bits := quantBits(m.Quantization); bits > 0 && bits > c.MaxQuantBits {
			return false
		}
	}
	return true
}

func hasKind(kinds []types.AcceleratorKind, kind types.AcceleratorKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// quantBits extracts the bit width from a quantization tag (Q4_K_M -> 4).
func quantBits(quant string) int {
	q := strings.ToUpper(quant)
	if len(q) < 2 || q[0] != 'Q' {
		return 0
	}
	if q[1] < '0' || q[1] > '9' {
		return 0
	}
	return int(q[1] - '0')
}
