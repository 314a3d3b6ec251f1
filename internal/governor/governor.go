// Package governor tracks aggregate model memory residency and enforces the
// session budget, evicting least-recently-used entries when a new model does
// not fit.
package governor

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ravend/pkg/types"
)

// Entry is the residency bookkeeping for one loaded model.
type Entry struct {
	ModelID       string
	ResidentBytes int64
	LastUsed      time.Time
	LoadCount     int
}

// Handle is the opaque residency token returned by Admit.
type Handle struct {
	modelID string
}

// ModelID returns the id of the admitted model.
func (h *Handle) ModelID() string { return h.modelID }

// Governor owns the cache entries. Admission and eviction form one critical
// section per instance; the budget invariant (sum of resident bytes never
// exceeds the budget) holds after every successful Admit.
type Governor struct {
	mu      sync.Mutex
	log     zerolog.Logger
	budget  int64
	entries map[string]*Entry

	evictions uint64
	loads     uint64

	nowFn func() time.Time
}

// New constructs a governor with the given budget in bytes.
func New(log zerolog.Logger, budgetBytes int64) *Governor {
	return &Governor{
		log:     log,
		budget:  budgetBytes,
		entries: make(map[string]*Entry),
		nowFn:   time.Now,
	}
}

// SetBudget replaces the memory budget. Existing entries are not evicted
// eagerly; the next Admit reconciles against the new budget.
func (g *Governor) SetBudget(budgetBytes int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.budget = budgetBytes
}

// Budget returns the current budget in bytes.
func (g *Governor) Budget() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.budget
}

// UsedBytes returns the total bytes currently resident.
func (g *Governor) UsedBytes() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.usedLocked()
}

func (g *Governor) usedLocked() int64 {
	var used int64
	for _, e := range g.entries {
		used += e.ResidentBytes
	}
	return used
}

// Admit checks the model against the budget before it is loaded, evicting
// least-recently-used entries (ties broken by lowest load count) until it
// fits. If the model cannot fit even with everything else evicted, Admit
// fails with a resource-exhausted error rather than overcommitting.
func (g *Governor) Admit(d types.ModelDescriptor) (*Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e, ok := g.entries[d.ID]; ok {
		// A re-admit must still reconcile against the budget, which may have
		// shrunk since the entry was created.
		if e.ResidentBytes > g.budget {
			admissionsRejected.Inc()
			return nil, ErrResourceExhausted(e.ResidentBytes, g.budget)
		}
		for g.usedLocked() > g.budget {
			victim := g.evictionCandidateLocked(d.ID)
			if victim == nil {
				break
			}
			g.evictLocked(victim)
		}
		e.LastUsed = g.nowFn()
		e.LoadCount++
		residentBytes.Set(float64(g.usedLocked()))
		return &Handle{modelID: d.ID}, nil
	}

	need := d.SizeBytes
	if need > g.budget {
		admissionsRejected.Inc()
		return nil, ErrResourceExhausted(need, g.budget)
	}
	for g.usedLocked()+need > g.budget {
		victim := g.evictionCandidateLocked("")
		if victim == nil {
			admissionsRejected.Inc()
			return nil, ErrResourceExhausted(need, g.budget)
		}
		g.evictLocked(victim)
	}

	g.entries[d.ID] = &Entry{
		ModelID:       d.ID,
		ResidentBytes: need,
		LastUsed:      g.nowFn(),
		LoadCount:     1,
	}
	g.loads++
	loadsTotal.Inc()
	residentBytes.Set(float64(g.usedLocked()))
	g.log.Debug().Str("model", d.ID).Int64("bytes", need).Msg("model admitted")
	return &Handle{modelID: d.ID}, nil
}

// evictionCandidateLocked picks the LRU entry, ties broken by lowest load
// count so rarely used models go first among equally stale ones. excludeID,
// when non-empty, shields that entry from consideration.
func (g *Governor) evictionCandidateLocked(excludeID string) *Entry {
	var victim *Entry
	for _, e := range g.entries {
		if e.ModelID == excludeID {
			continue
		}
		if victim == nil {
			victim = e
			continue
		}
		if e.LastUsed.Before(victim.LastUsed) {
			victim = e
		} else if e.LastUsed.Equal(victim.LastUsed) && e.LoadCount < victim.LoadCount {
			victim = e
		}
	}
	return victim
}

func (g *Governor) evictLocked(e *Entry) {
	delete(g.entries, e.ModelID)
	g.evictions++
	evictionsTotal.Inc()
	residentBytes.Set(float64(g.usedLocked()))
	g.log.Info().Str("model", e.ModelID).Int64("bytes", e.ResidentBytes).Msg("evicted to free memory")
}

// Touch updates last-use bookkeeping for a resident model. Unknown ids are
// ignored.
func (g *Governor) Touch(modelID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.entries[modelID]; ok {
		e.LastUsed = g.nowFn()
		e.LoadCount++
	}
}

// ReleaseAll evicts every entry. Idempotent and safe when nothing is resident.
func (g *Governor) ReleaseAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, e := range g.entries {
		g.evictions++
		evictionsTotal.Inc()
		g.log.Debug().Str("model", e.ModelID).Msg("released")
	}
	g.entries = make(map[string]*Entry)
	residentBytes.Set(0)
}

// Resident returns the current entries sorted by model id.
func (g *Governor) Resident() []Entry {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Entry, 0, len(g.entries))
	for _, e := range g.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModelID < out[j].ModelID })
	return out
}

// Counters returns lifetime eviction and load totals.
func (g *Governor) Counters() (evictions, loads uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.evictions, g.loads
}
