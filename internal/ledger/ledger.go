// Package ledger keeps the append-only record of per-model execution
// outcomes that drives adaptive selection.
package ledger

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ravend/pkg/types"
)

const defaultCap = 1000

// Ledger is an append-only store of PerformanceRecords with FIFO retention.
// Records are never mutated or deleted individually; when the total count
// exceeds the cap the oldest are pruned first, preserving the recency bias
// the selector's scoring window depends on.
type Ledger struct {
	mu      sync.Mutex
	log     zerolog.Logger
	cap     int
	records []types.PerformanceRecord
	path    string

	nowFn func() time.Time
}

// New constructs a ledger with the given retention cap (<=0 uses the default).
// path, when non-empty, enables best-effort JSON snapshot persistence.
func New(log zerolog.Logger, capacity int, path string) *Ledger {
	if capacity <= 0 {
		capacity = defaultCap
	}
	l := &Ledger{
		log:   log,
		cap:   capacity,
		path:  path,
		nowFn: time.Now,
	}
	l.loadSnapshot()
	return l
}

// Record appends one performance record. It never fails on valid input;
// durability is the concern of the snapshot layer, not this call.
func (l *Ledger) Record(modelID string, m types.ExecutionMetrics) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, types.PerformanceRecord{
		ModelID:          modelID,
		Timestamp:        l.nowFn(),
		ExecutionMetrics: m,
	})
	if over := len(l.records) - l.cap; over > 0 {
		l.records = append([]types.PerformanceRecord(nil), l.records[over:]...)
	}
}

// HistoryFor returns up to window records for modelID, most recent first.
// The returned slice is a copy: finite, restartable, safe to re-iterate.
func (l *Ledger) HistoryFor(modelID string, window int) []types.PerformanceRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	if window <= 0 {
		return nil
	}
	out := make([]types.PerformanceRecord, 0, window)
	for i := len(l.records) - 1; i >= 0 && len(out) < window; i-- {
		if l.records[i].ModelID == modelID {
			out = append(out, l.records[i])
		}
	}
	return out
}

// Len returns the total number of records held.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
