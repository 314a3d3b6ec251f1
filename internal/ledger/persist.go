package ledger

import (
	"encoding/json"
	"os"

	"ravend/pkg/types"
)

// Snapshot persistence is best-effort: a missing or corrupt file is ignored
// on load, and save failures are logged but never surfaced to callers.

func (l *Ledger) loadSnapshot() {
	if l.path == "" {
		return
	}
	f, err := os.Open(l.path)
	if err != nil {
		return
	}
	defer f.Close()
	var data []types.PerformanceRecord
	if err := json.NewDecoder(f).Decode(&data); err != nil {
		l.log.Debug().Err(err).Str("path", l.path).Msg("ignoring unreadable ledger snapshot")
		return
	}
	if over := len(data) - l.cap; over > 0 {
		data = data[over:]
	}
	l.records = data
}

// SaveSnapshot writes the current records to the snapshot path, if configured.
func (l *Ledger) SaveSnapshot() {
	if l.path == "" {
		return
	}
	l.mu.Lock()
	snap := make([]types.PerformanceRecord, len(l.records))
	copy(snap, l.records)
	l.mu.Unlock()
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(l.path, b, 0o644); err != nil {
		l.log.Warn().Err(err).Str("path", l.path).Msg("ledger snapshot write failed")
	}
}
