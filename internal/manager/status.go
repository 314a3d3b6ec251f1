package manager

import (
	"time"

	"ravend/pkg/types"
)

// Status builds the read-only composite view for /status: hardware snapshot,
// resident cache summary, and active preferences.
func (m *Manager) Status() types.StatusResponse {
	m.mu.Lock()
	hw := m.hw
	prefs := m.prefs
	start := m.startTime
	m.mu.Unlock()

	evictions, loads := m.gov.Counters()
	resident := m.gov.Resident()
	entries := make([]types.ResidentEntry, 0, len(resident))
	for _, e := range resident {
		entries = append(entries, types.ResidentEntry{
			ModelID:       e.ModelID,
			ResidentBytes: e.ResidentBytes,
			LastUsedUnix:  e.LastUsed.Unix(),
			LoadCount:     e.LoadCount,
		})
	}

	now := time.Now()
	return types.StatusResponse{
		Hardware:       hw,
		ModelCount:     m.reg.Len(),
		Resident:       entries,
		UsedBytes:      m.gov.UsedBytes(),
		BudgetBytes:    m.gov.Budget(),
		Preferences:    prefs,
		LedgerRecords:  m.ledger.Len(),
		EvictionsTotal: evictions,
		LoadsTotal:     loads,
		UptimeSeconds:  int64(now.Sub(start).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
}
