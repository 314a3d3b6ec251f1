// Package manager composes the registry, selector, ledger, and governor into
// the model management façade used by the terminal/CLI layer.
package manager

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ravend/internal/governor"
	"ravend/internal/ledger"
	"ravend/internal/registry"
	"ravend/internal/selector"
	"ravend/pkg/types"
)

// Config encapsulates all tunables for Manager construction.
type Config struct {
	Hardware    types.HardwareProfile
	Preferences types.Preferences
	// Ledger retention cap; 0 uses the ledger default.
	LedgerCap int
	// Optional ledger snapshot path.
	LedgerPath string
	// Scoring configuration; zero values use selector defaults.
	Selector selector.Config
	Logger   zerolog.Logger
}

// Manager owns one session's model management state. It is an explicit
// instance constructed once by the caller's session context, not a process
// singleton. One mutex serializes admission/release and preference swaps;
// scoring runs over a snapshot outside that critical section.
type Manager struct {
	mu    sync.Mutex
	log   zerolog.Logger
	hw    types.HardwareProfile
	prefs types.Preferences

	reg    *registry.Registry
	ledger *ledger.Ledger
	gov    *governor.Governor
	selCfg selector.Config

	discovered bool
	startTime  time.Time
}

// NewWithConfig constructs a Manager and its owned collaborators.
func NewWithConfig(cfg Config) *Manager {
	prefs := cfg.Preferences
	if prefs.PerformanceMode == "" {
		prefs = types.DefaultPreferences()
	}
	m := &Manager{
		log:       cfg.Logger,
		hw:        cfg.Hardware,
		prefs:     prefs,
		reg:       registry.New(cfg.Logger),
		ledger:    ledger.New(cfg.Logger, cfg.LedgerCap, cfg.LedgerPath),
		selCfg:    cfg.Selector,
		startTime: time.Now(),
	}
	m.gov = governor.New(cfg.Logger, budgetBytes(m.hw, prefs))
	return m
}

// Discover scans modelsDir and refreshes the registry.
func (m *Manager) Discover(ctx context.Context, modelsDir string) error {
	if err := m.reg.Discover(ctx, modelsDir); err != nil {
		return err
	}
	m.mu.Lock()
	m.discovered = true
	m.mu.Unlock()
	return nil
}

// Ready reports whether at least one discovery pass has completed.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.discovered
}

// ListModels returns the registered descriptors.
func (m *Manager) ListModels() []types.ModelDescriptor {
	return m.reg.List()
}

// GetModel returns one descriptor by id.
func (m *Manager) GetModel(id string) (types.ModelDescriptor, error) {
	return m.reg.Get(id)
}

// ModelHandle is the bound result of a successful selection: an admitted
// model plus its residency token.
type ModelHandle struct {
	Descriptor types.ModelDescriptor
	Score      float64
	residency  *governor.Handle
}

// SelectModel runs registry filtering, adaptive ranking, and governor
// admission as one atomic operation from the caller's perspective: either a
// fully admitted handle is returned, or a typed failure, with no partial
// state observable. When the top-ranked candidate cannot be admitted the next
// ranked candidate is tried before the resource error surfaces.
func (m *Manager) SelectModel(ctx context.Context, req types.TaskRequest) (*ModelHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Snapshot inputs; scoring is a pure read and runs outside the lock.
	m.mu.Lock()
	prefs := m.prefs
	hw := m.hw
	m.mu.Unlock()

	candidates := m.reg.SelectCandidates(req)
	ranked, err := selector.ScoreAndRank(candidates, req, prefs, hw, m.ledger, m.selCfg)
	if err != nil {
		return nil, err
	}

	var admitErr error
	for _, sm := range ranked {
		h, err := m.gov.Admit(sm.Model)
		if err != nil {
			if governor.IsResourceExhausted(err) {
				if admitErr == nil {
					admitErr = err
				}
				continue
			}
			return nil, err
		}
		m.log.Info().Str("model", sm.Model.ID).Float64("score", sm.Score).Msg("model selected")
		return &ModelHandle{Descriptor: sm.Model, Score: sm.Score, residency: h}, nil
	}
	return nil, admitErr
}

// Touch records a use of a resident model, driving LRU ordering.
func (m *Manager) Touch(modelID string) {
	m.gov.Touch(modelID)
}

// RecordExecutionMetrics appends one execution outcome to the ledger,
// closing the adaptive loop. The model id must be registered.
func (m *Manager) RecordExecutionMetrics(modelID string, metrics types.ExecutionMetrics) error {
	if _, err := m.reg.Get(modelID); err != nil {
		return err
	}
	m.ledger.Record(modelID, metrics)
	return nil
}

// RefreshHardware recaptures the hardware snapshot and recomputes the budget.
// The profile itself is never mutated in place.
func (m *Manager) RefreshHardware(hw types.HardwareProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hw = hw
	m.gov.SetBudget(budgetBytes(hw, m.prefs))
}

// Hardware returns the current snapshot.
func (m *Manager) Hardware() types.HardwareProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hw
}

// CleanupResources evicts every resident model and flushes the ledger
// snapshot. Idempotent; used at session teardown.
func (m *Manager) CleanupResources() {
	m.gov.ReleaseAll()
	m.ledger.SaveSnapshot()
}
