package manager

import (
	"ravend/pkg/types"
)

// validatePreferences checks every field before a preference swap. The first
// violation wins; nothing is applied on failure.
func validatePreferences(p types.Preferences) error {
	switch p.PerformanceMode {
	case types.ModeSpeed, types.ModeMemory, types.ModeBalanced:
	default:
		return ErrInvalidPreference("performance_mode", "must be one of speed, memory, balanced")
	}
	switch p.AccuracyPreference {
	case types.AccuracyHigh, types.AccuracyMedium, types.AccuracyLow:
	default:
		return ErrInvalidPreference("accuracy_preference", "must be one of high, medium, low")
	}
	if p.MaxMemoryFraction <= 0 || p.MaxMemoryFraction > 1 {
		return ErrInvalidPreference("max_memory_fraction", "must be in (0,1]")
	}
	for _, d := range p.PreferredDevices {
		switch d {
		case types.AcceleratorCPU, types.AcceleratorCUDA, types.AcceleratorROCm, types.AcceleratorNPU:
		default:
			return ErrInvalidPreference("preferred_devices", "unknown device kind: "+string(d))
		}
	}
	return nil
}

// UpdatePreferences validates p and atomically replaces the active
// preferences, recomputing the memory budget. On failure the prior
// preferences remain active and queryable.
func (m *Manager) UpdatePreferences(p types.Preferences) error {
	if err := validatePreferences(p); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs = p
	m.gov.SetBudget(budgetBytes(m.hw, p))
	m.log.Info().
		Str("performance_mode", string(p.PerformanceMode)).
		Float64("max_memory_fraction", p.MaxMemoryFraction).
		Msg("preferences updated")
	return nil
}

// Preferences returns a copy of the active preferences.
func (m *Manager) Preferences() types.Preferences {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.prefs
	p.PreferredDevices = append([]types.AcceleratorKind(nil), m.prefs.PreferredDevices...)
	return p
}

func budgetBytes(hw types.HardwareProfile, p types.Preferences) int64 {
	return int64(float64(hw.AvailableMemoryBytes) * p.MaxMemoryFraction)
}
