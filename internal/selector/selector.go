// Package selector scores and ranks candidate models against a task request,
// user preferences, and recorded performance history. Scoring is plain
// arithmetic over a bounded history window; there is deliberately no
// statistical model here.
package selector

import (
	"sort"
	"strings"

	"ravend/pkg/types"
)

// Weights controls the relative contribution of each sub-score. They are
// normalized at scoring time, so only ratios matter.
type Weights struct {
	StaticFit  float64
	History    float64
	Preference float64
}

// DefaultWeights returns the documented default weighting.
func DefaultWeights() Weights {
	return Weights{StaticFit: 0.35, History: 0.35, Preference: 0.30}
}

// Config carries the scoring tunables.
type Config struct {
	Weights Weights
	// Most recent records per model considered by the history sub-score.
	HistoryWindow int
	// Neutral prior for models with no recorded history.
	ColdStartScore float64
}

const (
	defaultHistoryWindow  = 50
	defaultColdStartScore = 0.5
)

func (c Config) withDefaults() Config {
	if c.Weights == (Weights{}) {
		c.Weights = DefaultWeights()
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = defaultHistoryWindow
	}
	if c.ColdStartScore <= 0 {
		c.ColdStartScore = defaultColdStartScore
	}
	return c
}

// History is the read side of the performance ledger.
type History interface {
	HistoryFor(modelID string, window int) []types.PerformanceRecord
}

// ScoredModel pairs a candidate with its final score.
type ScoredModel struct {
	Model types.ModelDescriptor
	Score float64
}

// modelStats aggregates one candidate's history window.
type modelStats struct {
	hasHistory  bool
	successRate float64
	avgLatency  float64
	memEff      float64
}

// ScoreAndRank returns the surviving candidates ordered by score descending.
// Ties break toward the smaller artifact, then registration order (the input
// order, preserved by the stable sort). Candidates whose hardware
// requirements are unmet on this host, or whose minimum RAM estimate exceeds
// the host's available memory, are excluded outright; if that excludes
// everything the call fails with a no-compatible-model error carrying the
// unsatisfied constraints.
func ScoreAndRank(candidates []types.ModelDescriptor, req types.TaskRequest, prefs types.Preferences, hw types.HardwareProfile, hist History, cfg Config) ([]ScoredModel, error) {
	cfg = cfg.withDefaults()

	var pool []types.ModelDescriptor
	var missing []types.AcceleratorKind
	for _, m := range candidates {
		if unmet := unmetHardware(m, hw); len(unmet) > 0 {
			missing = appendMissing(missing, unmet)
			continue
		}
		if insufficientMemory(m, hw) {
			continue
		}
		pool = append(pool, m)
	}
	if len(pool) == 0 {
		return nil, ErrNoCompatibleModel(req, missing)
	}

	// History-independent mode: with adaptive selection off, no sub-score may
	// consult the ledger, collapsing selection to static fit + preference
	// alignment over neutral stats.
	stats := make(map[string]modelStats, len(pool))
	if hist != nil && prefs.EnableAdaptiveSelection {
		for _, m := range pool {
			stats[m.ID] = aggregate(hist.HistoryFor(m.ID, cfg.HistoryWindow))
		}
	}
	minLat, maxLat := latencyRange(pool, stats)
	minSize, maxSize := sizeRange(pool)

	w := cfg.Weights
	if !prefs.EnableAdaptiveSelection {
		w.History = 0
	}
	total := w.StaticFit + w.History + w.Preference
	if total <= 0 {
		// Nothing left to normalize by (all weight on the disabled history
		// sub-score). Fall back to the default split.
		w = DefaultWeights()
		if !prefs.EnableAdaptiveSelection {
			w.History = 0
		}
		total = w.StaticFit + w.History + w.Preference
	}

	scored := make([]ScoredModel, 0, len(pool))
	for _, m := range pool {
		st := stats[m.ID]
		s := w.StaticFit * staticFit(m, prefs, hw)
		if w.History > 0 {
			s += w.History * historyScore(st, minLat, maxLat, cfg.ColdStartScore)
		}
		s += w.Preference * preferenceAlignment(m, st, prefs, minLat, maxLat, minSize, maxSize)
		scored = append(scored, ScoredModel{Model: m, Score: s / total})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		const eps = 1e-9
		di := scored[i].Score - scored[j].Score
		if di > eps {
			return true
		}
		if di < -eps {
			return false
		}
		return scored[i].Model.SizeBytes < scored[j].Model.SizeBytes
	})
	return scored, nil
}

// insufficientMemory reports whether the model's estimated minimum RAM
// exceeds the host's available memory. When either figure is unknown (zero)
// no judgment is possible and the candidate stays in.
func insufficientMemory(m types.ModelDescriptor, hw types.HardwareProfile) bool {
	return m.MinimumRAMBytes > 0 && hw.AvailableMemoryBytes > 0 &&
		m.MinimumRAMBytes > hw.AvailableMemoryBytes
}

// unmetHardware returns the required accelerator kinds absent from the host.
func unmetHardware(m types.ModelDescriptor, hw types.HardwareProfile) []types.AcceleratorKind {
	var unmet []types.AcceleratorKind
	for _, kind := range m.RequiredHardware {
		if !hw.Has(kind) {
			unmet = append(unmet, kind)
		}
	}
	return unmet
}

func appendMissing(acc, unmet []types.AcceleratorKind) []types.AcceleratorKind {
	for _, k := range unmet {
		dup := false
		for _, have := range acc {
			if have == k {
				dup = true
				break
			}
		}
		if !dup {
			acc = append(acc, k)
		}
	}
	return acc
}

// staticFit scores how well the model's usable devices line up with the
// user's preferred device order. A model whose usable devices cover every
// preferred entry scores 1.0; partial overlap earns proportional credit.
func staticFit(m types.ModelDescriptor, prefs types.Preferences, hw types.HardwareProfile) float64 {
	usable := map[types.AcceleratorKind]bool{}
	if len(m.RequiredHardware) == 0 {
		usable[types.AcceleratorCPU] = true
	}
	for _, k := range m.RequiredHardware {
		if hw.Has(k) {
			usable[k] = true
		}
	}
	if len(prefs.PreferredDevices) == 0 {
		return 1.0
	}
	matches := 0
	for _, d := range prefs.PreferredDevices {
		if usable[d] {
			matches++
		}
	}
	return float64(matches) / float64(len(prefs.PreferredDevices))
}

func aggregate(records []types.PerformanceRecord) modelStats {
	if len(records) == 0 {
		return modelStats{}
	}
	st := modelStats{hasHistory: true}
	successes := 0
	for _, r := range records {
		if r.Success {
			successes++
		}
		st.avgLatency += r.LatencySeconds
		st.memEff += r.MemoryEfficiency
	}
	n := float64(len(records))
	st.successRate = float64(successes) / n
	st.avgLatency /= n
	st.memEff /= n
	return st
}

// latencyRange computes the candidate pool's average-latency spread for
// normalization; only models with history participate.
func latencyRange(pool []types.ModelDescriptor, stats map[string]modelStats) (minLat, maxLat float64) {
	first := true
	for _, m := range pool {
		st := stats[m.ID]
		if !st.hasHistory {
			continue
		}
		if first || st.avgLatency < minLat {
			minLat = st.avgLatency
		}
		if first || st.avgLatency > maxLat {
			maxLat = st.avgLatency
		}
		first = false
	}
	return minLat, maxLat
}

func sizeRange(pool []types.ModelDescriptor) (minSize, maxSize int64) {
	for i, m := range pool {
		if i == 0 || m.SizeBytes < minSize {
			minSize = m.SizeBytes
		}
		if i == 0 || m.SizeBytes > maxSize {
			maxSize = m.SizeBytes
		}
	}
	return minSize, maxSize
}

// normLatency maps an average latency onto [0,1] against the pool range,
// inverted so that lower latency scores higher.
func normLatency(avg, minLat, maxLat float64) float64 {
	if maxLat <= minLat {
		return 1.0
	}
	return (maxLat - avg) / (maxLat - minLat)
}

// historyScore blends success rate, pool-normalized latency, and memory
// efficiency. A model with no history gets the neutral cold-start prior so
// new models are never permanently disadvantaged.
func historyScore(st modelStats, minLat, maxLat, coldStart float64) float64 {
	if !st.hasHistory {
		return coldStart
	}
	return (st.successRate + normLatency(st.avgLatency, minLat, maxLat) + st.memEff) / 3.0
}

// preferenceAlignment weights latency, size, and memory efficiency by the
// active performance mode, then applies the accuracy-preference adjustment
// for quantized models.
func preferenceAlignment(m types.ModelDescriptor, st modelStats, prefs types.Preferences, minLat, maxLat float64, minSize, maxSize int64) float64 {
	latNorm := 0.5
	memEff := 0.5
	if st.hasHistory {
		latNorm = normLatency(st.avgLatency, minLat, maxLat)
		memEff = st.memEff
	}
	sizeNorm := 1.0
	if maxSize > minSize {
		sizeNorm = float64(maxSize-m.SizeBytes) / float64(maxSize-minSize)
	}

	var s float64
	switch prefs.PerformanceMode {
	case types.ModeSpeed:
		s = 0.6*latNorm + 0.2*sizeNorm + 0.2*memEff
	case types.ModeMemory:
		s = 0.2*latNorm + 0.4*sizeNorm + 0.4*memEff
	default:
		s = (latNorm + sizeNorm + memEff) / 3.0
	}

	if strings.HasPrefix(strings.ToUpper(m.Quantization), "Q4") {
		switch prefs.AccuracyPreference {
		case types.AccuracyHigh:
			s *= 0.8
		case types.AccuracyLow:
			s *= 1.2
		}
	}
	if s > 1.0 {
		s = 1.0
	}
	if s < 0 {
		s = 0
	}
	return s
}
