package types

import "time"

// ModelType classifies what a model artifact is for.
type ModelType string

const (
	ModelTypeGenerative ModelType = "generative-text"
	ModelTypeEmbedding  ModelType = "embedding"
)

// AcceleratorKind identifies a class of compute device.
type AcceleratorKind string

const (
	AcceleratorCPU  AcceleratorKind = "cpu"
	AcceleratorCUDA AcceleratorKind = "cuda"
	AcceleratorROCm AcceleratorKind = "rocm"
	AcceleratorNPU  AcceleratorKind = "npu"
)

// AcceleratorDevice describes one detected accelerator.
type AcceleratorDevice struct {
	// Device kind (cuda, rocm, npu).
	// example: cuda
	Kind AcceleratorKind `json:"kind" example:"cuda"`
	// Human-readable device name.
	// example: NVIDIA GeForce RTX 4090
	Name string `json:"name,omitempty" example:"NVIDIA GeForce RTX 4090"`
	// Total device memory in bytes.
	// example: 25769803776
	MemoryBytes int64 `json:"memory_bytes" example:"25769803776"`
}

// HardwareProfile is an immutable snapshot of host capability.
// It is recomputed on demand, never mutated in place.
type HardwareProfile struct {
	// Physical CPU core count.
	// example: 8
	CPUCores int `json:"cpu_cores" example:"8"`
	// Memory available to this process in bytes.
	// example: 17179869184
	AvailableMemoryBytes int64 `json:"available_memory_bytes" example:"17179869184"`
	// Detected accelerator inventory; empty when detection fails or none exist.
	Accelerators []AcceleratorDevice `json:"accelerators,omitempty"`
	// Snapshot time.
	CapturedAt time.Time `json:"captured_at"`
}

// Has reports whether the snapshot contains an accelerator of the given kind.
// The CPU is always present.
func (h HardwareProfile) Has(kind AcceleratorKind) bool {
	if kind == AcceleratorCPU {
		return true
	}
	for _, a := range h.Accelerators {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// ModelDescriptor is the immutable metadata record for one discovered artifact.
// Re-discovery replaces the record wholesale; attributes are never patched.
type ModelDescriptor struct {
	// Stable identifier (artifact filename stem).
	// example: tinyllama-1.1b-q4_k_m
	ID string `json:"id" example:"tinyllama-1.1b-q4_k_m"`
	// Absolute path to the artifact on disk.
	Path string `json:"path"`
	// Artifact size in bytes.
	// example: 668926816
	SizeBytes int64 `json:"size_bytes" example:"668926816"`
	// Declared model type.
	// example: generative-text
	DeclaredType ModelType `json:"declared_type" example:"generative-text"`
	// Accelerator kinds the model requires; empty means CPU-only.
	RequiredHardware []AcceleratorKind `json:"required_hardware,omitempty"`
	// Whether the model supports batched execution.
	SupportsBatching bool `json:"supports_batching"`
	// Context window in tokens.
	// example: 4096
	ContextWindow int `json:"context_window" example:"4096"`
	// Quantization variant detected from the filename, if any.
	// example: Q4_K_M
	Quantization string `json:"quantization,omitempty" example:"Q4_K_M"`
	// Estimated minimum RAM to run the model, in bytes.
	MinimumRAMBytes int64 `json:"minimum_ram_bytes"`
}

// TaskRequest carries the constraints one inference call places on model
// selection. Zero-valued fields impose no filter.
type TaskRequest struct {
	// Required model type.
	// example: generative-text
	DeclaredType ModelType `json:"declared_type,omitempty" example:"generative-text"`
	// Upper bound on artifact size in bytes (0 = unbounded).
	// example: 4000000000
	MaxSizeBytes int64 `json:"max_size_bytes,omitempty" example:"4000000000"`
	// Only accept models that support batching.
	RequiresBatching bool `json:"requires_batching,omitempty"`
	// Accelerator kinds the task requires the model to use.
	RequiredHardware []AcceleratorKind `json:"required_hardware,omitempty"`
	// Maximum acceptable quantization level in bits (0 = any).
	// example: 8
	MaxQuantBits int `json:"max_quant_bits,omitempty" example:"8"`
}

// ExecutionMetrics reports the outcome of one completed inference call.
type ExecutionMetrics struct {
	// Wall-clock latency in seconds.
	// example: 1.42
	LatencySeconds float64 `json:"latency_seconds" example:"1.42"`
	// Tokens per second.
	// example: 34.5
	Throughput float64 `json:"throughput" example:"34.5"`
	// Memory efficiency in [0,1].
	// example: 0.8
	MemoryEfficiency float64 `json:"memory_efficiency" example:"0.8"`
	// Whether the call completed successfully.
	Success bool `json:"success"`
}

// PerformanceRecord is one append-only ledger entry. ModelID is a non-owning
// back-reference to a ModelDescriptor.
type PerformanceRecord struct {
	ModelID   string    `json:"model_id"`
	Timestamp time.Time `json:"timestamp"`
	ExecutionMetrics
}

// PerformanceMode selects what the adaptive scorer optimizes for.
type PerformanceMode string

const (
	ModeSpeed    PerformanceMode = "speed"
	ModeMemory   PerformanceMode = "memory"
	ModeBalanced PerformanceMode = "balanced"
)

// AccuracyPreference biases selection for or against heavy quantization.
type AccuracyPreference string

const (
	AccuracyHigh   AccuracyPreference = "high"
	AccuracyMedium AccuracyPreference = "medium"
	AccuracyLow    AccuracyPreference = "low"
)

// Preferences is the single active per-session preference set. It is replaced
// atomically through the manager's update operation, never mutated in place.
type Preferences struct {
	// example: balanced
	PerformanceMode PerformanceMode `json:"performance_mode" yaml:"performance_mode" toml:"performance_mode" example:"balanced"`
	// example: medium
	AccuracyPreference AccuracyPreference `json:"accuracy_preference" yaml:"accuracy_preference" toml:"accuracy_preference" example:"medium"`
	// Fraction of available memory models may occupy, in (0,1].
	// example: 0.7
	MaxMemoryFraction float64 `json:"max_memory_fraction" yaml:"max_memory_fraction" toml:"max_memory_fraction" example:"0.7"`
	// Device kinds in priority order, first preferred.
	PreferredDevices []AcceleratorKind `json:"preferred_devices" yaml:"preferred_devices" toml:"preferred_devices"`
	// Whether historical performance influences scoring.
	EnableAdaptiveSelection bool `json:"enable_adaptive_selection" yaml:"enable_adaptive_selection" toml:"enable_adaptive_selection"`
}

// DefaultPreferences returns the session defaults used when no configuration
// overrides them.
func DefaultPreferences() Preferences {
	return Preferences{
		PerformanceMode:         ModeBalanced,
		AccuracyPreference:      AccuracyMedium,
		MaxMemoryFraction:       0.7,
		PreferredDevices:        []AcceleratorKind{AcceleratorCPU},
		EnableAdaptiveSelection: true,
	}
}
