package hardware

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ravend/pkg/types"
)

func TestCaptureNeverFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := Capture(ctx, zerolog.Nop())
	if p.CPUCores <= 0 {
		t.Fatalf("expected positive core count, got %d", p.CPUCores)
	}
	if p.AvailableMemoryBytes < 0 {
		t.Fatalf("available memory must be >= 0, got %d", p.AvailableMemoryBytes)
	}
	if p.CapturedAt.IsZero() {
		t.Fatalf("expected capture timestamp")
	}
}

func TestCaptureWithExpiredContextReturnsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := Capture(ctx, zerolog.Nop())
	// Partial result, not a failure: core count always resolves locally.
	if p.CPUCores <= 0 {
		t.Fatalf("expected core count even with canceled context, got %d", p.CPUCores)
	}
	if len(p.Accelerators) != 0 {
		t.Fatalf("expected accelerator probe skipped on canceled context")
	}
}

func TestParseNvidiaSMI(t *testing.T) {
	out := "NVIDIA GeForce RTX 4090, 24564\nNVIDIA T4, 15360\n"
	devs := parseNvidiaSMI(out)
	if len(devs) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devs))
	}
	if devs[0].Kind != types.AcceleratorCUDA || devs[0].Name != "NVIDIA GeForce RTX 4090" {
		t.Fatalf("unexpected device: %+v", devs[0])
	}
	if devs[0].MemoryBytes != 24564*1024*1024 {
		t.Fatalf("unexpected memory: %d", devs[0].MemoryBytes)
	}
}

func TestParseNvidiaSMIGarbage(t *testing.T) {
	if devs := parseNvidiaSMI("not a csv line\n\n"); len(devs) != 0 {
		t.Fatalf("expected no devices from garbage, got %d", len(devs))
	}
}

func TestProfileHas(t *testing.T) {
	p := types.HardwareProfile{Accelerators: []types.AcceleratorDevice{{Kind: types.AcceleratorCUDA}}}
	if !p.Has(types.AcceleratorCPU) {
		t.Fatalf("cpu must always be present")
	}
	if !p.Has(types.AcceleratorCUDA) {
		t.Fatalf("expected cuda present")
	}
	if p.Has(types.AcceleratorROCm) {
		t.Fatalf("did not expect rocm")
	}
}
