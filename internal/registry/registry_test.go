package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"ravend/pkg/types"
)

// helper: create an artifact file of sizeKB kilobytes
func createArtifact(t *testing.T, dir, name string, sizeKB int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	b := make([]byte, sizeKB*1024)
	if err := os.WriteFile(p, b, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func discoverDir(t *testing.T, dir string) *Registry {
	t.Helper()
	r := New(zerolog.Nop())
	if err := r.Discover(context.Background(), dir); err != nil {
		t.Fatalf("discover: %v", err)
	}
	return r
}

func TestDiscoverRegistersArtifacts(t *testing.T) {
	d := t.TempDir()
	createArtifact(t, d, "tinyllama-q4_k_m.gguf", 4)
	createArtifact(t, d, "coder-7b.safetensors", 8)
	createArtifact(t, d, "embedder.onnx", 2)
	createArtifact(t, d, "pytorch_model.bin", 6)
	createArtifact(t, d, "notes.txt", 1)

	r := discoverDir(t, d)
	if r.Len() != 4 {
		t.Fatalf("expected 4 models, got %d", r.Len())
	}
	m, err := r.Get("tinyllama-q4_k_m")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if m.DeclaredType != types.ModelTypeGenerative {
		t.Fatalf("unexpected type: %s", m.DeclaredType)
	}
	if m.Quantization != "Q4_K_M" {
		t.Fatalf("expected quantization detected, got %q", m.Quantization)
	}
	if len(m.RequiredHardware) != 0 {
		t.Fatalf("gguf must be cpu-only, got %v", m.RequiredHardware)
	}
	if m.MinimumRAMBytes != m.SizeBytes*2 {
		t.Fatalf("unexpected min ram: %d", m.MinimumRAMBytes)
	}

	st, err := r.Get("coder-7b")
	if err != nil {
		t.Fatalf("get safetensors: %v", err)
	}
	if !st.SupportsBatching || len(st.RequiredHardware) != 1 || st.RequiredHardware[0] != types.AcceleratorCUDA {
		t.Fatalf("unexpected safetensors descriptor: %+v", st)
	}

	pt, err := r.Get("pytorch_model")
	if err != nil {
		t.Fatalf("get bin: %v", err)
	}
	if pt.MinimumRAMBytes != pt.SizeBytes*3 || len(pt.RequiredHardware) != 1 {
		t.Fatalf("unexpected bin descriptor: %+v", pt)
	}
}

func TestDiscoverSkipsCorruptArtifact(t *testing.T) {
	d := t.TempDir()
	createArtifact(t, d, "good.gguf", 2)
	createArtifact(t, d, "empty.gguf", 0) // zero bytes, skipped

	r := discoverDir(t, d)
	if r.Len() != 1 {
		t.Fatalf("expected corrupt artifact skipped, got %d models", r.Len())
	}
	if _, err := r.Get("empty"); !IsNotFound(err) {
		t.Fatalf("expected not found for skipped artifact, got %v", err)
	}
}

func TestDiscoverUnreadableDir(t *testing.T) {
	r := New(zerolog.Nop())
	err := r.Discover(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if err == nil || !IsDiscoveryError(err) {
		t.Fatalf("expected discovery error, got %v", err)
	}
}

func TestRediscoveryReplacesRecords(t *testing.T) {
	d := t.TempDir()
	p := createArtifact(t, d, "a.gguf", 2)
	r := discoverDir(t, d)
	if r.Len() != 1 {
		t.Fatalf("expected 1 model")
	}
	if err := os.Remove(p); err != nil {
		t.Fatalf("remove: %v", err)
	}
	createArtifact(t, d, "b.gguf", 2)
	if err := r.Discover(context.Background(), d); err != nil {
		t.Fatalf("rediscover: %v", err)
	}
	if _, err := r.Get("a"); !IsNotFound(err) {
		t.Fatalf("expected a gone after rediscovery, got %v", err)
	}
	if _, err := r.Get("b"); err != nil {
		t.Fatalf("expected b present: %v", err)
	}
}

func TestSelectCandidatesEmptyConstraintsReturnsAll(t *testing.T) {
	d := t.TempDir()
	createArtifact(t, d, "a.gguf", 2)
	createArtifact(t, d, "b.gguf", 3)
	r := discoverDir(t, d)

	out := r.SelectCandidates(types.TaskRequest{})
	if len(out) != 2 {
		t.Fatalf("empty constraints must return every descriptor, got %d", len(out))
	}
}

func TestSelectCandidatesFilters(t *testing.T) {
	d := t.TempDir()
	createArtifact(t, d, "small-q4_0.gguf", 2)
	createArtifact(t, d, "large.safetensors", 10)
	r := discoverDir(t, d)

	small, _ := r.Get("small-q4_0")

	out := r.SelectCandidates(types.TaskRequest{MaxSizeBytes: small.SizeBytes})
	if len(out) != 1 || out[0].ID != "small-q4_0" {
		t.Fatalf("size filter failed: %+v", out)
	}
	out = r.SelectCandidates(types.TaskRequest{RequiresBatching: true})
	if len(out) != 1 || out[0].ID != "large" {
		t.Fatalf("batching filter failed: %+v", out)
	}
	out = r.SelectCandidates(types.TaskRequest{RequiredHardware: []types.AcceleratorKind{types.AcceleratorCUDA}})
	if len(out) != 1 || out[0].ID != "large" {
		t.Fatalf("hardware filter failed: %+v", out)
	}
	// cpu in required hardware imposes no filter; every model can use the cpu host
	out = r.SelectCandidates(types.TaskRequest{RequiredHardware: []types.AcceleratorKind{}})
	if len(out) != 2 {
		t.Fatalf("empty hardware set must not filter, got %d", len(out))
	}
	out = r.SelectCandidates(types.TaskRequest{MaxQuantBits: 4})
	if len(out) != 2 {
		t.Fatalf("quant filter should keep q4 and unquantized, got %d", len(out))
	}
	out = r.SelectCandidates(types.TaskRequest{DeclaredType: types.ModelTypeEmbedding})
	if len(out) != 0 {
		t.Fatalf("expected no embedding models, got %d", len(out))
	}
}

func TestUnregister(t *testing.T) {
	d := t.TempDir()
	createArtifact(t, d, "a.gguf", 1)
	createArtifact(t, d, "b.gguf", 1)
	r := discoverDir(t, d)

	if err := r.Unregister("a"); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if _, err := r.Get("a"); !IsNotFound(err) {
		t.Fatalf("expected a removed")
	}
	if _, err := r.Get("b"); err != nil {
		t.Fatalf("b must survive: %v", err)
	}
	if err := r.Unregister("a"); !IsNotFound(err) {
		t.Fatalf("expected not found on second unregister, got %v", err)
	}
}

func TestQuantBits(t *testing.T) {
	cases := map[string]int{"Q4_K_M": 4, "Q8_0": 8, "Q5_1": 5, "": 0, "fp16": 0}
	for in, want := range cases {
		if got := quantBits(in); got != want {
			t.Fatalf("quantBits(%q)=%d want %d", in, got, want)
		}
	}
}

func TestContextWindowFromName(t *testing.T) {
	if got := contextWindowFromName("llama-8k-q4_0"); got != 8192 {
		t.Fatalf("expected 8192, got %d", got)
	}
	if got := contextWindowFromName("plain-model"); got != defaultContextWindow {
		t.Fatalf("expected default, got %d", got)
	}
}
