package registry

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ravend/pkg/types"
)

const defaultContextWindow = 4096

// artifactSuffixes maps recognized file extensions to their declared type.
var artifactSuffixes = map[string]types.ModelType{
	".gguf":        types.ModelTypeGenerative,
	".safetensors": types.ModelTypeGenerative,
	".bin":         types.ModelTypeGenerative,
	".onnx":        types.ModelTypeEmbedding,
}

// Discover scans dir recursively for model artifacts and replaces the
// registry contents with the result. An unreadable directory fails the scan
// with a discovery error; a single bad artifact is logged and skipped. When
// ctx expires mid-scan the records gathered so far are committed and no error
// is returned (partial discovery is an accepted degraded mode).
func (r *Registry) Discover(ctx context.Context, dir string) error {
	base, err := expandHome(dir)
	if err != nil {
		return discoveryError{dir: dir, err: err}
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return discoveryError{dir: dir, err: fmt.Errorf("abs path: %w", err)}
	}
	if _, err := os.ReadDir(abs); err != nil {
		return discoveryError{dir: abs, err: err}
	}

	var found []types.ModelDescriptor
	walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fs.SkipAll
		}
		if err != nil {
			r.log.Warn().Err(err).Str("path", path).Msg("skipping unreadable entry")
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		declared, ok := artifactSuffixes[ext]
		if !ok {
			return nil
		}
		desc, err := buildDescriptor(path, d.Name(), declared)
		if err != nil {
			r.log.Warn().Err(err).Str("path", path).Msg("skipping artifact")
			return nil
		}
		found = append(found, desc)
		return nil
	})
	if walkErr != nil {
		return discoveryError{dir: abs, err: walkErr}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.models = found
	r.byID = make(map[string]int, len(found))
	for i, m := range found {
		r.byID[m.ID] = i
	}
	r.log.Info().Int("models", len(found)).Str("dir", abs).Msg("discovery complete")
	return nil
}

// buildDescriptor derives an immutable descriptor from one artifact file.
func buildDescriptor(path, name string, declared types.ModelType) (types.ModelDescriptor, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return types.ModelDescriptor{}, err
	}
	if fi.Size() <= 0 {
		return types.ModelDescriptor{}, fmt.Errorf("empty artifact")
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	ext := strings.ToLower(filepath.Ext(name))

	d := types.ModelDescriptor{
		ID:            stem,
		Path:          path,
		SizeBytes:     fi.Size(),
		DeclaredType:  declared,
		ContextWindow: contextWindowFromName(stem),
		Quantization:  quantFromName(stem),
	}
	switch ext {
	case ".gguf":
		// GGUF runs on CPU and typically wants ~2x its file size in RAM.
		d.MinimumRAMBytes = fi.Size() * 2
	case ".safetensors", ".bin":
		// Unquantized checkpoints need an accelerator and more headroom.
		d.RequiredHardware = []types.AcceleratorKind{types.AcceleratorCUDA}
		d.SupportsBatching = true
		d.MinimumRAMBytes = fi.Size() * 3
	case ".onnx":
		d.SupportsBatching = true
		d.MinimumRAMBytes = fi.Size() * 2
	}
	return d, nil
}

// quantFromName detects a quantization tag embedded in the filename.
func quantFromName(stem string) string {
	s := strings.ToLower(stem)
	for _, q := range []string{"q4_k_m", "q4_k_s", "q4_0", "q4_1", "q5_0", "q5_1", "q8_0"} {
		if strings.Contains(s, q) {
			return strings.ToUpper(q)
		}
	}
	return ""
}

// contextWindowFromName parses tokens like "8k" or "32k" out of the filename.
func contextWindowFromName(stem string) int {
	for _, part := range strings.FieldsFunc(strings.ToLower(stem), func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	}) {
		if !strings.HasSuffix(part, "k") || len(part) < 2 {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSuffix(part, "k")); err == nil && n > 0 && n <= 1024 {
			return n * 1024
		}
	}
	return defaultContextWindow
}

// expandHome expands a leading '~' to the user's home directory.
func expandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
