package hardware

import (
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"ravend/pkg/types"
)

// detectAccelerators probes for GPUs via nvidia-smi. A missing binary or a
// failed query yields an empty inventory, never an error.
func detectAccelerators(ctx context.Context, log zerolog.Logger) []types.AcceleratorDevice {
	out, err := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu=name,memory.total",
		"--format=csv,noheader,nounits").Output()
	if err != nil {
		log.Debug().Err(err).Msg("nvidia-smi probe failed, reporting no accelerators")
		return nil
	}
	return parseNvidiaSMI(string(out))
}

// parseNvidiaSMI parses "name, memory_mib" CSV lines from nvidia-smi.
func parseNvidiaSMI(out string) []types.AcceleratorDevice {
	var devs []types.AcceleratorDevice
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		idx := strings.LastIndex(line, ",")
		if idx < 0 {
			continue
		}
		name := strings.TrimSpace(line[:idx])
		mib, err := strconv.ParseInt(strings.TrimSpace(line[idx+1:]), 10, 64)
		if err != nil || mib < 0 {
			continue
		}
		devs = append(devs, types.AcceleratorDevice{
			Kind:        types.AcceleratorCUDA,
			Name:        name,
			MemoryBytes: mib * 1024 * 1024,
		})
	}
	return devs
}
