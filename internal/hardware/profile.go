// Package hardware captures best-effort snapshots of host compute capability.
// Detection is never fatal: anything that cannot be probed is simply absent
// from the snapshot, so model selection always has something to work with.
package hardware

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"ravend/pkg/types"
)

// Capture returns a fresh hardware snapshot. Partial detection failure (for
// example an unsupported accelerator query) degrades to an empty field rather
// than an error. The caller bounds the whole capture via ctx; on timeout the
// partial result gathered so far is returned.
func Capture(ctx context.Context, log zerolog.Logger) types.HardwareProfile {
	p := types.HardwareProfile{CapturedAt: time.Now()}

	cores, err := cpu.CountsWithContext(ctx, false)
	if err != nil || cores <= 0 {
		// Logical count as fallback; NumCPU never fails.
		cores = runtime.NumCPU()
		log.Debug().Err(err).Int("cores", cores).Msg("physical core count unavailable, using logical")
	}
	p.CPUCores = cores

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		p.AvailableMemoryBytes = int64(vm.Available)
	} else {
		log.Warn().Err(err).Msg("memory detection failed")
	}
	if p.AvailableMemoryBytes < 0 {
		p.AvailableMemoryBytes = 0
	}

	if ctx.Err() != nil {
		return p
	}
	p.Accelerators = detectAccelerators(ctx, log)
	return p
}
