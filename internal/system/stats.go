package system

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a point-in-time resource snapshot of the host and this process
type Stats struct {
	CPUs          int
	CPUPercent    float64
	MemTotal      uint64
	MemUsed       uint64
	MemPercent    float64
	ProcessRSS    uint64
	ProcessCPU    float64
	NumGoroutines int
}

// CollectStats samples host and process usage. Fields that cannot be read
// stay zero; only a failure to read anything at all is an error.
func CollectStats(ctx context.Context) (Stats, error) {
	s := Stats{CPUs: runtime.NumCPU(), NumGoroutines: runtime.NumGoroutine()}
	var failures int

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.MemTotal = vm.Total
		s.MemUsed = vm.Used
		s.MemPercent = vm.UsedPercent
	} else {
		failures++
	}

	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		s.CPUPercent = pct[0]
	} else {
		failures++
	}

	if proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if mi, err := proc.MemoryInfoWithContext(ctx); err == nil {
			s.ProcessRSS = mi.RSS
		}
		if pct, err := proc.CPUPercentWithContext(ctx); err == nil {
			s.ProcessCPU = pct
		}
	} else {
		failures++
	}

	if failures == 3 {
		return s, fmt.Errorf("no resource statistics available")
	}
	return s, nil
}

// Report renders a performance report in the style of the benchmark log
func Report(build string, s Stats, frames int, render, encode, total time.Duration) string {
	fps := 0.0
	if total > 0 {
		fps = float64(frames) / total.Seconds()
	}
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Frames: %d\n"+
			"Total Time: %.2fs\n"+
			"Rendering (CPU): %.2fs\n"+
			"Encoding: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"CPU: %d cores, %.1f%% host, %.1f%% process\n"+
			"Memory: %s / %s (%.1f%%), RSS %s\n"+
			"----------------------------\n",
		build, frames, total.Seconds(), render.Seconds(), encode.Seconds(), fps,
		s.CPUs, s.CPUPercent, s.ProcessCPU,
		humanBytes(s.MemUsed), humanBytes(s.MemTotal), s.MemPercent, humanBytes(s.ProcessRSS),
	)
}

func humanBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
