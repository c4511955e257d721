package commands

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// HostStats is a snapshot of the machine the bot runs on. Fields that could
// not be read stay zero.
type HostStats struct {
	CPUPercent     float64
	MemUsedPercent float64
	ProcessRSS     uint64
	HostUptime     time.Duration
	Goroutines     int
}

func gatherHostStats(ctx context.Context) HostStats {
	stats := HostStats{Goroutines: runtime.NumGoroutine()}

	// interval 0 compares against the previous call
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		stats.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemUsedPercent = vm.UsedPercent
	}
	if up, err := host.UptimeWithContext(ctx); err == nil {
		stats.HostUptime = time.Duration(up) * time.Second
	}
	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil {
			stats.ProcessRSS = mi.RSS
		}
	}
	return stats
}

func (s HostStats) String() string {
	return fmt.Sprintf("CPU `%.1f%%` • Memory `%.1f%%` • RSS `%s` • Goroutines `%d` • Host up `%s`",
		s.CPUPercent, s.MemUsedPercent, formatBytes(s.ProcessRSS), s.Goroutines, s.HostUptime.Truncate(time.Second))
}

func formatBytes(b uint64) string {
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
