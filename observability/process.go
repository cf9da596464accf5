package observability

import (
	"os"

	"github.com/shirou/gopsutil/process"
)

// ProcessStats is a snapshot of the server's own resource usage.
type ProcessStats struct {
	PID        int32   `json:"pid"`
	RSSBytes   uint64  `json:"rssBytes"`
	CPUPercent float64 `json:"cpuPercent"`
}

// SelfStats retrieves memory and CPU usage for the current process.
func SelfStats() (ProcessStats, error) {
	pid := int32(os.Getpid())
	p, err := process.NewProcess(pid)
	if err != nil {
		return ProcessStats{}, err
	}

	memInfo, err := p.MemoryInfo()
	if err != nil {
		return ProcessStats{}, err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return ProcessStats{}, err
	}
	return ProcessStats{PID: pid, RSSBytes: memInfo.RSS, CPUPercent: cpuPercent}, nil
}
