package observability

import (
	"os"

	"github.com/shirou/gopsutil/process"
)

// ProcessStats is a point-in-time view of the relay process.
type ProcessStats struct {
	PID        int32   `json:"pid"`
	RSSMb      uint64  `json:"rss_mb"`
	CPUPercent float64 `json:"cpu_percent"`
	Threads    int32   `json:"threads"`
}

// SampleProcess reads the resource usage of the current process.
func SampleProcess() (ProcessStats, error) {
	pid := int32(os.Getpid())
	p, err := process.NewProcess(pid)
	if err != nil {
		return ProcessStats{}, err
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return ProcessStats{}, err
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		return ProcessStats{}, err
	}
	threads, err := p.NumThreads()
	if err != nil {
		threads = 0
	}
	return ProcessStats{
		PID:        pid,
		RSSMb:      mem.RSS / 1024 / 1024,
		CPUPercent: cpu,
		Threads:    threads,
	}, nil
}
