package diagnostics

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemMetrics holds the host resources relevant to the workout log.
type SystemMetrics struct {
	Hostname   string `json:"hostname,omitempty"`
	Platform   string `json:"platform,omitempty"`
	GOOS       string `json:"goos"`
	GOARCH     string `json:"goarch"`
	GoVersion  string `json:"go_version"`
	CPUModel   string `json:"cpu_model,omitempty"`
	CPUThreads int    `json:"cpu_threads,omitempty"`

	// Memory (in MB)
	MemTotalMB float64 `json:"mem_total_mb"`
	MemUsedMB  float64 `json:"mem_used_mb"`
	MemPercent float64 `json:"mem_percent"`

	// Disk holding the data directory (in GB)
	DiskPath    string  `json:"disk_path"`
	DiskTotalGB float64 `json:"disk_total_gb"`
	DiskFreeGB  float64 `json:"disk_free_gb"`
	DiskPercent float64 `json:"disk_percent"`
}

// probes wraps gopsutil so tests can substitute readings.
type probes struct {
	memory   func() (*mem.VirtualMemoryStat, error)
	disk     func(path string) (*disk.UsageStat, error)
	host     func() (*host.InfoStat, error)
	cpuInfo  func() ([]cpu.InfoStat, error)
	cpuCount func(logical bool) (int, error)
}

func defaultProbes() probes {
	return probes{
		memory:   mem.VirtualMemory,
		disk:     disk.Usage,
		host:     host.Info,
		cpuInfo:  cpu.Info,
		cpuCount: cpu.Counts,
	}
}

// collect reads host metrics. dataPath is the data directory; the nearest
// existing ancestor is measured when it has not been created yet.
func (p probes) collect(dataPath string) SystemMetrics {
	stats := SystemMetrics{
		GOOS:      runtime.GOOS,
		GOARCH:    runtime.GOARCH,
		GoVersion: runtime.Version(),
	}

	if info, err := p.host(); err == nil && info != nil {
		stats.Hostname = info.Hostname
		stats.Platform = strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
	}
	if infos, err := p.cpuInfo(); err == nil && len(infos) > 0 {
		stats.CPUModel = strings.TrimSpace(infos[0].ModelName)
	}
	if n, err := p.cpuCount(true); err == nil {
		stats.CPUThreads = n
	}

	if vm, err := p.memory(); err == nil && vm != nil {
		stats.MemTotalMB = float64(vm.Total) / 1024 / 1024
		stats.MemUsedMB = float64(vm.Used) / 1024 / 1024
		stats.MemPercent = vm.UsedPercent
	}

	stats.DiskPath = existingAncestor(dataPath)
	if usage, err := p.disk(stats.DiskPath); err == nil && usage != nil {
		stats.DiskTotalGB = float64(usage.Total) / 1024 / 1024 / 1024
		stats.DiskFreeGB = float64(usage.Free) / 1024 / 1024 / 1024
		stats.DiskPercent = usage.UsedPercent
	}
	return stats
}

func existingAncestor(path string) string {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	for {
		if _, err := os.Stat(abs); err == nil {
			return abs
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return abs
		}
		abs = parent
	}
}
