package diagnostics

import (
	"context"
	"fmt"
	"time"

	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
)

// Status of a single check.
type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

func (s Status) rank() int {
	switch s {
	case StatusFail:
		return 2
	case StatusWarn:
		return 1
	default:
		return 0
	}
}

// Check is one line of the doctor report.
type Check struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail"`
}

// Report is the doctor output.
type Report struct {
	Timestamp time.Time     `json:"timestamp"`
	Backend   string        `json:"backend"`
	System    SystemMetrics `json:"system"`
	Checks    []Check       `json:"checks"`
	Status    Status        `json:"status"`
}

// Pinger is a store that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SnapshotLoader reads the persisted collection.
type SnapshotLoader interface {
	Load(ctx context.Context) ([]*core.Workout, error)
}

// Thresholds above which resource checks warn.
const (
	DiskWarnPercent   = 95.0
	MemoryWarnPercent = 95.0
)

// Doctor runs the checks.
type Doctor struct {
	probes probes
	now    func() time.Time
}

// NewDoctor creates a doctor reading real host metrics.
func NewDoctor() *Doctor {
	return &Doctor{probes: defaultProbes(), now: time.Now}
}

// Run collects host metrics for dataPath, pings the store and loads the snapshot.
func (d *Doctor) Run(ctx context.Context, backend, dataPath string, store Pinger, snapshots SnapshotLoader) Report {
	r := Report{
		Timestamp: d.now().UTC(),
		Backend:   backend,
		System:    d.probes.collect(dataPath),
	}

	r.add(diskCheck(r.System))
	r.add(memoryCheck(r.System))
	r.add(storeCheck(ctx, store))
	r.add(snapshotCheck(ctx, snapshots))

	r.Status = StatusOK
	for _, c := range r.Checks {
		if c.Status.rank() > r.Status.rank() {
			r.Status = c.Status
		}
	}
	return r
}

func (r *Report) add(c Check) {
	r.Checks = append(r.Checks, c)
}

func diskCheck(s SystemMetrics) Check {
	c := Check{Name: "disk", Status: StatusOK}
	switch {
	case s.DiskTotalGB == 0:
		c.Status = StatusWarn
		c.Detail = fmt.Sprintf("could not read disk usage for %s", s.DiskPath)
	case s.DiskPercent >= DiskWarnPercent:
		c.Status = StatusWarn
		c.Detail = fmt.Sprintf("%s is %.1f%% full", s.DiskPath, s.DiskPercent)
	default:
		c.Detail = fmt.Sprintf("%.1f GB free on %s", s.DiskFreeGB, s.DiskPath)
	}
	return c
}

func memoryCheck(s SystemMetrics) Check {
	c := Check{Name: "memory", Status: StatusOK}
	switch {
	case s.MemTotalMB == 0:
		c.Status = StatusWarn
		c.Detail = "could not read memory usage"
	case s.MemPercent >= MemoryWarnPercent:
		c.Status = StatusWarn
		c.Detail = fmt.Sprintf("%.1f%% of memory in use", s.MemPercent)
	default:
		c.Detail = fmt.Sprintf("%.0f of %.0f MB in use", s.MemUsedMB, s.MemTotalMB)
	}
	return c
}

func storeCheck(ctx context.Context, store Pinger) Check {
	c := Check{Name: "store"}
	start := time.Now()
	if err := store.Ping(ctx); err != nil {
		c.Status = StatusFail
		c.Detail = err.Error()
		return c
	}
	c.Status = StatusOK
	c.Detail = fmt.Sprintf("reachable in %s", time.Since(start).Round(time.Microsecond))
	return c
}

func snapshotCheck(ctx context.Context, snapshots SnapshotLoader) Check {
	c := Check{Name: "snapshot"}
	ws, err := snapshots.Load(ctx)
	switch {
	case core.IsCorruptData(err):
		c.Status = StatusWarn
		c.Detail = fmt.Sprintf("snapshot is corrupt and will be discarded on start: %v", err)
	case err != nil:
		c.Status = StatusFail
		c.Detail = err.Error()
	default:
		c.Status = StatusOK
		c.Detail = fmt.Sprintf("%d workouts", len(ws))
	}
	return c
}
