// Package metrics exposes prometheus collectors for the workout log.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

type Manager struct {
	// counters
	CounterMutations    *prometheus.CounterVec
	CounterSaves        *prometheus.CounterVec
	CounterLoadFailures prometheus.Counter
	CounterRequests     *prometheus.CounterVec

	// gauges
	GaugeWorkouts prometheus.Gauge
	GaugePending  prometheus.Gauge

	// histograms
	HistSaveDuration    prometheus.Histogram
	HistRequestDuration prometheus.Histogram
}

// NewRegistry returns a registry with the go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewTestManager() *Manager {
	return NewManager("pinlog", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("pinlog", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterMutations := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "mutations_total",
		Help:      "Workout mutations by operation and result",
	}, []string{"op", "result"})
	counterSaves := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "snapshot_saves_total",
		Help:      "Snapshot writes by result",
	}, []string{"result"})
	counterLoadFailures := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "snapshot_load_failures_total",
		Help:      "Snapshots discarded on load because they failed validation",
	})
	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "requests_total",
		Help:      "HTTP requests by method and status",
	}, []string{"method", "status"})

	gaugeWorkouts := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workouts",
		Help:      "Number of workouts in the collection",
	})
	gaugePending := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "pending_interaction",
		Help:      "1 while a create or edit interaction awaits submission",
	})

	histSaveDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "snapshot_save_duration_seconds",
		Help:      "Duration of snapshot writes in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
	histRequestDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	})

	return &Manager{
		CounterMutations:    counterMutations,
		CounterSaves:        counterSaves,
		CounterLoadFailures: counterLoadFailures,
		CounterRequests:     counterRequests,
		GaugeWorkouts:       gaugeWorkouts,
		GaugePending:        gaugePending,
		HistSaveDuration:    histSaveDuration,
		HistRequestDuration: histRequestDuration,
	}
}

// Mutation counts one controller mutation.
func (m *Manager) Mutation(op string, err error) {
	if m == nil {
		return
	}
	m.CounterMutations.WithLabelValues(op, result(err)).Inc()
}

// Save records one snapshot write.
func (m *Manager) Save(seconds float64, err error) {
	if m == nil {
		return
	}
	m.CounterSaves.WithLabelValues(result(err)).Inc()
	m.HistSaveDuration.Observe(seconds)
}

// LoadFailure counts a discarded snapshot.
func (m *Manager) LoadFailure() {
	if m == nil {
		return
	}
	m.CounterLoadFailures.Inc()
}

// SetWorkouts sets the collection size gauge.
func (m *Manager) SetWorkouts(n int) {
	if m == nil {
		return
	}
	m.GaugeWorkouts.Set(float64(n))
}

// SetPending sets the pending interaction gauge.
func (m *Manager) SetPending(pending bool) {
	if m == nil {
		return
	}
	if pending {
		m.GaugePending.Set(1)
	} else {
		m.GaugePending.Set(0)
	}
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
