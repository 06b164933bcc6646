package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the daemon.
type Metrics struct {
	registry *prometheus.Registry

	// Governor metrics
	TicksTotal         prometheus.Counter
	InterventionsTotal *prometheus.CounterVec
	ReclaimedMBTotal   prometheus.Counter

	// Suspension metrics
	SuspensionsTotal   *prometheus.CounterVec
	ResumesTotal       *prometheus.CounterVec
	TierFallbacksTotal *prometheus.CounterVec
	SuspendedProcesses prometheus.Gauge

	// Sampler metrics
	SamplerFailuresTotal *prometheus.CounterVec
	MemoryPercent        prometheus.Gauge
	CPUPercent           prometheus.Gauge

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(registry)

	m := &Metrics{
		registry:  registry,
		startTime: time.Now(),

		TicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "headroom_governor_ticks_total",
			Help: "Total number of governor ticks",
		}),
		InterventionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "headroom_interventions_total",
				Help: "Total number of intervention events by kind",
			},
			[]string{"kind"},
		),
		ReclaimedMBTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "headroom_reclaimed_mb_total",
			Help: "Estimated memory reclaimed by interventions in MB",
		}),

		SuspensionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "headroom_suspensions_total",
				Help: "Total number of process suspensions by tier",
			},
			[]string{"tier"},
		),
		ResumesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "headroom_resumes_total",
				Help: "Total number of process resumes by tier",
			},
			[]string{"tier"},
		),
		TierFallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "headroom_tier_fallbacks_total",
				Help: "Total number of suspend tier fallbacks",
			},
			[]string{"from", "to"},
		),
		SuspendedProcesses: factory.NewGauge(prometheus.GaugeOpts{
			Name: "headroom_suspended_processes",
			Help: "Number of currently suspended processes",
		}),

		SamplerFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "headroom_sampler_failures_total",
				Help: "Total number of metric query failures by metric",
			},
			[]string{"metric"},
		),
		MemoryPercent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "headroom_memory_percent",
			Help: "Last sampled system memory usage percent",
		}),
		CPUPercent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "headroom_cpu_percent",
			Help: "Last sampled system CPU usage percent",
		}),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "headroom_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "headroom_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		Uptime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "headroom_uptime_seconds",
			Help: "Daemon uptime in seconds",
		}),
	}

	return m
}

// Registry returns the underlying registry for the metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordTick records one governor tick.
func (m *Metrics) RecordTick() {
	m.TicksTotal.Inc()
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// RecordIntervention records one intervention event.
func (m *Metrics) RecordIntervention(kind string, reclaimedMB float64) {
	m.InterventionsTotal.WithLabelValues(kind).Inc()
	m.ReclaimedMBTotal.Add(reclaimedMB)
}

// RecordSuspension records one suspension at the given tier.
func (m *Metrics) RecordSuspension(tier string) {
	m.SuspensionsTotal.WithLabelValues(tier).Inc()
}

// RecordResume records one resume at the given tier.
func (m *Metrics) RecordResume(tier string) {
	m.ResumesTotal.WithLabelValues(tier).Inc()
}

// RecordTierFallback records a fall from one suspend tier to the next.
func (m *Metrics) RecordTierFallback(from, to string) {
	m.TierFallbacksTotal.WithLabelValues(from, to).Inc()
}

// SetSuspendedProcesses sets the suspended process count gauge.
func (m *Metrics) SetSuspendedProcesses(n int) {
	m.SuspendedProcesses.Set(float64(n))
}

// RecordSamplerFailure records one metric query failure.
func (m *Metrics) RecordSamplerFailure(metric string) {
	m.SamplerFailuresTotal.WithLabelValues(metric).Inc()
}

// SetSystemGauges sets the last sampled system gauges.
func (m *Metrics) SetSystemGauges(memPercent, cpuPercent float64) {
	m.MemoryPercent.Set(memPercent)
	m.CPUPercent.Set(cpuPercent)
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
