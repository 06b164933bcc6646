// Package sampler wraps the platform statistics queries behind independent
// last-known-good caches so the control loop never stalls on a transient
// query failure.
package sampler

import (
	"sync"

	"go.uber.org/zap"

	"github.com/headroom-sh/headroom/internal/infrastructure/monitoring"
	"github.com/headroom-sh/headroom/internal/logging"
)

// First-call defaults, returned before any query has succeeded.
const (
	DefaultMemoryPercent = 50.0
	DefaultCPUPercent    = 0.0
)

// Sampler caches the last successful value per metric. The three caches
// are independent: a failing process enumeration does not invalidate the
// cached memory reading.
type Sampler struct {
	querier SystemQuerier
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu        sync.Mutex
	lastMem   MemoryStat
	lastCPU   float64
	lastProcs []ProcessDescriptor
	memWindow *Window
	cpuWindow *Window
}

// New creates a sampler over the given querier.
func New(querier SystemQuerier, windowSize int, logger *logging.Logger, metrics *monitoring.Metrics) *Sampler {
	return &Sampler{
		querier:   querier,
		logger:    logger,
		metrics:   metrics,
		lastMem:   MemoryStat{Percent: DefaultMemoryPercent},
		lastCPU:   DefaultCPUPercent,
		lastProcs: []ProcessDescriptor{},
		memWindow: NewWindow(windowSize),
		cpuWindow: NewWindow(windowSize),
	}
}

// Memory returns current memory usage, or the last successful reading on
// query failure.
func (s *Sampler) Memory() MemoryStat {
	stat, err := s.querier.Memory()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Warn("memory query failed, using cached value",
			zap.Error(err),
			zap.Float64("cached_percent", s.lastMem.Percent),
		)
		s.metrics.RecordSamplerFailure("memory")
		return s.lastMem
	}
	s.lastMem = stat
	s.memWindow.Add(stat.Percent)
	s.metrics.SetSystemGauges(s.lastMem.Percent, s.lastCPU)
	return stat
}

// CPU returns current CPU utilization percent, or the last successful
// reading on query failure.
func (s *Sampler) CPU() float64 {
	pct, err := s.querier.CPUPercent()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Warn("cpu query failed, using cached value",
			zap.Error(err),
			zap.Float64("cached_percent", s.lastCPU),
		)
		s.metrics.RecordSamplerFailure("cpu")
		return s.lastCPU
	}
	s.lastCPU = pct
	s.cpuWindow.Add(pct)
	s.metrics.SetSystemGauges(s.lastMem.Percent, s.lastCPU)
	return pct
}

// Processes returns the current ranked process list, or the last
// successful list on query failure.
func (s *Sampler) Processes() []ProcessDescriptor {
	procs, err := s.querier.Processes()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Warn("process enumeration failed, using cached list",
			zap.Error(err),
			zap.Int("cached_count", len(s.lastProcs)),
		)
		s.metrics.RecordSamplerFailure("processes")
		return s.lastProcs
	}
	s.lastProcs = procs
	return procs
}

// MemoryMean returns the windowed mean of recent memory percent samples.
func (s *Sampler) MemoryMean() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memWindow.Len() == 0 {
		return DefaultMemoryPercent
	}
	return s.memWindow.Mean()
}

// CPUMean returns the windowed mean of recent CPU percent samples.
func (s *Sampler) CPUMean() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cpuWindow.Mean()
}
