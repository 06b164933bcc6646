package sampler

// ProcessDescriptor is a snapshot of one OS process at sample time.
// Descriptors are recreated every tick and never persisted: a PID can be
// reused after process death, so identity only holds within one sample.
type ProcessDescriptor struct {
	PID        int32   `json:"pid"`
	Name       string  `json:"name"`
	CPUPercent float64 `json:"cpu_percent"`
	MemoryMB   float64 `json:"memory_mb"`
}

// MemoryStat is a snapshot of system memory usage.
type MemoryStat struct {
	UsedGB  float64 `json:"used_gb"`
	TotalGB float64 `json:"total_gb"`
	Percent float64 `json:"percent"`
}

// SystemQuerier abstracts the raw OS statistics queries. Each call is
// independently fallible.
type SystemQuerier interface {
	Memory() (MemoryStat, error)
	CPUPercent() (float64, error)
	Processes() ([]ProcessDescriptor, error)
}
