package sampler

import (
	"fmt"
	"sort"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

const bytesPerGB = 1024 * 1024 * 1024

// GopsutilQuerier queries system statistics via gopsutil.
type GopsutilQuerier struct {
	// MemoryFloorMB drops processes below this resident size.
	MemoryFloorMB float64
}

// NewGopsutilQuerier creates a querier with the given process memory floor.
func NewGopsutilQuerier(memoryFloorMB float64) *GopsutilQuerier {
	return &GopsutilQuerier{MemoryFloorMB: memoryFloorMB}
}

// Memory returns current system memory usage.
func (q *GopsutilQuerier) Memory() (MemoryStat, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return MemoryStat{}, fmt.Errorf("virtual memory query: %w", err)
	}
	return MemoryStat{
		UsedGB:  float64(vm.Used) / bytesPerGB,
		TotalGB: float64(vm.Total) / bytesPerGB,
		Percent: vm.UsedPercent,
	}, nil
}

// CPUPercent returns aggregate CPU utilization since the previous call.
func (q *GopsutilQuerier) CPUPercent() (float64, error) {
	// Interval 0 measures against the last invocation instead of blocking.
	percents, err := cpu.Percent(0, false)
	if err != nil {
		return 0, fmt.Errorf("cpu query: %w", err)
	}
	if len(percents) == 0 {
		return 0, fmt.Errorf("cpu query: empty result")
	}
	return percents[0], nil
}

// Processes returns descriptors for processes above the memory floor,
// sorted descending by memory. Per-process query failures skip that
// process rather than failing the whole enumeration.
func (q *GopsutilQuerier) Processes() ([]ProcessDescriptor, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("process enumeration: %w", err)
	}

	descriptors := make([]ProcessDescriptor, 0, len(procs))
	for _, p := range procs {
		memInfo, err := p.MemoryInfo()
		if err != nil || memInfo == nil {
			continue
		}
		memMB := float64(memInfo.RSS) / (1024 * 1024)
		if memMB < q.MemoryFloorMB {
			continue
		}
		name, err := p.Name()
		if err != nil {
			continue
		}
		cpuPct, err := p.CPUPercent()
		if err != nil {
			cpuPct = 0
		}
		descriptors = append(descriptors, ProcessDescriptor{
			PID:        p.Pid,
			Name:       name,
			CPUPercent: cpuPct,
			MemoryMB:   memMB,
		})
	}

	sort.SliceStable(descriptors, func(i, j int) bool {
		return descriptors[i].MemoryMB > descriptors[j].MemoryMB
	})
	return descriptors, nil
}
