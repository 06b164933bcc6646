package sampler

import "gonum.org/v1/gonum/stat"

// Window is a fixed-capacity ring of recent samples used for smoothed
// gauges. Not safe for concurrent use; the Sampler serializes access.
type Window struct {
	values []float64
	next   int
}

// NewWindow creates a window holding up to size samples.
func NewWindow(size int) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{values: make([]float64, 0, size)}
}

// Add appends a sample, evicting the oldest once at capacity.
func (w *Window) Add(v float64) {
	if len(w.values) < cap(w.values) {
		w.values = append(w.values, v)
		return
	}
	w.values[w.next] = v
	w.next = (w.next + 1) % cap(w.values)
}

// Mean returns the arithmetic mean of the held samples, 0 when empty.
func (w *Window) Mean() float64 {
	if len(w.values) == 0 {
		return 0
	}
	return stat.Mean(w.values, nil)
}

// Len returns the number of held samples.
func (w *Window) Len() int {
	return len(w.values)
}
