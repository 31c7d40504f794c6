package metrics

import (
	"math"
	"sort"
)

// FrameStats accumulates frame durations in milliseconds for a run
// summary. Unlike the governor window it keeps every sample.
type FrameStats struct {
	samples []float64
	sum     float64
	max     float64
	over    int
	budget  float64
}

func NewFrameStats(budgetMS float64) *FrameStats {
	return &FrameStats{budget: budgetMS}
}

func (f *FrameStats) Observe(ms float64) {
	f.samples = append(f.samples, ms)
	f.sum += ms
	if ms > f.max {
		f.max = ms
	}
	if f.budget > 0 && ms > f.budget {
		f.over++
	}
}

// Value is the mean frame duration.
func (f *FrameStats) Value() float64 {
	if len(f.samples) == 0 {
		return 0
	}
	return f.sum / float64(len(f.samples))
}

func (f *FrameStats) Count() int   { return len(f.samples) }
func (f *FrameStats) Max() float64 { return f.max }

// OverBudget counts frames slower than the budget.
func (f *FrameStats) OverBudget() int { return f.over }

// FPS is the frame rate implied by the mean duration.
func (f *FrameStats) FPS() float64 {
	mean := f.Value()
	if mean <= 0 {
		return 0
	}
	return 1000 / mean
}

// Percentile returns the p-th percentile (0-100) by nearest rank.
func (f *FrameStats) Percentile(p float64) float64 {
	if len(f.samples) == 0 {
		return 0
	}
	sorted := append([]float64(nil), f.samples...)
	sort.Float64s(sorted)
	rank := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

func (f *FrameStats) Samples() []float64 {
	return append([]float64(nil), f.samples...)
}

func (f *FrameStats) Reset() {
	f.samples = f.samples[:0]
	f.sum = 0
	f.max = 0
	f.over = 0
}
