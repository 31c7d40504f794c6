package governor

// Window is a fixed-size, non-overlapping batch of frame durations in
// milliseconds. It empties itself each time it fills.
type Window struct {
	samples []float64
	n       int
	sum     float64
}

func NewWindow(size int) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{samples: make([]float64, size)}
}

// Add records one sample. When the window fills it returns the mean and
// true, and starts over.
func (w *Window) Add(ms float64) (mean float64, full bool) {
	w.samples[w.n] = ms
	w.n++
	w.sum += ms
	if w.n < len(w.samples) {
		return 0, false
	}
	mean = w.sum / float64(w.n)
	w.Reset()
	return mean, true
}

func (w *Window) Reset() {
	w.n = 0
	w.sum = 0
}

func (w *Window) Len() int  { return w.n }
func (w *Window) Size() int { return len(w.samples) }

// Samples returns the durations recorded since the last reset.
func (w *Window) Samples() []float64 {
	out := make([]float64, w.n)
	copy(out, w.samples[:w.n])
	return out
}
