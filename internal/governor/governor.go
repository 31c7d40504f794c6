// Package governor watches frame timing and, on sustained overrun,
// degrades the field's effect configuration.
//
// Timing is batched into non-overlapping windows of N frames; the mean of
// each full window is handed to the registered callbacks. This keeps the
// per-frame cost O(1) and callback frequency at one per N frames.
package governor

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// WindowFunc receives the mean frame duration of a completed window.
type WindowFunc func(meanMS float64) error

// FrameFunc receives every individual frame duration.
type FrameFunc func(ms float64)

// Governor is driven once per frame from the frame loop. It never panics
// or returns an error out of Tick: callback faults are logged and the
// loop goes on. Not safe for concurrent use.
type Governor struct {
	window   *Window
	onWindow []WindowFunc
	onFrame  []FrameFunc
	log      *zap.Logger

	last    time.Time
	primed  bool
	windows int
	faults  int
}

func New(size int, log *zap.Logger) *Governor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Governor{window: NewWindow(size), log: log}
}

// OnWindow registers a callback for completed windows.
func (g *Governor) OnWindow(fn WindowFunc) { g.onWindow = append(g.onWindow, fn) }

// OnFrame registers a per-frame observer, used for telemetry.
func (g *Governor) OnFrame(fn FrameFunc) { g.onFrame = append(g.onFrame, fn) }

// Tick records the time elapsed since the previous Tick. The first call
// only sets the reference point.
func (g *Governor) Tick(now time.Time) {
	if !g.primed {
		g.last, g.primed = now, true
		return
	}
	elapsed := now.Sub(g.last)
	g.last = now
	if elapsed < 0 {
		return
	}
	g.Record(float64(elapsed) / float64(time.Millisecond))
}

// Record feeds one frame duration directly.
func (g *Governor) Record(ms float64) {
	for _, fn := range g.onFrame {
		g.guard("frame", func() error { fn(ms); return nil })
	}
	mean, full := g.window.Add(ms)
	if !full {
		return
	}
	g.windows++
	for _, fn := range g.onWindow {
		g.guard("window", func() error { return fn(mean) })
	}
}

// Reset forgets the reference time and any partial window, e.g. after the
// page was hidden and frames stopped.
func (g *Governor) Reset() {
	g.primed = false
	g.window.Reset()
}

// Windows counts completed windows.
func (g *Governor) Windows() int { return g.windows }

// Faults counts callbacks that failed or panicked.
func (g *Governor) Faults() int { return g.faults }

func (g *Governor) guard(kind string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			g.faults++
			g.log.Error("governor callback panicked",
				zap.String("callback", kind),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	if err := fn(); err != nil {
		g.faults++
		g.log.Warn("governor callback failed", zap.String("callback", kind), zap.Error(err))
	}
}
