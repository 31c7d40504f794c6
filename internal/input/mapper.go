// Package input turns raw pointer, touch and wheel events into store
// mutations, coalescing moves so the store sees at most one pointer
// update per rendered frame.
package input

import (
	"math"

	"github.com/san-kum/herofield/internal/config"
	"go.uber.org/zap"
)

// WheelStep is the time-scale change applied per wheel event.
const WheelStep = 0.05

// Target is the part of the store the mapper writes to.
type Target interface {
	Get() config.Render
	Visible() bool
	SetPointer(config.Pointer)
	SetTimeScale(float64)
}

// Mapper collects the latest pointer position between frames and flushes
// it once per frame. Not safe for concurrent use.
type Mapper struct {
	target   Target
	viewport Viewport
	log      *zap.Logger

	pending    config.Pointer
	hasPending bool
	dropped    int
}

func NewMapper(target Target, viewport Viewport, log *zap.Logger) *Mapper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mapper{target: target, viewport: viewport, log: log}
}

// Handle consumes one event. Malformed events are dropped.
func (m *Mapper) Handle(ev Event) {
	switch e := ev.(type) {
	case PointerMove:
		m.move(e.Point)
	case *PointerMove:
		if e != nil {
			m.move(e.Point)
		}
	case TouchMove:
		m.touch(e)
	case *TouchMove:
		if e != nil {
			m.touch(*e)
		}
	case Wheel:
		m.wheel(e.DeltaY)
	case *Wheel:
		if e != nil {
			m.wheel(e.DeltaY)
		}
	default:
		m.drop("unknown event")
	}
}

// Flush applies the newest pending position, if any. Call once per frame.
// It reports whether the store was asked to update.
func (m *Mapper) Flush() bool {
	if !m.hasPending {
		return false
	}
	m.hasPending = false
	if !m.target.Visible() {
		return false
	}
	m.target.SetPointer(m.pending)
	return true
}

// Pending reports whether a move is waiting for the next flush.
func (m *Mapper) Pending() bool { return m.hasPending }

// Dropped counts events discarded as malformed.
func (m *Mapper) Dropped() int { return m.dropped }

func (m *Mapper) touch(e TouchMove) {
	if len(e.Touches) == 0 {
		m.drop("touch without points")
		return
	}
	m.move(e.Touches[0])
}

func (m *Mapper) move(p Point) {
	if !m.target.Visible() {
		m.hasPending = false
		return
	}
	if !finite(p.ClientX) || !finite(p.ClientY) {
		m.drop("non-finite coordinates")
		return
	}
	w, h := m.viewport()
	if !(w > 0) || !(h > 0) {
		m.drop("empty viewport")
		return
	}
	m.pending = config.Pointer{
		X: (p.ClientX/w)*2 - 1,
		Y: -((p.ClientY/h)*2 - 1),
	}
	m.hasPending = true
}

func (m *Mapper) wheel(deltaY float64) {
	if !finite(deltaY) {
		m.drop("non-finite wheel delta")
		return
	}
	if deltaY == 0 {
		return
	}
	// Read the live value so rapid scrolling never loses a step.
	current := m.target.Get().TimeScale
	m.target.SetTimeScale(current + sign(deltaY)*-WheelStep)
}

func (m *Mapper) drop(reason string) {
	m.dropped++
	m.log.Debug("input event dropped", zap.String("reason", reason))
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
