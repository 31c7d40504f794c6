// Package store holds the single mutable render configuration of a
// particle field session and tells subscribers when it changes.
//
// Store is the only writer of [config.Render]; everything else reads
// snapshots via Get or asks for a change through a setter, which clamps
// and filters the request before it lands.
//
// A Store is NOT safe for concurrent use. It lives on the frame loop's
// goroutine, like everything else in the field.
package store

import (
	"math"

	"github.com/san-kum/herofield/internal/config"
)

// Listener receives the configuration snapshot after a change.
type Listener func(config.Render)

type subscription struct {
	id int
	fn Listener
}

type Store struct {
	cfg      config.Render
	visible  bool
	revision uint64
	nextID   int
	subs     []subscription
}

// New seeds a store with the derived initial configuration. The page
// starts visible.
func New(initial config.Render) *Store {
	initial.TimeScale = config.ClampTimeScale(initial.TimeScale)
	initial.Pointer = clampPointer(initial.Pointer)
	return &Store{cfg: initial, visible: true}
}

func (s *Store) Get() config.Render { return s.cfg }

// Revision increases by one for every applied change. Dependents compare
// it against the value they last rendered with.
func (s *Store) Revision() uint64 { return s.revision }

func (s *Store) Visible() bool { return s.visible }

func (s *Store) EffectsEnabled() bool { return s.cfg.EffectsEnabled }

// Subscribe registers fn and returns a function that removes it. Calling
// the returned function more than once is harmless.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Subscribers reports how many listeners are registered.
func (s *Store) Subscribers() int { return len(s.subs) }

// SetPointer stores p, clamped to [-1, 1] on both axes. It is silently
// ignored while the page is hidden.
func (s *Store) SetPointer(p config.Pointer) {
	if !s.visible || math.IsNaN(p.X) || math.IsNaN(p.Y) {
		return
	}
	p = clampPointer(p)
	if p == s.cfg.Pointer {
		return
	}
	s.cfg.Pointer = p
	s.commit()
}

// SetTimeScale stores t clamped to [config.MinTimeScale, config.MaxTimeScale].
func (s *Store) SetTimeScale(t float64) {
	t = config.ClampTimeScale(t)
	if t == s.cfg.TimeScale {
		return
	}
	s.cfg.TimeScale = t
	s.commit()
}

// SetEffectsEnabled only ever moves effects from enabled to disabled.
// Requests to enable are ignored.
func (s *Store) SetEffectsEnabled(v bool) {
	if v || !s.cfg.EffectsEnabled {
		return
	}
	s.cfg.EffectsEnabled = false
	s.commit()
}

// SetVisible records page visibility. Hidden pages drop pointer updates.
func (s *Store) SetVisible(v bool) {
	s.visible = v
}

func (s *Store) commit() {
	s.revision++
	snapshot := s.cfg
	// A listener may unsubscribe itself while being notified.
	subs := append([]subscription(nil), s.subs...)
	for _, sub := range subs {
		sub.fn(snapshot)
	}
}

func clampPointer(p config.Pointer) config.Pointer {
	return config.Pointer{
		X: math.Max(-1, math.Min(1, p.X)),
		Y: math.Max(-1, math.Min(1, p.Y)),
	}
}
