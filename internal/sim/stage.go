// Package sim advances the particle field once per frame.
//
// A [Stage] owns one compute simulation sized from the store's grid side.
// It scales wall-clock frame time by the store's time scale and, should
// the grid side ever change, releases the old simulation and allocates a
// new one rather than resizing in place.
package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/herofield/internal/compute"
	"github.com/san-kum/herofield/internal/config"
	"go.uber.org/zap"
)

// MaxFrameDelta caps a single step so a stalled or hidden page does not
// produce one enormous jump on resume.
const MaxFrameDelta = 100 * time.Millisecond

// Source is the read side of the store.
type Source interface {
	Get() config.Render
}

type Stage struct {
	src     Source
	backend compute.Backend
	kernel  compute.Kernel
	log     *zap.Logger

	sim      compute.Simulation
	elapsed  float64
	steps    int
	reallocs int
}

func NewStage(src Source, backend compute.Backend, kernel compute.Kernel, log *zap.Logger) *Stage {
	if kernel == nil {
		kernel = compute.Identity{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Stage{src: src, backend: backend, kernel: kernel, log: log}
}

// Prepare allocates the simulation for the current grid side. Step calls
// it implicitly; hosts call it at mount to surface backend failures early.
func (s *Stage) Prepare() error {
	return s.ensure(s.src.Get().GridSide)
}

// Step advances the field by frameDelta of wall-clock time.
func (s *Stage) Step(frameDelta time.Duration) error {
	cfg := s.src.Get()
	if err := s.ensure(cfg.GridSide); err != nil {
		return err
	}
	if frameDelta < 0 {
		frameDelta = 0
	}
	if frameDelta > MaxFrameDelta {
		frameDelta = MaxFrameDelta
	}
	dt := frameDelta.Seconds() * cfg.TimeScale
	s.elapsed += dt

	err := s.sim.Step(compute.Uniforms{
		Dt:       float32(dt),
		Time:     float32(s.elapsed),
		PointerX: float32(cfg.Pointer.X),
		PointerY: float32(cfg.Pointer.Y),
	})
	if err != nil {
		return fmt.Errorf("simulation step: %w", err)
	}
	s.steps++
	return nil
}

// Read exposes the current particle state for rendering.
func (s *Stage) Read() (positions, velocities []float32, err error) {
	if s.sim == nil {
		return nil, nil, compute.ErrReleased
	}
	return s.sim.Read()
}

// Side is the grid side of the live simulation, 0 before Prepare.
func (s *Stage) Side() int {
	if s.sim == nil {
		return 0
	}
	return s.sim.Side()
}

// Elapsed is the scaled simulation time in seconds.
func (s *Stage) Elapsed() float64 { return s.elapsed }

func (s *Stage) Steps() int      { return s.steps }
func (s *Stage) Reallocs() int   { return s.reallocs }
func (s *Stage) Kernel() string  { return s.kernel.Name() }
func (s *Stage) Backend() string { return s.backend.Name() }

// Release frees the simulation. The stage can be prepared again.
func (s *Stage) Release() {
	if s.sim != nil {
		s.sim.Release()
		s.sim = nil
	}
}

func (s *Stage) ensure(side int) error {
	if s.sim != nil && s.sim.Side() == side {
		return nil
	}
	if s.sim != nil {
		s.log.Info("grid side changed, reallocating simulation",
			zap.Int("from", s.sim.Side()), zap.Int("to", side))
		s.sim.Release()
		s.sim = nil
		s.reallocs++
	}
	simulation, err := s.backend.NewSimulation(side, s.kernel)
	if err != nil {
		return fmt.Errorf("allocate %dx%d simulation on %s: %w", side, side, s.backend.Name(), err)
	}
	s.sim = simulation
	return nil
}
