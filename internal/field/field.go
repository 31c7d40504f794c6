// Package field mounts the adaptive particle field into a host and runs
// its frame loop.
//
// Every frame runs the same fixed sequence:
//
//  1. flush the coalesced pointer update
//  2. record the frame time with the governor
//  3. step the simulation
//  4. draw the particles
//  5. composite post-processing, when enabled
//
// A Field is NOT safe for concurrent use. The host calls Handle, Tick and
// SetVisible from the goroutine that owns the drawing surface.
package field

import (
	"io"
	"time"

	"github.com/san-kum/herofield/internal/compute"
	"github.com/san-kum/herofield/internal/config"
	"github.com/san-kum/herofield/internal/governor"
	"github.com/san-kum/herofield/internal/input"
	"github.com/san-kum/herofield/internal/metrics"
	"github.com/san-kum/herofield/internal/profile"
	"github.com/san-kum/herofield/internal/render"
	"github.com/san-kum/herofield/internal/sim"
	"github.com/san-kum/herofield/internal/store"
	"go.uber.org/zap"
)

type Options struct {
	Profile  profile.Profile
	Settings *config.Settings
	Backend  compute.Backend
	Kernel   compute.Kernel
	// Surface is owned by the field once mounted; if it implements
	// io.Closer it is closed on Unmount.
	Surface render.Surface
	// Viewport defaults to the surface size.
	Viewport input.Viewport
	Metrics  *metrics.Collectors
	Logger   *zap.Logger
	// ForceEffects keeps the post chain on regardless of the governor.
	ForceEffects bool
}

type Field struct {
	profile  profile.Profile
	store    *store.Store
	mapper   *input.Mapper
	governor *governor.Governor
	stage    *sim.Stage
	pipeline *render.Pipeline
	backend  compute.Backend
	surface  render.Surface
	log      *zap.Logger

	unsubscribe []func()
	last        time.Time
	frames      uint64
	mounted     bool
}

// Mount derives the initial configuration from the profile, wires every
// component and allocates the simulation. Backend failures are returned
// so the host can leave the background out.
func Mount(opts Options) (*Field, error) {
	if opts.Surface == nil {
		return nil, ErrNoSurface
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	settings := opts.Settings
	if settings == nil {
		settings = config.DefaultSettings()
	}
	backend := opts.Backend
	if backend == nil {
		backend = compute.NewCPUBackend()
	}
	viewport := opts.Viewport
	if viewport == nil {
		surface := opts.Surface
		viewport = func() (float64, float64) {
			w, h := surface.Size()
			return float64(w), float64(h)
		}
	}

	initial := config.Derive(opts.Profile)
	st := store.New(initial)

	f := &Field{
		profile:  opts.Profile,
		store:    st,
		mapper:   input.NewMapper(st, viewport, log.Named("input")),
		governor: governor.New(settings.Governor.Window, log.Named("governor")),
		stage:    sim.NewStage(st, backend, opts.Kernel, log.Named("sim")),
		pipeline: render.NewPipeline(st, opts.Profile, opts.Surface),
		backend:  backend,
		surface:  opts.Surface,
		log:      log,
	}
	f.pipeline.Force(opts.ForceEffects)
	f.governor.OnWindow(governor.DegradePolicy(st, settings.Governor.FrameBudget, log.Named("governor")))

	if m := opts.Metrics; m != nil {
		m.Seed(initial)
		f.governor.OnFrame(m.ObserveFrame)
		f.governor.OnWindow(m.ObserveWindow)
		f.unsubscribe = append(f.unsubscribe, st.Subscribe(m.ObserveConfig))
	}

	if err := f.stage.Prepare(); err != nil {
		f.release()
		return nil, err
	}
	f.mounted = true

	log.Info("particle field mounted",
		zap.Stringer("profile", opts.Profile),
		zap.Int("grid_side", initial.GridSide),
		zap.Float64("pixel_density_cap", initial.PixelDensityCap),
		zap.Bool("effects", initial.EffectsEnabled),
		zap.Float64("time_scale", initial.TimeScale),
		zap.String("backend", backend.Name()),
		zap.String("kernel", f.stage.Kernel()))
	return f, nil
}

// Handle queues an input event. Events after Unmount are dropped.
func (f *Field) Handle(ev input.Event) {
	if !f.mounted {
		return
	}
	f.mapper.Handle(ev)
}

// SetVisible suspends or resumes pointer updates. On resume the governor
// forgets the gap so the pause is not mistaken for one slow frame.
func (f *Field) SetVisible(v bool) {
	if !f.mounted || f.store.Visible() == v {
		return
	}
	f.store.SetVisible(v)
	if v {
		f.governor.Reset()
		f.last = time.Time{}
	}
	f.log.Debug("visibility changed", zap.Bool("visible", v))
}

// Tick runs one frame at wall-clock time now.
func (f *Field) Tick(now time.Time) error {
	if !f.mounted {
		return ErrUnmounted
	}
	f.frames++

	f.mapper.Flush()
	f.governor.Tick(now)

	var delta time.Duration
	if !f.last.IsZero() {
		delta = now.Sub(f.last)
	}
	f.last = now

	if err := f.stage.Step(delta); err != nil {
		return &StageError{Frame: f.frames, Stage: "simulate", Wrapped: err}
	}
	elapsed := f.stage.Elapsed()
	if err := f.pipeline.Draw(f.stage, elapsed); err != nil {
		return &StageError{Frame: f.frames, Stage: "render", Wrapped: err}
	}
	if err := f.pipeline.PostProcess(elapsed); err != nil {
		return &StageError{Frame: f.frames, Stage: "post-process", Wrapped: err}
	}
	return nil
}

// Unmount releases the simulation, backend, store subscriptions and, when
// it is closable, the surface. It is safe to call more than once.
func (f *Field) Unmount() error {
	if !f.mounted {
		return nil
	}
	f.mounted = false
	err := f.release()
	f.log.Info("particle field unmounted", zap.Uint64("frames", f.frames))
	return err
}

func (f *Field) release() error {
	for _, unsubscribe := range f.unsubscribe {
		unsubscribe()
	}
	f.unsubscribe = nil
	f.stage.Release()
	f.backend.Cleanup()
	if c, ok := f.surface.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Store exposes the configuration store, e.g. for a host's debug overlay.
func (f *Field) Store() *store.Store { return f.store }

func (f *Field) Profile() profile.Profile     { return f.profile }
func (f *Field) Frames() uint64               { return f.frames }
func (f *Field) Mounted() bool                { return f.mounted }
func (f *Field) LastFrame() render.Frame      { return f.pipeline.Last() }
func (f *Field) Governor() *governor.Governor { return f.governor }
func (f *Field) Stage() *sim.Stage            { return f.stage }
