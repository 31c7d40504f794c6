// Package experiment runs the particle field headless on a virtual clock.
//
// Each frame advances the clock by a synthetic cost drawn from a named
// [Workload], so the governor sees exactly the frame times the workload
// describes regardless of how fast the host actually is.
package experiment

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/san-kum/herofield/internal/compute"
	"github.com/san-kum/herofield/internal/config"
	"github.com/san-kum/herofield/internal/field"
	"github.com/san-kum/herofield/internal/input"
	"github.com/san-kum/herofield/internal/metrics"
	"github.com/san-kum/herofield/internal/profile"
	"github.com/san-kum/herofield/internal/storage"
	"go.uber.org/zap"
)

type Config struct {
	Frames   int
	Workload string
	// Cost, when set, replaces the named workload.
	Cost     Workload
	Seed     int64
	Profile  profile.Profile
	Settings *config.Settings
	Backend  compute.Backend
	Kernel   compute.Kernel
	Metrics  *metrics.Collectors
	Logger   *zap.Logger
}

// Sample is one simulated frame.
type Sample struct {
	Frame     int
	MS        float64
	Effects   bool
	TimeScale float64
}

type Result struct {
	Samples    []Sample
	Stats      *metrics.FrameStats
	DegradedAt int
	Windows    int
}

type Experiment struct {
	cfg      Config
	settings *config.Settings
	workload Workload
	rand     *rand.Rand
	field    *field.Field
	surface  *Surface

	clock      time.Time
	frame      int
	stats      *metrics.FrameStats
	samples    []Sample
	degradedAt int
}

func New(cfg Config) (*Experiment, error) {
	workload := cfg.Cost
	if workload == nil {
		if cfg.Workload == "" {
			cfg.Workload = "steady"
		}
		var err error
		if workload, err = NewRegistry().Get(cfg.Workload); err != nil {
			return nil, err
		}
	} else if cfg.Workload == "" {
		cfg.Workload = "custom"
	}
	settings := cfg.Settings
	if settings == nil {
		settings = config.DefaultSettings()
	}
	return &Experiment{
		cfg:      cfg,
		settings: settings,
		workload: workload,
		rand:     rand.New(rand.NewSource(cfg.Seed)),
		stats:    metrics.NewFrameStats(float64(settings.Governor.FrameBudget) / float64(time.Millisecond)),
	}, nil
}

// Setup mounts the field on a headless surface and primes the clock.
func (e *Experiment) Setup() error {
	if e.field != nil {
		return fmt.Errorf("experiment already set up")
	}
	e.surface = NewSurface(e.settings.Width, e.settings.Height, 1)
	f, err := field.Mount(field.Options{
		Profile:  e.cfg.Profile,
		Settings: e.settings,
		Backend:  e.cfg.Backend,
		Kernel:   e.cfg.Kernel,
		Surface:  e.surface,
		Metrics:  e.cfg.Metrics,
		Logger:   e.cfg.Logger,
	})
	if err != nil {
		return err
	}
	e.field = f
	e.clock = time.Unix(0, 0)
	return f.Tick(e.clock)
}

// Step advances one frame.
func (e *Experiment) Step() (Sample, error) {
	if e.field == nil {
		return Sample{}, fmt.Errorf("experiment not setup")
	}
	before := e.field.Store().EffectsEnabled()

	e.frame++
	cost := e.workload(e.frame, e.rand)
	e.clock = e.clock.Add(cost)
	if err := e.field.Tick(e.clock); err != nil {
		return Sample{}, err
	}

	cfg := e.field.Store().Get()
	if before && !cfg.EffectsEnabled {
		e.degradedAt = e.frame
	}
	s := Sample{
		Frame:     e.frame,
		MS:        float64(cost) / float64(time.Millisecond),
		Effects:   cfg.EffectsEnabled,
		TimeScale: cfg.TimeScale,
	}
	e.stats.Observe(s.MS)
	e.samples = append(e.samples, s)
	return s, nil
}

// Run steps the configured number of frames, calling observe after each.
func (e *Experiment) Run(ctx context.Context, observe func(Sample)) (*Result, error) {
	if e.field == nil {
		if err := e.Setup(); err != nil {
			return nil, err
		}
	}
	for e.frame < e.cfg.Frames {
		if err := ctx.Err(); err != nil {
			return e.Result(), err
		}
		s, err := e.Step()
		if err != nil {
			return e.Result(), err
		}
		if observe != nil {
			observe(s)
		}
	}
	return e.Result(), nil
}

// Handle forwards an input event to the field.
func (e *Experiment) Handle(ev input.Event) {
	if e.field != nil {
		e.field.Handle(ev)
	}
}

func (e *Experiment) Result() *Result {
	r := &Result{Samples: e.samples, Stats: e.stats, DegradedAt: e.degradedAt}
	if e.field != nil {
		r.Windows = e.field.Governor().Windows()
	}
	return r
}

// Report converts the run so far into a storable report.
func (e *Experiment) Report() (storage.Report, []storage.Frame) {
	r := storage.Report{
		Profile:     e.cfg.Profile.String(),
		LowEnd:      e.cfg.Profile.LowEnd(),
		Frames:      e.frame,
		BudgetMS:    float64(e.settings.Governor.FrameBudget) / float64(time.Millisecond),
		Window:      e.settings.Governor.Window,
		DegradedAt:  e.degradedAt,
		FrameCostMS: e.stats.Value(),
		Stats: map[string]float64{
			"mean_ms": e.stats.Value(),
			"p50_ms":  e.stats.Percentile(50),
			"p95_ms":  e.stats.Percentile(95),
			"max_ms":  e.stats.Max(),
			"fps":     e.stats.FPS(),
			"over":    float64(e.stats.OverBudget()),
		},
	}
	if e.field != nil {
		cfg := e.field.Store().Get()
		r.Backend = e.field.Stage().Backend()
		r.Kernel = e.field.Stage().Kernel()
		r.GridSide = cfg.GridSide
		r.Effects = cfg.EffectsEnabled
		r.TimeScale = cfg.TimeScale
		r.Windows = e.field.Governor().Windows()
	}

	frames := make([]storage.Frame, len(e.samples))
	for i, s := range e.samples {
		frames[i] = storage.Frame{Index: s.Frame, MS: s.MS, Effects: s.Effects}
	}
	return r, frames
}

func (e *Experiment) Field() *field.Field { return e.field }
func (e *Experiment) Surface() *Surface   { return e.surface }
func (e *Experiment) Frame() int          { return e.frame }
func (e *Experiment) Frames() int         { return e.cfg.Frames }
func (e *Experiment) Workload() string    { return e.cfg.Workload }

// Close unmounts the field.
func (e *Experiment) Close() error {
	if e.field == nil {
		return nil
	}
	return e.field.Unmount()
}
