// Package render turns simulation state into a frame: it decides the
// pixel ratio, lays out one point per particle and composes the optional
// post-processing chain. Drawing itself goes through a [Surface], which
// the window host implements.
package render

import (
	"fmt"
	"math"

	"github.com/san-kum/herofield/internal/compute"
	"github.com/san-kum/herofield/internal/config"
	"github.com/san-kum/herofield/internal/profile"
)

// Point is one particle in surface pixels.
type Point struct {
	X, Y  float32
	Size  float32
	Color RGBA
}

// Surface is the drawing target. Implementations report backend failures
// as errors; the pipeline passes them up untouched.
type Surface interface {
	// DevicePixelRatio is the display's native ratio, re-read every frame.
	DevicePixelRatio() float64
	Size() (width, height int)
	BeginFrame(pixelRatio float64) error
	DrawPoints(points []Point, elapsed float64) error
	// Composite runs the passes in order over the frame drawn so far.
	Composite(passes []Pass, elapsed float64) error
	EndFrame() error
}

// Source is the read side of the store.
type Source interface {
	Get() config.Render
	Revision() uint64
}

// Particles is the read side of the simulation stage.
type Particles interface {
	Read() (positions, velocities []float32, err error)
	Side() int
}

// Frame summarises what the last Draw did.
type Frame struct {
	PixelRatio float64
	DrawCount  int
	Passes     []Pass
	Elapsed    float64
}

type Pipeline struct {
	src     Source
	profile profile.Profile
	surface Surface

	forced   bool
	revision uint64
	derived  bool
	passes   []Pass
	points   []Point
	last     Frame
}

func NewPipeline(src Source, p profile.Profile, surface Surface) *Pipeline {
	return &Pipeline{src: src, profile: p, surface: surface}
}

// EffectivePixelRatio clamps the device ratio to [1, limit].
func EffectivePixelRatio(device, limit float64) float64 {
	if math.IsNaN(device) || device < config.MinPixelDensity {
		device = config.MinPixelDensity
	}
	if limit < config.MinPixelDensity {
		limit = config.MinPixelDensity
	}
	return math.Min(device, limit)
}

// Draw renders the base particle pass.
func (p *Pipeline) Draw(particles Particles, elapsed float64) error {
	cfg := p.src.Get()
	p.refresh(cfg)

	ratio := EffectivePixelRatio(p.surface.DevicePixelRatio(), cfg.PixelDensityCap)
	if err := p.surface.BeginFrame(ratio); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}

	positions, _, err := particles.Read()
	if err != nil {
		return fmt.Errorf("read particles: %w", err)
	}
	side := particles.Side()
	w, h := p.surface.Size()
	p.points = Layout(p.points[:0], positions, side, cfg.Pointer, elapsed, w, h, ratio)

	if err := p.surface.DrawPoints(p.points, elapsed); err != nil {
		return fmt.Errorf("draw points: %w", err)
	}
	p.last = Frame{PixelRatio: ratio, DrawCount: len(p.points), Elapsed: elapsed}
	return nil
}

// PostProcess composites the effect chain and ends the frame. The chain
// is skipped entirely when it is empty.
func (p *Pipeline) PostProcess(elapsed float64) error {
	if len(p.passes) > 0 {
		if err := p.surface.Composite(p.passes, elapsed); err != nil {
			return fmt.Errorf("composite: %w", err)
		}
	}
	p.last.Passes = p.passes
	return p.surface.EndFrame()
}

// Force switches between the regular chain and [ComposeForced].
func (p *Pipeline) Force(v bool) {
	if p.forced != v {
		p.forced = v
		p.derived = false
	}
}

// Last reports the previous frame.
func (p *Pipeline) Last() Frame { return p.last }

// refresh re-derives store-dependent state once per store revision, on
// the frame after the change rather than inside the setter.
func (p *Pipeline) refresh(cfg config.Render) {
	rev := p.src.Revision()
	if p.derived && rev == p.revision {
		return
	}
	if p.forced {
		p.passes = ComposeForced(p.profile)
	} else {
		p.passes = Compose(cfg, p.profile)
	}
	p.revision = rev
	p.derived = true
}

// Layout places every particle on the surface. A particle sits at its
// grid UV spread over the viewport, offset by its simulated position, a
// slow time-based sway and pointer parallax. dst is reused when large
// enough.
func Layout(dst []Point, positions []float32, side int, pointer config.Pointer, elapsed float64, width, height int, ratio float64) []Point {
	if side < 2 || len(positions) < side*side*compute.Channels {
		return dst[:0]
	}
	n := side * side
	if cap(dst) < n {
		dst = make([]Point, 0, n)
	}
	dst = dst[:0]

	w, h := float64(width), float64(height)
	d := float64(side - 1)
	size := float32(ratio)
	for i := 0; i < n; i++ {
		x, y := i%side, i/side
		u, v := float64(x)/d, float64(y)/d
		o := i * compute.Channels

		depth := 0.5 + 0.5*math.Sin(float64(i)*12.9898)
		nx := u*2 - 1 + float64(positions[o]) + 0.015*math.Sin(elapsed*0.4+v*2*math.Pi) + pointer.X*0.04*depth
		ny := v*2 - 1 + float64(positions[o+1]) + 0.015*math.Cos(elapsed*0.3+u*2*math.Pi) + pointer.Y*0.04*depth

		r, g, b := hsvToRgb(elapsed*12+u*90+v*60, 0.55, 0.6+0.4*depth)
		dst = append(dst, Point{
			X:     float32((nx + 1) * 0.5 * w),
			Y:     float32((1 - ny) * 0.5 * h),
			Size:  size,
			Color: RGBA{R: r, G: g, B: b, A: uint8(90 + 120*depth)},
		})
	}
	return dst
}
