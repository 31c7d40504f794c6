package render

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/herofield/internal/compute"
	"github.com/san-kum/herofield/internal/config"
	"github.com/san-kum/herofield/internal/profile"
	"github.com/san-kum/herofield/internal/store"
)

var (
	highEnd = profile.Profile{Cores: 8, MemoryGB: 8}
	lowEnd  = profile.Profile{Cores: 4, MemoryGB: 2}
)

type fakeSurface struct {
	dpr        float64
	ratios     []float64
	drawn      int
	composites [][]Pass
	ended      int
	drawErr    error
}

func (f *fakeSurface) DevicePixelRatio() float64 { return f.dpr }
func (f *fakeSurface) Size() (int, int)          { return 640, 480 }
func (f *fakeSurface) BeginFrame(r float64) error {
	f.ratios = append(f.ratios, r)
	return nil
}
func (f *fakeSurface) DrawPoints(p []Point, _ float64) error {
	if f.drawErr != nil {
		return f.drawErr
	}
	f.drawn = len(p)
	return nil
}
func (f *fakeSurface) Composite(passes []Pass, _ float64) error {
	f.composites = append(f.composites, passes)
	return nil
}
func (f *fakeSurface) EndFrame() error { f.ended++; return nil }

type fakeParticles struct {
	side int
	pos  []float32
}

func newParticles(side int) *fakeParticles {
	return &fakeParticles{side: side, pos: make([]float32, side*side*compute.Channels)}
}

func (f *fakeParticles) Read() ([]float32, []float32, error) { return f.pos, f.pos, nil }
func (f *fakeParticles) Side() int                           { return f.side }

func TestCompose(t *testing.T) {
	tests := []struct {
		name    string
		effects bool
		p       profile.Profile
		want    []Pass
	}{
		{"effects on high end", true, highEnd, []Pass{Bloom, ChromaticAberration, DepthOfField}},
		{"effects off high end", false, highEnd, nil},
		{"effects on low end", true, lowEnd, nil},
		{"effects off low end", false, lowEnd, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compose(config.Render{EffectsEnabled: tt.effects}, tt.p)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("pass %d: expected %s, got %s", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestDepthOfFieldAbsentOnLowEndWhenForced(t *testing.T) {
	passes := ComposeForced(lowEnd)
	for _, p := range passes {
		if p == DepthOfField {
			t.Fatal("depth of field must not run on low-end devices")
		}
	}
	if len(passes) != 2 || passes[0] != Bloom || passes[1] != ChromaticAberration {
		t.Errorf("unexpected forced chain %v", passes)
	}
	if got := ComposeForced(highEnd); len(got) != 3 {
		t.Errorf("expected full chain on high end, got %v", got)
	}
}

func TestEffectivePixelRatio(t *testing.T) {
	tests := []struct {
		device, limit, want float64
	}{
		{3, 2, 2},
		{1.5, 2, 1.5},
		{0.5, 2, 1},
		{2, 1.25, 1.25},
		{math.NaN(), 2, 1},
		{2, 0, 1},
	}
	for _, tt := range tests {
		if got := EffectivePixelRatio(tt.device, tt.limit); got != tt.want {
			t.Errorf("ratio(%v, %v): expected %v, got %v", tt.device, tt.limit, tt.want, got)
		}
	}
}

func TestPipelineFrame(t *testing.T) {
	st := store.New(config.Derive(highEnd))
	surf := &fakeSurface{dpr: 3}
	p := NewPipeline(st, highEnd, surf)
	parts := newParticles(16)

	if err := p.Draw(parts, 0.5); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if err := p.PostProcess(0.5); err != nil {
		t.Fatalf("post process: %v", err)
	}
	if surf.ratios[0] != 2 {
		t.Errorf("expected ratio capped at 2, got %v", surf.ratios[0])
	}
	if surf.drawn != 16*16 {
		t.Errorf("expected %d points, got %d", 16*16, surf.drawn)
	}
	if len(surf.composites) != 1 || len(surf.composites[0]) != 3 {
		t.Errorf("expected full chain, got %v", surf.composites)
	}
	if surf.ended != 1 {
		t.Errorf("expected one EndFrame, got %d", surf.ended)
	}
}

func TestPipelineRatioFollowsDisplayChanges(t *testing.T) {
	st := store.New(config.Derive(highEnd))
	surf := &fakeSurface{dpr: 1}
	p := NewPipeline(st, highEnd, surf)
	parts := newParticles(4)

	p.Draw(parts, 0)
	surf.dpr = 1.75
	p.Draw(parts, 0)
	if surf.ratios[0] != 1 || surf.ratios[1] != 1.75 {
		t.Errorf("ratio should be re-read each frame, got %v", surf.ratios)
	}
}

func TestPipelineSkipsChainAfterDegrade(t *testing.T) {
	st := store.New(config.Derive(highEnd))
	surf := &fakeSurface{dpr: 1}
	p := NewPipeline(st, highEnd, surf)
	parts := newParticles(4)

	p.Draw(parts, 0)
	p.PostProcess(0)
	st.SetEffectsEnabled(false)
	p.Draw(parts, 0)
	p.PostProcess(0)

	if len(surf.composites) != 1 {
		t.Errorf("chain should be skipped entirely after degrade, got %d composites", len(surf.composites))
	}
	if surf.ended != 2 {
		t.Errorf("frames should still end, got %d", surf.ended)
	}
	if len(p.Last().Passes) != 0 {
		t.Errorf("expected no passes in last frame, got %v", p.Last().Passes)
	}
}

func TestPipelineSurfacesDrawErrors(t *testing.T) {
	boom := errors.New("context lost")
	st := store.New(config.Derive(highEnd))
	p := NewPipeline(st, highEnd, &fakeSurface{dpr: 1, drawErr: boom})
	if err := p.Draw(newParticles(4), 0); !errors.Is(err, boom) {
		t.Errorf("expected wrapped surface error, got %v", err)
	}
}

func TestLayout(t *testing.T) {
	parts := newParticles(3)
	pts := Layout(nil, parts.pos, 3, config.Pointer{}, 0, 200, 100, 1)
	if len(pts) != 9 {
		t.Fatalf("expected 9 points, got %d", len(pts))
	}
	// Corners land near the viewport corners, y pointing down.
	if pts[0].X > 10 || pts[0].Y < 90 {
		t.Errorf("first particle should be bottom-left, got (%v,%v)", pts[0].X, pts[0].Y)
	}
	if pts[8].X < 190 || pts[8].Y > 10 {
		t.Errorf("last particle should be top-right, got (%v,%v)", pts[8].X, pts[8].Y)
	}

	parts.pos[4*compute.Channels] = 0.5
	moved := Layout(pts, parts.pos, 3, config.Pointer{}, 0, 200, 100, 1)
	if moved[4].X-100 < 45 {
		t.Errorf("simulated offset should move the centre particle right, got %v", moved[4].X)
	}
}

func TestLayoutRejectsShortBuffers(t *testing.T) {
	if pts := Layout(nil, make([]float32, 3), 3, config.Pointer{}, 0, 10, 10, 1); len(pts) != 0 {
		t.Errorf("expected no points, got %d", len(pts))
	}
}

func TestHsvToRgb(t *testing.T) {
	r, g, b := hsvToRgb(0, 1, 1)
	if r != 255 || g != 0 || b != 0 {
		t.Errorf("expected red, got %d %d %d", r, g, b)
	}
	r, g, b = hsvToRgb(-120, 1, 1)
	if r != 0 || g != 0 || b != 255 {
		t.Errorf("expected blue for -120, got %d %d %d", r, g, b)
	}
}
