package experiment

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/san-kum/herofield/internal/input"
	"github.com/san-kum/herofield/internal/profile"
	"github.com/san-kum/herofield/internal/render"
)

var highEnd = profile.Profile{Cores: 8, MemoryGB: 8}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	want := []string{"overload", "ramp", "spiky", "steady"}
	got := reg.List()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %s at %d, got %s", want[i], i, got[i])
		}
	}
	if _, err := reg.Get("nope"); err == nil {
		t.Error("expected error for unknown workload")
	}
}

func TestWorkloadsStayInRange(t *testing.T) {
	reg := NewRegistry()
	r := rand.New(rand.NewSource(1))
	for _, name := range reg.List() {
		w, _ := reg.Get(name)
		for n := 1; n <= 500; n++ {
			d := w(n, r)
			if d < 10*time.Millisecond || d > 62*time.Millisecond {
				t.Fatalf("%s frame %d: cost %v out of range", name, n, d)
			}
		}
	}
}

func TestOverloadDegradesAfterOneWindow(t *testing.T) {
	e, err := New(Config{Frames: 120, Workload: "overload", Profile: highEnd})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	res, err := e.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.DegradedAt != 45 {
		t.Errorf("expected degradation on frame 45, got %d", res.DegradedAt)
	}
	if res.Windows != 2 {
		t.Errorf("expected 2 windows in 120 frames, got %d", res.Windows)
	}
	for _, s := range res.Samples[45:] {
		if s.Effects {
			t.Fatalf("frame %d: effects re-enabled", s.Frame)
		}
	}
	// The priming frame plus 44 frames before the window closed.
	if e.Surface().Composites != 45 {
		t.Errorf("expected post-processing on 45 frames, got %d", e.Surface().Composites)
	}
}

func TestSpikyStaysEnabled(t *testing.T) {
	e, err := New(Config{Frames: 200, Workload: "spiky", Profile: highEnd, Seed: 7})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	res, err := e.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.DegradedAt != 0 {
		t.Errorf("isolated spikes should not degrade, degraded at %d", res.DegradedAt)
	}
	if res.Stats.Max() < 58 {
		t.Errorf("expected spikes in stats, max %f", res.Stats.Max())
	}
}

func TestLowEndNeverComposites(t *testing.T) {
	e, err := New(Config{Frames: 30, Profile: profile.Profile{MobileUserAgent: true, Cores: 8, MemoryGB: 8}})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if _, err := e.Run(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	s := e.Surface()
	if s.Composites != 0 {
		t.Errorf("low-end run composited %d frames", s.Composites)
	}
	if len(s.Points) != 128*128 {
		t.Errorf("expected %d points, got %d", 128*128, len(s.Points))
	}
}

func TestHandleReachesField(t *testing.T) {
	e, err := New(Config{Frames: 10, Profile: highEnd})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	if err := e.Setup(); err != nil {
		t.Fatal(err)
	}
	e.Handle(input.Wheel{DeltaY: -1})
	s, err := e.Step()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(s.TimeScale-1.05) > 1e-9 {
		t.Errorf("expected time scale 1.05, got %f", s.TimeScale)
	}
	if got := e.Surface().Passes; len(got) != 3 || got[0] != render.Bloom {
		t.Errorf("unexpected passes %v", got)
	}
}

func TestReport(t *testing.T) {
	e, err := New(Config{Frames: 50, Workload: "overload", Profile: highEnd})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	if _, err := e.Run(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	r, frames := e.Report()
	if r.Backend != "cpu" || r.GridSide != 256 || r.Frames != 50 {
		t.Errorf("unexpected report %+v", r)
	}
	if r.Effects || r.DegradedAt != 45 {
		t.Errorf("expected degradation recorded, got effects=%v at %d", r.Effects, r.DegradedAt)
	}
	if len(frames) != 50 || frames[0].Index != 1 {
		t.Errorf("unexpected frames: %d", len(frames))
	}
	if r.Stats["mean_ms"] < 24 || r.Stats["mean_ms"] > 26 {
		t.Errorf("unexpected mean %f", r.Stats["mean_ms"])
	}
}

func TestRunHonoursContext(t *testing.T) {
	e, err := New(Config{Frames: 1000, Profile: highEnd})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	res, err := e.Run(ctx, func(s Sample) {
		if s.Frame == 5 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(res.Samples) != 5 {
		t.Errorf("expected 5 samples, got %d", len(res.Samples))
	}
}

func TestCloseUnmounts(t *testing.T) {
	e, err := New(Config{Frames: 1, Profile: highEnd})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Setup(); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if !e.Surface().Closed() {
		t.Error("surface not closed")
	}
	if _, err := e.Step(); err == nil {
		t.Error("step after close should fail")
	}
}
