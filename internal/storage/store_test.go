package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}

	frames := []Frame{
		{Index: 1, MS: 16.5, Effects: true},
		{Index: 2, MS: 25, Effects: true},
		{Index: 3, MS: 25, Effects: false},
	}
	id, err := s.Save(Report{
		Backend:    "cpu",
		Kernel:     "drift",
		GridSide:   256,
		Frames:     len(frames),
		DegradedAt: 3,
		TimeScale:  1,
		Stats:      map[string]float64{"mean_ms": 22.17},
	}, frames)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	r, err := s.Load(id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.ID != id || r.Backend != "cpu" || r.GridSide != 256 || r.DegradedAt != 3 {
		t.Errorf("unexpected report %+v", r)
	}
	if r.Stats["mean_ms"] != 22.17 {
		t.Errorf("stats lost: %v", r.Stats)
	}

	got, err := s.LoadFrames(id)
	if err != nil {
		t.Fatalf("load frames: %v", err)
	}
	if len(got) != len(frames) {
		t.Fatalf("expected %d frames, got %d", len(frames), len(got))
	}
	for i := range frames {
		if got[i] != frames[i] {
			t.Errorf("frame %d: expected %+v, got %+v", i, frames[i], got[i])
		}
	}
}

func TestListOrdersByTimestamp(t *testing.T) {
	s := New(t.TempDir())
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := s.Save(Report{ID: "later", Timestamp: base.Add(time.Hour)}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(Report{ID: "earlier", Timestamp: base}, nil); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(s.Dir(), "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	reports, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].ID != "earlier" || reports[1].ID != "later" {
		t.Errorf("unexpected order: %s, %s", reports[0].ID, reports[1].ID)
	}
}

func TestListMissingDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent"))
	reports, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 0 {
		t.Errorf("expected no reports, got %d", len(reports))
	}
}

func TestLoadMissing(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.Load("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.LoadFrames("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadFramesSkipsMalformedRows(t *testing.T) {
	s := New(t.TempDir())
	dir := filepath.Join(s.Dir(), "run")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	csv := "frame,ms,effects\n1,16.0,true\nx,1,true\n2,abc,false\n3,18.5\n4,20.0,false\n"
	if err := os.WriteFile(filepath.Join(dir, "frames.csv"), []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}

	frames, err := s.LoadFrames("run")
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{16, 20}
	got := Durations(frames)
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v, got %v", want, got)
	}
}
