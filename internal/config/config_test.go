package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/herofield/internal/profile"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		name string
		p    profile.Profile
		want Render
	}{
		{
			"desktop high end",
			profile.Profile{Cores: 8, MemoryGB: 8},
			Render{PixelDensityCap: 2.0, GridSide: 256, EffectsEnabled: true, TimeScale: 1.0},
		},
		{
			"mobile low end",
			profile.Profile{MobileUserAgent: true, Cores: 4, MemoryGB: 2},
			Render{PixelDensityCap: 1.25, GridSide: 128, EffectsEnabled: false, TimeScale: 1.0},
		},
		{
			"reduced motion on high end",
			profile.Profile{Cores: 8, MemoryGB: 8, PrefersReducedMotion: true},
			Render{PixelDensityCap: 2.0, GridSide: 256, EffectsEnabled: false, TimeScale: 0.8},
		},
		{
			"mobile high end",
			profile.Profile{MobileUserAgent: true, Cores: 8, MemoryGB: 8},
			Render{PixelDensityCap: 1.5, GridSide: 128, EffectsEnabled: false, TimeScale: 1.0},
		},
		{
			"desktop with four cores",
			profile.Profile{Cores: 4, MemoryGB: 16},
			Render{PixelDensityCap: 1.25, GridSide: 128, EffectsEnabled: false, TimeScale: 1.0},
		},
		{
			"desktop with four gigabytes",
			profile.Profile{Cores: 16, MemoryGB: 4},
			Render{PixelDensityCap: 1.25, GridSide: 128, EffectsEnabled: false, TimeScale: 1.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.p)
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestDeriveDeterministic(t *testing.T) {
	for cores := 1; cores <= 8; cores++ {
		for _, mem := range []float64{1, 2, 3.5, 4, 4.5, 8, 32} {
			for _, mobile := range []bool{false, true} {
				for _, reduced := range []bool{false, true} {
					p := profile.Profile{MobileUserAgent: mobile, Cores: cores, MemoryGB: mem, PrefersReducedMotion: reduced}
					first := Derive(p)
					for i := 0; i < 3; i++ {
						if again := Derive(p); again != first {
							t.Fatalf("%s: %+v != %+v", p, again, first)
						}
					}
					if first.PixelDensityCap < MinPixelDensity || first.PixelDensityCap > DesktopPixelDensity {
						t.Errorf("%s: density cap %f out of range", p, first.PixelDensityCap)
					}
					if p.LowEnd() && first.PixelDensityCap > LowEndPixelDensity {
						t.Errorf("%s: low-end density cap %f above %f", p, first.PixelDensityCap, LowEndPixelDensity)
					}
					if first.Pointer != (Pointer{}) {
						t.Errorf("%s: pointer should start at origin", p)
					}
				}
			}
		}
	}
}

func TestClampTimeScale(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.0, 1.0},
		{0.1, MinTimeScale},
		{-3, MinTimeScale},
		{5, MaxTimeScale},
		{2.0, 2.0},
		{0.5, 0.5},
	}
	for _, tt := range tests {
		if got := ClampTimeScale(tt.in); got != tt.want {
			t.Errorf("clamp(%f): expected %f, got %f", tt.in, tt.want, got)
		}
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if s.Governor.FrameBudget != 22*time.Millisecond {
		t.Errorf("expected 22ms budget, got %v", s.Governor.FrameBudget)
	}
	if s.Governor.Window != 45 {
		t.Errorf("expected window 45, got %d", s.Governor.Window)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "herofield.yaml")
	s := DefaultSettings()
	s.Backend = "cpu"
	s.Governor.FrameBudget = 30 * time.Millisecond

	if err := Save(path, s); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Backend != "cpu" {
		t.Errorf("expected backend cpu, got %s", loaded.Backend)
	}
	if loaded.Governor.FrameBudget != 30*time.Millisecond {
		t.Errorf("expected 30ms, got %v", loaded.Governor.FrameBudget)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("governor:\n  frame_budget: 33ms\n"), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.Governor.FrameBudget != 33*time.Millisecond {
		t.Errorf("expected 33ms, got %v", s.Governor.FrameBudget)
	}
	if s.Governor.Window != DefaultSampleWindow || s.Width != DefaultWidth {
		t.Error("unspecified fields should keep defaults")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("backend: vulkan\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "backend" {
		t.Errorf("expected backend field error, got %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	s, err := GetPreset("low")
	if err != nil {
		t.Fatalf("expected preset: %v", err)
	}
	if s.Backend != "cpu" || s.Governor.Window != 30 {
		t.Errorf("unexpected low preset %+v", s)
	}
	if s.LogLevel != "info" {
		t.Error("preset should keep default log level")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("preset should validate: %v", err)
	}
}

func TestGetPresetNotFound(t *testing.T) {
	if _, err := GetPreset("ultra"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != 3 || names[0] != "balanced" {
		t.Errorf("unexpected presets %v", names)
	}
}
