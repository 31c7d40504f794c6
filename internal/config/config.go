package config

import (
	"math"
	"os"
	"time"

	"github.com/san-kum/herofield/internal/profile"
	"gopkg.in/yaml.v3"
)

const (
	MinTimeScale = 0.5
	MaxTimeScale = 2.0

	DefaultTimeScale       = 1.0
	ReducedMotionTimeScale = 0.8

	MinPixelDensity     = 1.0
	DesktopPixelDensity = 2.0
	MobilePixelDensity  = 1.5
	LowEndPixelDensity  = 1.25

	LowEndGridSide = 128
	FullGridSide   = 256

	DefaultFrameBudget  = 22 * time.Millisecond
	DefaultSampleWindow = 45
	DefaultWidth        = 1280
	DefaultHeight       = 720
	DefaultTargetFPS    = 60
)

// Pointer is a position in normalized device coordinates, both axes in [-1, 1].
type Pointer struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Render is the live quality/behaviour configuration of the particle field.
// Values of this type are snapshots; the store owns the only mutable copy.
type Render struct {
	PixelDensityCap float64 `yaml:"pixel_density_cap" json:"pixel_density_cap"`
	GridSide        int     `yaml:"grid_side" json:"grid_side"`
	EffectsEnabled  bool    `yaml:"effects_enabled" json:"effects_enabled"`
	TimeScale       float64 `yaml:"time_scale" json:"time_scale"`
	Pointer         Pointer `yaml:"pointer" json:"pointer"`
}

// ParticleCount is GridSide squared.
func (r Render) ParticleCount() int { return r.GridSide * r.GridSide }

// Derive maps a capability profile to the initial render configuration.
// It is pure: the same profile always yields the same configuration.
func Derive(p profile.Profile) Render {
	lowEnd := p.LowEnd()

	density := DesktopPixelDensity
	if p.MobileUserAgent {
		density = MobilePixelDensity
	}
	if lowEnd {
		density = math.Min(density, LowEndPixelDensity)
	}

	side := FullGridSide
	if lowEnd || p.MobileUserAgent {
		side = LowEndGridSide
	}

	timeScale := DefaultTimeScale
	if p.PrefersReducedMotion {
		timeScale = ReducedMotionTimeScale
	}

	return Render{
		PixelDensityCap: density,
		GridSide:        side,
		EffectsEnabled:  !(lowEnd || p.MobileUserAgent || p.PrefersReducedMotion),
		TimeScale:       timeScale,
	}
}

// ClampTimeScale bounds t to [MinTimeScale, MaxTimeScale]. NaN maps to the default.
func ClampTimeScale(t float64) float64 {
	if math.IsNaN(t) {
		return DefaultTimeScale
	}
	return math.Max(MinTimeScale, math.Min(MaxTimeScale, t))
}

// Settings are the host-level knobs loaded from YAML. They tune the
// subsystem around the derived Render configuration, never replace it.
type Settings struct {
	Backend     string         `yaml:"backend"`
	Width       int            `yaml:"width"`
	Height      int            `yaml:"height"`
	TargetFPS   int            `yaml:"target_fps"`
	Governor    GovernorConfig `yaml:"governor"`
	MetricsAddr string         `yaml:"metrics_addr"`
	LogLevel    string         `yaml:"log_level"`
	LogFormat   string         `yaml:"log_format"`
	DataDir     string         `yaml:"data_dir"`
}

type GovernorConfig struct {
	FrameBudget time.Duration `yaml:"frame_budget"`
	Window      int           `yaml:"window"`
}

func DefaultSettings() *Settings {
	return &Settings{
		Backend:   "auto",
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		TargetFPS: DefaultTargetFPS,
		Governor: GovernorConfig{
			FrameBudget: DefaultFrameBudget,
			Window:      DefaultSampleWindow,
		},
		LogLevel:  "info",
		LogFormat: "console",
		DataDir:   ".herofield",
	}
}

func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func Save(path string, s *Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
