package config

import (
	"fmt"
	"sort"
	"time"
)

var Presets = map[string]*Settings{
	"low": {
		Backend: "cpu", Width: 960, Height: 540, TargetFPS: 30,
		Governor: GovernorConfig{FrameBudget: 40 * time.Millisecond, Window: 30},
	},
	"balanced": {
		Backend: "auto", Width: DefaultWidth, Height: DefaultHeight, TargetFPS: DefaultTargetFPS,
		Governor: GovernorConfig{FrameBudget: DefaultFrameBudget, Window: DefaultSampleWindow},
	},
	"high": {
		Backend: "opengl", Width: 1920, Height: 1080, TargetFPS: 60,
		Governor: GovernorConfig{FrameBudget: 18 * time.Millisecond, Window: 45},
	},
}

// GetPreset returns a copy of the named preset layered over the defaults.
func GetPreset(name string) (*Settings, error) {
	p, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	s := DefaultSettings()
	s.Backend = p.Backend
	s.Width, s.Height = p.Width, p.Height
	s.TargetFPS = p.TargetFPS
	s.Governor = p.Governor
	return s, nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
