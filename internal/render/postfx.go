package render

import (
	"github.com/san-kum/herofield/internal/config"
	"github.com/san-kum/herofield/internal/profile"
)

// Pass is one screen-space post-processing pass.
type Pass int

const (
	Bloom Pass = iota
	ChromaticAberration
	DepthOfField
)

// chainOrder is the fixed composition order.
var chainOrder = []Pass{Bloom, ChromaticAberration, DepthOfField}

func (p Pass) String() string {
	switch p {
	case Bloom:
		return "bloom"
	case ChromaticAberration:
		return "chromatic_aberration"
	case DepthOfField:
		return "depth_of_field"
	}
	return "unknown"
}

// Compose returns the passes to run after the base render, in order.
// The whole chain is skipped when effects are off or the device is low
// end; depth of field is dropped on low-end devices on its own as well.
func Compose(cfg config.Render, p profile.Profile) []Pass {
	lowEnd := p.LowEnd()
	if !cfg.EffectsEnabled || lowEnd {
		return nil
	}
	passes := make([]Pass, 0, len(chainOrder))
	for _, pass := range chainOrder {
		if pass == DepthOfField && lowEnd {
			continue
		}
		passes = append(passes, pass)
	}
	return passes
}

// ComposeForced ignores the effects flag and whole-chain gate, keeping
// only the per-pass carve-outs. Hosts use it for the "force effects"
// debug switch.
func ComposeForced(p profile.Profile) []Pass {
	passes := make([]Pass, 0, len(chainOrder))
	for _, pass := range chainOrder {
		if pass == DepthOfField && p.LowEnd() {
			continue
		}
		passes = append(passes, pass)
	}
	return passes
}
