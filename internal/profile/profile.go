package profile

import (
	"fmt"
	"regexp"
)

// DefaultHint is assumed for an absent core-count or memory hint. It sits
// exactly on the low-end boundary.
const DefaultHint = 4

var mobileUA = regexp.MustCompile(`(?i)android|webos|iphone|ipad|ipod|blackberry|iemobile|opera mini|mobile`)

// Signals are the raw environment inputs. Nil hints mean "not reported".
type Signals struct {
	UserAgent            string
	Cores                *int
	MemoryGB             *float64
	PrefersReducedMotion bool
}

// Profile is the immutable capability snapshot taken at startup.
type Profile struct {
	MobileUserAgent      bool
	Cores                int
	MemoryGB             float64
	PrefersReducedMotion bool
}

// LowEnd reports whether the device should be treated as constrained.
func (p Profile) LowEnd() bool {
	return p.Cores <= 4 || p.MemoryGB <= 4
}

func (p Profile) String() string {
	return fmt.Sprintf("mobile=%t cores=%d memory=%.1fGB reduced_motion=%t low_end=%t",
		p.MobileUserAgent, p.Cores, p.MemoryGB, p.PrefersReducedMotion, p.LowEnd())
}

// Detect reduces signals to a Profile. It is pure and never fails.
func Detect(s Signals) Profile {
	cores := DefaultHint
	if s.Cores != nil && *s.Cores > 0 {
		cores = *s.Cores
	}
	mem := float64(DefaultHint)
	if s.MemoryGB != nil && *s.MemoryGB > 0 {
		mem = *s.MemoryGB
	}
	return Profile{
		MobileUserAgent:      mobileUA.MatchString(s.UserAgent),
		Cores:                cores,
		MemoryGB:             mem,
		PrefersReducedMotion: s.PrefersReducedMotion,
	}
}
