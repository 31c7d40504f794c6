package profile

import (
	"fmt"
	"runtime"

	"github.com/caarlos0/env/v11"
)

// hostEnv holds overrides read from the process environment. They let a
// host (or a test rig) impersonate another device.
type hostEnv struct {
	UserAgent     string   `env:"HEROFIELD_USER_AGENT"`
	Cores         *int     `env:"HEROFIELD_CORES"`
	MemoryGB      *float64 `env:"HEROFIELD_MEMORY_GB"`
	ReducedMotion bool     `env:"HEROFIELD_REDUCED_MOTION"`
}

// HostSignals collects signals for the current process. Environment
// overrides win over what the machine reports. A malformed override is
// returned as an error alongside the signals gathered from the machine,
// so callers may log it and carry on.
func HostSignals() (Signals, error) {
	cores := runtime.NumCPU()
	s := Signals{
		UserAgent: fmt.Sprintf("herofield (%s; %s)", runtime.GOOS, runtime.GOARCH),
		Cores:     &cores,
	}
	if mem, ok := hostMemoryGB(); ok {
		s.MemoryGB = &mem
	}

	var e hostEnv
	if err := env.Parse(&e); err != nil {
		return s, fmt.Errorf("parse env: %w", err)
	}
	if e.UserAgent != "" {
		s.UserAgent = e.UserAgent
	}
	if e.Cores != nil {
		s.Cores = e.Cores
	}
	if e.MemoryGB != nil {
		s.MemoryGB = e.MemoryGB
	}
	s.PrefersReducedMotion = e.ReducedMotion
	return s, nil
}
