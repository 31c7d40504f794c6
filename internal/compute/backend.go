package compute

import "go.uber.org/zap"

// Simulation is a particle field resident on some backend.
type Simulation interface {
	Side() int
	Kernel() string
	Step(u Uniforms) error
	// Read returns the current state. The slices are owned by the
	// simulation and valid until the next Step or Release.
	Read() (positions, velocities []float32, err error)
	// Release frees backend resources. It is safe to call twice.
	Release()
}

type Backend interface {
	Name() string
	Available() bool
	NewSimulation(side int, k Kernel) (Simulation, error)
	Cleanup()
}

// AutoSelect returns the backend called name, or for "auto" the best one
// that is available. CPU is always available.
func AutoSelect(name string, log *zap.Logger) Backend {
	if log == nil {
		log = zap.NewNop()
	}
	var b Backend
	switch name {
	case "opengl", "auto":
		gl := NewOpenGLBackend(log)
		if gl.Available() {
			b = gl
			break
		}
		if name == "opengl" {
			log.Warn("opengl compute unavailable, falling back to cpu")
		}
		b = NewCPUBackend()
	default:
		b = NewCPUBackend()
	}
	log.Info("compute backend selected", zap.String("backend", b.Name()))
	return b
}
