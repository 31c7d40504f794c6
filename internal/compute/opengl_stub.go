//go:build nogl

package compute

import "go.uber.org/zap"

type OpenGLBackend struct{}

func NewOpenGLBackend(*zap.Logger) *OpenGLBackend { return &OpenGLBackend{} }

func (b *OpenGLBackend) Name() string    { return "opengl (not built)" }
func (b *OpenGLBackend) Available() bool { return false }
func (b *OpenGLBackend) Cleanup()        {}

func (b *OpenGLBackend) NewSimulation(int, Kernel) (Simulation, error) {
	return nil, &InitError{Backend: "opengl", Stage: "build", Wrapped: ErrUnavailable}
}
