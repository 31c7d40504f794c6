//go:build !nogl

package compute

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-gl/gl/v4.3-core/gl"
	"go.uber.org/zap"
)

// floatsPerParticle is the interleaved SSBO stride: position xyzw, velocity xyzw.
const floatsPerParticle = 8

// OpenGLBackend runs kernels as compute shaders. It needs a current
// OpenGL 4.3 context on the calling goroutine, which the window host
// provides.
type OpenGLBackend struct {
	log      *zap.Logger
	once     sync.Once
	probeErr error
	version  string
}

func NewOpenGLBackend(log *zap.Logger) *OpenGLBackend {
	if log == nil {
		log = zap.NewNop()
	}
	return &OpenGLBackend{log: log}
}

func (b *OpenGLBackend) Name() string {
	if b.version != "" {
		return "opengl (" + b.version + ")"
	}
	return "opengl"
}

func (b *OpenGLBackend) Available() bool {
	b.once.Do(func() { b.probeErr = b.probe() })
	return b.probeErr == nil
}

func (b *OpenGLBackend) probe() error {
	if err := gl.Init(); err != nil {
		return &InitError{Backend: "opengl", Stage: "init", Wrapped: err}
	}
	if v := gl.GetString(gl.VERSION); v != nil {
		b.version = gl.GoStr(v)
	} else {
		return &InitError{Backend: "opengl", Stage: "context", Wrapped: ErrUnavailable}
	}
	var major, minor int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	if major < 4 || (major == 4 && minor < 3) {
		return &InitError{
			Backend: "opengl",
			Stage:   "version",
			Wrapped: fmt.Errorf("%w: compute shaders need 4.3, have %d.%d", ErrUnavailable, major, minor),
		}
	}

	var maxGroups, maxSize int32
	gl.GetIntegeri_v(gl.MAX_COMPUTE_WORK_GROUP_COUNT, 0, &maxGroups)
	gl.GetIntegeri_v(gl.MAX_COMPUTE_WORK_GROUP_SIZE, 0, &maxSize)
	b.log.Debug("opengl compute probed",
		zap.String("version", b.version),
		zap.Int32("max_work_groups", maxGroups),
		zap.Int32("max_work_group_size", maxSize))
	return nil
}

func (b *OpenGLBackend) Cleanup() {}

func (b *OpenGLBackend) NewSimulation(side int, k Kernel) (Simulation, error) {
	if !b.Available() {
		return nil, b.probeErr
	}
	if k == nil {
		k = Identity{}
	}
	sk, ok := k.(ShaderKernel)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKernelUnsupported, k.Name())
	}
	if side < 2 {
		return nil, fmt.Errorf("%w: side %d", ErrInvalidSide, side)
	}

	program, err := createComputeProgram(sk.ComputeSource())
	if err != nil {
		return nil, &InitError{Backend: "opengl", Stage: "compile " + k.Name(), Wrapped: err}
	}

	s := &glSimulation{
		program:   program,
		kernel:    k.Name(),
		side:      side,
		n:         int32(side * side),
		scratch:   make([]float32, side*side*floatsPerParticle),
		positions: make([]float32, side*side*Channels),
		velocity:  make([]float32, side*side*Channels),
	}
	size := len(s.scratch) * 4

	gl.GenBuffers(1, &s.ssboIn)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, s.ssboIn)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, gl.Ptr(s.scratch), gl.DYNAMIC_DRAW)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, 0, s.ssboIn)

	gl.GenBuffers(1, &s.ssboOut)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, s.ssboOut)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, nil, gl.DYNAMIC_DRAW)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, 1, s.ssboOut)

	s.locN = gl.GetUniformLocation(program, gl.Str("numParticles\x00"))
	s.locDt = gl.GetUniformLocation(program, gl.Str("dt\x00"))
	s.locTime = gl.GetUniformLocation(program, gl.Str("time\x00"))
	s.locPointer = gl.GetUniformLocation(program, gl.Str("pointer\x00"))

	b.log.Debug("opengl simulation allocated", zap.Int("side", side), zap.String("kernel", k.Name()))
	return s, nil
}

type glSimulation struct {
	program         uint32
	ssboIn, ssboOut uint32
	kernel          string
	side            int
	n               int32
	locN, locDt     int32
	locTime         int32
	locPointer      int32
	scratch         []float32
	positions       []float32
	velocity        []float32
	released        bool
}

func (s *glSimulation) Side() int      { return s.side }
func (s *glSimulation) Kernel() string { return s.kernel }

func (s *glSimulation) Step(u Uniforms) error {
	if s.released {
		return ErrReleased
	}
	gl.UseProgram(s.program)
	gl.Uniform1i(s.locN, s.n)
	gl.Uniform1f(s.locDt, u.Dt)
	gl.Uniform1f(s.locTime, u.Time)
	gl.Uniform2f(s.locPointer, u.PointerX, u.PointerY)

	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, 0, s.ssboIn)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, 1, s.ssboOut)

	numGroups := (s.n + 255) / 256
	gl.DispatchCompute(uint32(numGroups), 1, 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)

	s.ssboIn, s.ssboOut = s.ssboOut, s.ssboIn
	return nil
}

func (s *glSimulation) Read() ([]float32, []float32, error) {
	if s.released {
		return nil, nil, ErrReleased
	}
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, s.ssboIn)
	gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(s.scratch)*4, gl.Ptr(s.scratch))
	for i := 0; i < int(s.n); i++ {
		copy(s.positions[i*Channels:], s.scratch[i*floatsPerParticle:i*floatsPerParticle+Channels])
		copy(s.velocity[i*Channels:], s.scratch[i*floatsPerParticle+Channels:(i+1)*floatsPerParticle])
	}
	return s.positions, s.velocity, nil
}

func (s *glSimulation) Release() {
	if s.released {
		return
	}
	s.released = true
	buffers := []uint32{s.ssboIn, s.ssboOut}
	gl.DeleteBuffers(int32(len(buffers)), &buffers[0])
	gl.DeleteProgram(s.program)
}

func createComputeProgram(source string) (uint32, error) {
	shader := gl.CreateShader(gl.COMPUTE_SHADER)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile compute shader: %v", log)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, shader)
	gl.LinkProgram(program)
	gl.DeleteShader(shader)

	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("failed to link compute program")
	}
	return program, nil
}
