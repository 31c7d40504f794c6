package compute

// Uniforms are the per-step inputs shared by every particle.
type Uniforms struct {
	Dt       float32
	Time     float32
	PointerX float32
	PointerY float32
}

// Kernel advances particles [lo, hi) of b in place. Implementations must
// only touch texels in their range so the CPU backend can split work.
type Kernel interface {
	Name() string
	Apply(b *Buffer, u Uniforms, lo, hi int)
}

// ShaderKernel is a Kernel that can also run as a GLSL compute shader.
// The shader reads binding 0 and writes binding 1; each particle is 8
// floats: position xyzw then velocity xyzw.
type ShaderKernel interface {
	Kernel
	ComputeSource() string
}

// Identity leaves particles untouched. It is the reference kernel.
type Identity struct{}

func (Identity) Name() string                      { return "identity" }
func (Identity) Apply(*Buffer, Uniforms, int, int) {}
func (Identity) ComputeSource() string             { return identityShader }

// Drift integrates position by velocity with no forces.
type Drift struct{}

func (Drift) Name() string { return "drift" }

func (Drift) Apply(b *Buffer, u Uniforms, lo, hi int) {
	for i := lo * Channels; i < hi*Channels; i += Channels {
		b.Positions[i] += b.Velocities[i] * u.Dt
		b.Positions[i+1] += b.Velocities[i+1] * u.Dt
		b.Positions[i+2] += b.Velocities[i+2] * u.Dt
	}
}

func (Drift) ComputeSource() string { return driftShader }

// KernelByName resolves the kernels shipped with the package.
func KernelByName(name string) (Kernel, bool) {
	switch name {
	case "", "identity":
		return Identity{}, true
	case "drift":
		return Drift{}, true
	}
	return nil, false
}
