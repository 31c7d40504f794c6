// Package compute holds the particle state of the field and the backends
// that advance it.
//
// Particle state lives in texture-like buffers: side*side RGBA texels for
// positions and the same for velocities, addressed by (x, y). A [Kernel]
// decides what a step does; the reference kernel is [Identity], which
// leaves everything where it was seeded. Swapping the kernel never
// touches buffer layout or addressing.
//
// Two backends are available:
//
//   - CPU: fans the kernel out over worker goroutines and joins before Step returns
//   - OpenGL: runs the kernel as a compute shader over ping-pong SSBOs
//
// Pick one with [AutoSelect]:
//
//	backend := compute.AutoSelect("auto", log)
//	simulation, err := backend.NewSimulation(256, compute.Identity{})
package compute
