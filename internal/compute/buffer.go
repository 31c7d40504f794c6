package compute

import "fmt"

// Channels is the number of float32 components per texel.
const Channels = 4

// Buffer is the paired position/velocity state of side*side particles.
// A Buffer is never resized; a different side means a new Buffer.
type Buffer struct {
	side       int
	Positions  []float32
	Velocities []float32
}

func NewBuffer(side int) (*Buffer, error) {
	if side < 2 {
		return nil, fmt.Errorf("%w: side %d", ErrInvalidSide, side)
	}
	n := side * side * Channels
	return &Buffer{
		side:       side,
		Positions:  make([]float32, n),
		Velocities: make([]float32, n),
	}, nil
}

func (b *Buffer) Side() int  { return b.side }
func (b *Buffer) Count() int { return b.side * b.side }

// Index returns the offset of texel (x, y) in either array.
func (b *Buffer) Index(x, y int) int {
	return (y*b.side + x) * Channels
}

// UV returns the texture coordinate of particle (x, y), both in [0, 1].
func (b *Buffer) UV(x, y int) (u, v float32) {
	d := float32(b.side - 1)
	return float32(x) / d, float32(y) / d
}

// Particle returns the (x, y) grid address of the i-th particle.
func (b *Buffer) Particle(i int) (x, y int) {
	return i % b.side, i / b.side
}
