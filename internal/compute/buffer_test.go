package compute

import (
	"errors"
	"testing"
)

func TestNewBuffer(t *testing.T) {
	b, err := NewBuffer(128)
	if err != nil {
		t.Fatalf("new buffer: %v", err)
	}
	if b.Count() != 128*128 {
		t.Errorf("expected %d particles, got %d", 128*128, b.Count())
	}
	if len(b.Positions) != len(b.Velocities) || len(b.Positions) != 128*128*Channels {
		t.Errorf("unexpected sizes %d/%d", len(b.Positions), len(b.Velocities))
	}
	for _, v := range b.Positions {
		if v != 0 {
			t.Fatal("positions should be seeded at origin")
		}
	}
}

func TestNewBufferInvalidSide(t *testing.T) {
	for _, side := range []int{-1, 0, 1} {
		if _, err := NewBuffer(side); !errors.Is(err, ErrInvalidSide) {
			t.Errorf("side %d: expected ErrInvalidSide, got %v", side, err)
		}
	}
}

func TestAddressing(t *testing.T) {
	b, _ := NewBuffer(4)
	tests := []struct {
		x, y  int
		index int
		u, v  float32
	}{
		{0, 0, 0, 0, 0},
		{3, 0, 12, 1, 0},
		{0, 3, 48, 0, 1},
		{3, 3, 60, 1, 1},
	}
	for _, tt := range tests {
		if got := b.Index(tt.x, tt.y); got != tt.index {
			t.Errorf("index(%d,%d): expected %d, got %d", tt.x, tt.y, tt.index, got)
		}
		u, v := b.UV(tt.x, tt.y)
		if u != tt.u || v != tt.v {
			t.Errorf("uv(%d,%d): expected (%v,%v), got (%v,%v)", tt.x, tt.y, tt.u, tt.v, u, v)
		}
	}
	for i := 0; i < b.Count(); i++ {
		x, y := b.Particle(i)
		if b.Index(x, y) != i*Channels {
			t.Fatalf("particle %d round-trips to index %d", i, b.Index(x, y))
		}
	}
}
