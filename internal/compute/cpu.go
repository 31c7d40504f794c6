package compute

import (
	"runtime"
	"sync"
)

// parallelThreshold is the particle count below which a step runs serially.
const parallelThreshold = 4096

type CPUBackend struct {
	workers int
}

func NewCPUBackend() *CPUBackend {
	return &CPUBackend{
		workers: runtime.NumCPU(),
	}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        {}

func (c *CPUBackend) NewSimulation(side int, k Kernel) (Simulation, error) {
	if k == nil {
		k = Identity{}
	}
	buf, err := NewBuffer(side)
	if err != nil {
		return nil, err
	}
	return &cpuSimulation{buf: buf, kernel: k, workers: c.workers}, nil
}

type cpuSimulation struct {
	buf      *Buffer
	kernel   Kernel
	workers  int
	released bool
}

func (s *cpuSimulation) Side() int      { return s.buf.Side() }
func (s *cpuSimulation) Kernel() string { return s.kernel.Name() }

func (s *cpuSimulation) Step(u Uniforms) error {
	if s.released {
		return ErrReleased
	}
	n := s.buf.Count()
	if n < parallelThreshold || s.workers < 2 {
		s.kernel.Apply(s.buf, u, 0, n)
		return nil
	}

	var wg sync.WaitGroup
	chunkSize := (n + s.workers - 1) / s.workers

	for w := 0; w < s.workers; w++ {
		start := w * chunkSize
		if start >= n {
			break
		}
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			s.kernel.Apply(s.buf, u, lo, hi)
		}(start, end)
	}

	wg.Wait()
	return nil
}

func (s *cpuSimulation) Read() ([]float32, []float32, error) {
	if s.released {
		return nil, nil, ErrReleased
	}
	return s.buf.Positions, s.buf.Velocities, nil
}

func (s *cpuSimulation) Release() {
	s.released = true
	s.buf = &Buffer{side: s.buf.Side()}
}
