package experiment

import (
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// Workload returns the synthetic cost of frame n.
type Workload func(n int, r *rand.Rand) time.Duration

type Registry struct {
	workloads map[string]Workload
}

func NewRegistry() *Registry {
	r := &Registry{workloads: make(map[string]Workload)}

	r.Register("steady", func(_ int, rnd *rand.Rand) time.Duration {
		return jitter(16600*time.Microsecond, time.Millisecond, rnd)
	})
	// One long frame in ten averages out under the budget.
	r.Register("spiky", func(n int, rnd *rand.Rand) time.Duration {
		if n%10 == 9 {
			return jitter(60*time.Millisecond, 2*time.Millisecond, rnd)
		}
		return jitter(16*time.Millisecond, 500*time.Microsecond, rnd)
	})
	r.Register("overload", func(_ int, rnd *rand.Rand) time.Duration {
		return jitter(25*time.Millisecond, time.Millisecond, rnd)
	})
	r.Register("ramp", func(n int, _ *rand.Rand) time.Duration {
		const from, to, frames = 12.0, 30.0, 300
		ms := from + (to-from)*float64(min(n, frames))/frames
		return time.Duration(ms * float64(time.Millisecond))
	})
	return r
}

func (r *Registry) Register(name string, w Workload) {
	r.workloads[name] = w
}

func (r *Registry) Get(name string) (Workload, error) {
	w, ok := r.workloads[name]
	if !ok {
		return nil, fmt.Errorf("unknown workload: %s", name)
	}
	return w, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.workloads))
	for name := range r.workloads {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Constant is a workload where every frame costs d.
func Constant(d time.Duration) Workload {
	return func(int, *rand.Rand) time.Duration { return d }
}

// jitter draws uniformly from [base-spread, base+spread].
func jitter(base, spread time.Duration, r *rand.Rand) time.Duration {
	if spread <= 0 {
		return base
	}
	return base - spread + time.Duration(r.Int63n(int64(2*spread)+1))
}
