package governor_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/herofield/internal/config"
	"github.com/san-kum/herofield/internal/governor"
	"github.com/san-kum/herofield/internal/store"
)

type countingStore struct {
	*store.Store
	disables int
}

func (c *countingStore) SetEffectsEnabled(v bool) {
	if !v && c.EffectsEnabled() {
		c.disables++
	}
	c.Store.SetEffectsEnabled(v)
}

var _ = Describe("Governor", func() {
	var (
		st  *countingStore
		gov *governor.Governor
	)

	BeforeEach(func() {
		st = &countingStore{Store: store.New(config.Render{GridSide: 256, EffectsEnabled: true, TimeScale: 1})}
		gov = governor.New(45, nil)
		gov.OnWindow(governor.DegradePolicy(st, 22*time.Millisecond, nil))
	})

	It("disables effects exactly once after 45 slow frames", func() {
		for i := 0; i < 44; i++ {
			gov.Record(25)
			Expect(st.EffectsEnabled()).To(BeTrue())
		}
		gov.Record(25)
		Expect(st.EffectsEnabled()).To(BeFalse())
		Expect(st.disables).To(Equal(1))

		for i := 0; i < 90; i++ {
			gov.Record(25)
		}
		Expect(st.disables).To(Equal(1))
		Expect(gov.Windows()).To(Equal(3))
	})

	It("derives frame durations from Tick timestamps", func() {
		start := time.Unix(0, 0)
		gov.Tick(start)
		for i := 1; i <= 45; i++ {
			gov.Tick(start.Add(time.Duration(i) * 25 * time.Millisecond))
		}
		Expect(gov.Windows()).To(Equal(1))
		Expect(st.EffectsEnabled()).To(BeFalse())
	})

	It("keeps effects when frames are within budget", func() {
		for i := 0; i < 450; i++ {
			gov.Record(16.6)
		}
		Expect(st.EffectsEnabled()).To(BeTrue())
		Expect(gov.Windows()).To(Equal(10))
	})

	It("treats the threshold as exclusive", func() {
		for i := 0; i < 45; i++ {
			gov.Record(22)
		}
		Expect(st.EffectsEnabled()).To(BeTrue())
	})

	It("never re-enables effects after fast frames", func() {
		for i := 0; i < 45; i++ {
			gov.Record(40)
		}
		Expect(st.EffectsEnabled()).To(BeFalse())
		for i := 0; i < 45*20; i++ {
			gov.Record(4)
			Expect(st.EffectsEnabled()).To(BeFalse())
		}
	})

	It("judges each window on its own samples", func() {
		for i := 0; i < 45; i++ {
			gov.Record(10)
		}
		for i := 0; i < 44; i++ {
			gov.Record(30)
		}
		Expect(st.EffectsEnabled()).To(BeTrue())
		gov.Record(30)
		Expect(st.EffectsEnabled()).To(BeFalse())
	})

	It("does nothing when effects start disabled", func() {
		st = &countingStore{Store: store.New(config.Render{GridSide: 128, TimeScale: 1})}
		gov = governor.New(45, nil)
		gov.OnWindow(governor.DegradePolicy(st, 22*time.Millisecond, nil))
		for i := 0; i < 90; i++ {
			gov.Record(100)
		}
		Expect(st.disables).To(Equal(0))
	})

	It("forgets a partial window on Reset", func() {
		for i := 0; i < 44; i++ {
			gov.Record(100)
		}
		gov.Reset()
		gov.Record(100)
		Expect(st.EffectsEnabled()).To(BeTrue())
	})

	It("ignores a clock that goes backwards", func() {
		now := time.Unix(100, 0)
		gov.Tick(now)
		gov.Tick(now.Add(-time.Second))
		var frames int
		gov.OnFrame(func(float64) { frames++ })
		gov.Tick(now)
		Expect(frames).To(Equal(1))
	})

	Context("with faulty callbacks", func() {
		var logs *observer.ObservedLogs

		BeforeEach(func() {
			core, observed := observer.New(zap.DebugLevel)
			logs = observed
			gov = governor.New(2, zap.New(core))
		})

		It("logs and continues after a panic", func() {
			calls := 0
			gov.OnWindow(func(float64) error { panic("boom") })
			gov.OnWindow(func(float64) error { calls++; return nil })

			Expect(func() {
				for i := 0; i < 4; i++ {
					gov.Record(5)
				}
			}).NotTo(Panic())
			Expect(calls).To(Equal(2))
			Expect(gov.Faults()).To(Equal(2))
			Expect(logs.FilterMessage("governor callback panicked").Len()).To(Equal(2))
		})

		It("logs returned errors", func() {
			gov.OnWindow(func(float64) error { return errors.New("nope") })
			gov.Record(1)
			gov.Record(1)
			Expect(gov.Faults()).To(Equal(1))
			Expect(logs.FilterMessage("governor callback failed").Len()).To(Equal(1))
		})

		It("survives panicking frame observers", func() {
			gov.OnFrame(func(float64) { panic("frame") })
			Expect(func() { gov.Record(1) }).NotTo(Panic())
			Expect(gov.Faults()).To(Equal(1))
		})
	})
})
