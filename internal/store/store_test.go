package store_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/herofield/internal/config"
	"github.com/san-kum/herofield/internal/store"
)

var _ = Describe("Store", func() {
	var (
		st      *store.Store
		updates []config.Render
	)

	BeforeEach(func() {
		st = store.New(config.Render{
			PixelDensityCap: 2,
			GridSide:        256,
			EffectsEnabled:  true,
			TimeScale:       1,
		})
		updates = nil
		st.Subscribe(func(r config.Render) { updates = append(updates, r) })
	})

	Describe("SetTimeScale", func() {
		It("clamps to the allowed range", func() {
			st.SetTimeScale(10)
			Expect(st.Get().TimeScale).To(Equal(config.MaxTimeScale))
			st.SetTimeScale(-10)
			Expect(st.Get().TimeScale).To(Equal(config.MinTimeScale))
		})

		It("stays in range for arbitrary sequences", func() {
			rng := rand.New(rand.NewSource(7))
			for i := 0; i < 1000; i++ {
				st.SetTimeScale((rng.Float64() - 0.5) * 20)
				Expect(st.Get().TimeScale).To(BeNumerically(">=", config.MinTimeScale))
				Expect(st.Get().TimeScale).To(BeNumerically("<=", config.MaxTimeScale))
			}
			st.SetTimeScale(math.Inf(1))
			Expect(st.Get().TimeScale).To(Equal(config.MaxTimeScale))
			st.SetTimeScale(math.NaN())
			Expect(math.IsNaN(st.Get().TimeScale)).To(BeFalse())
		})

		It("does not notify when the value is unchanged", func() {
			st.SetTimeScale(1)
			Expect(updates).To(BeEmpty())
			st.SetTimeScale(5)
			st.SetTimeScale(7)
			Expect(updates).To(HaveLen(1))
		})
	})

	Describe("SetEffectsEnabled", func() {
		It("disables once and never re-enables", func() {
			st.SetEffectsEnabled(false)
			st.SetEffectsEnabled(false)
			st.SetEffectsEnabled(true)
			Expect(st.Get().EffectsEnabled).To(BeFalse())
			Expect(updates).To(HaveLen(1))
		})
	})

	Describe("SetPointer", func() {
		It("stores the pointer and notifies synchronously", func() {
			st.SetPointer(config.Pointer{X: 0.25, Y: -0.5})
			Expect(updates).To(HaveLen(1))
			Expect(updates[0].Pointer).To(Equal(config.Pointer{X: 0.25, Y: -0.5}))
		})

		It("clamps to normalized device coordinates", func() {
			st.SetPointer(config.Pointer{X: 3, Y: -4})
			Expect(st.Get().Pointer).To(Equal(config.Pointer{X: 1, Y: -1}))
		})

		It("is ignored while hidden and resumes when visible", func() {
			st.SetVisible(false)
			st.SetPointer(config.Pointer{X: 0.5, Y: 0.5})
			Expect(updates).To(BeEmpty())
			Expect(st.Get().Pointer).To(Equal(config.Pointer{}))

			st.SetVisible(true)
			st.SetPointer(config.Pointer{X: 0.5, Y: 0.5})
			Expect(updates).To(HaveLen(1))
		})
	})

	Describe("Subscribe", func() {
		It("bumps the revision per applied change", func() {
			before := st.Revision()
			st.SetTimeScale(1.5)
			st.SetTimeScale(1.5)
			Expect(st.Revision()).To(Equal(before + 1))
		})

		It("stops notifying after unsubscribe", func() {
			var count int
			unsubscribe := st.Subscribe(func(config.Render) { count++ })
			Expect(st.Subscribers()).To(Equal(2))
			st.SetTimeScale(1.2)
			unsubscribe()
			unsubscribe()
			st.SetTimeScale(1.4)
			Expect(count).To(Equal(1))
			Expect(st.Subscribers()).To(Equal(1))
		})

		It("tolerates a listener removing itself mid-notification", func() {
			var unsubscribe func()
			calls := 0
			unsubscribe = st.Subscribe(func(config.Render) {
				calls++
				unsubscribe()
			})
			st.SetTimeScale(1.3)
			st.SetTimeScale(1.6)
			Expect(calls).To(Equal(1))
			Expect(updates).To(HaveLen(2))
		})
	})
})
