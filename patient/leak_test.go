package patient_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/hemosim/patient"
)

var _ = Describe("Leak detection", func() {
	It("should detect leaks at about one in a thousand calls", func() {
		m := patient.MakeBuilder().WithSeed(2024).Build()

		leaks := 0
		for i := 0; i < 100000; i++ {
			if m.DetectLeak() {
				leaks++
			}
		}

		rate := float64(leaks) / 100000
		Expect(rate).To(BeNumerically("~", 0.001, 0.0005))
	})

	It("should never detect a leak with zero probability", func() {
		m := patient.MakeBuilder().WithSeed(1).WithLeakProbability(0).Build()

		for i := 0; i < 100000; i++ {
			Expect(m.DetectLeak()).To(BeFalse())
		}
	})

	It("should always detect a leak with probability one", func() {
		s := patient.NewRandomLeakSensor(rand.New(rand.NewSource(1)), 1)
		Expect(s.DetectLeak()).To(BeTrue())
	})

	It("should reject invalid probabilities", func() {
		rng := rand.New(rand.NewSource(1))
		Expect(func() { patient.NewRandomLeakSensor(rng, 1.5) }).To(Panic())
		Expect(func() { patient.NewRandomLeakSensor(rng, -0.1) }).To(Panic())
	})

	It("should use an injected sensor", func() {
		calls := 0
		m := patient.MakeBuilder().
			WithSeed(1).
			WithLeakSensor(patient.LeakSensorFunc(func() bool {
				calls++
				return calls == 3
			})).
			Build()

		Expect(m.DetectLeak()).To(BeFalse())
		Expect(m.DetectLeak()).To(BeFalse())
		Expect(m.DetectLeak()).To(BeTrue())
	})
})
