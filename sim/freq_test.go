package sim

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Freq", func() {
	It("should convert a period into a frequency", func() {
		f := FreqOfPeriod(200 * time.Millisecond)

		Expect(f).To(BeNumerically("~", 5*Hz, 1e-9))
		Expect(f.Period()).To(BeNumerically("~", 0.2, 1e-9))
	})

	It("should panic on non-positive periods", func() {
		Expect(func() { FreqOfPeriod(0) }).To(Panic())
	})

	It("should find this tick and the next tick", func() {
		f := 5 * Hz

		Expect(f.ThisTick(0)).To(BeNumerically("~", 0, 1e-9))
		Expect(f.ThisTick(0.1)).To(BeNumerically("~", 0.2, 1e-9))
		Expect(f.NextTick(0.2)).To(BeNumerically("~", 0.4, 1e-9))
		Expect(f.Cycle(0.4)).To(Equal(uint64(2)))
	})
})
