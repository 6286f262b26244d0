package display_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/hemosim/display"
)

var _ = Describe("History", func() {
	var h *display.History

	BeforeEach(func() {
		h = &display.History{}
	})

	It("should be empty at first", func() {
		Expect(h.Len()).To(BeZero())
		Expect(h.Last(10)).To(BeEmpty())
	})

	It("should return the most recent samples oldest first", func() {
		for i := 1; i <= 5; i++ {
			h.Push(float64(i))
		}

		Expect(h.Len()).To(Equal(5))
		Expect(h.Last(3)).To(Equal([]float64{3, 4, 5}))
		Expect(h.Last(10)).To(Equal([]float64{1, 2, 3, 4, 5}))
	})

	It("should keep only the last HistorySize samples", func() {
		for i := 0; i < display.HistorySize+250; i++ {
			h.Push(float64(i))
		}

		Expect(h.Len()).To(Equal(display.HistorySize))

		all := h.Last(display.HistorySize)
		Expect(all[0]).To(Equal(250.0))
		Expect(all[len(all)-1]).To(Equal(float64(display.HistorySize + 249)))
	})
})
