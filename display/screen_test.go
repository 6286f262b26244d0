package display_test

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/hemosim/dialysis"
	"github.com/sarchlab/hemosim/display"
)

func screenText(s tcell.SimulationScreen) string {
	cells, width, height := s.GetContents()

	var sb strings.Builder
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			runes := cells[y*width+x].Runes
			if len(runes) == 0 {
				sb.WriteRune(' ')
				continue
			}

			sb.WriteRune(runes[0])
		}
		sb.WriteRune('\n')
	}

	return sb.String()
}

var _ = Describe("Screen", func() {
	var (
		sim      tcell.SimulationScreen
		d        *display.Screen
		exitCode int
		snapshot dialysis.CycleSnapshot
	)

	BeforeEach(func() {
		sim = tcell.NewSimulationScreen("UTF-8")

		var err error
		d, err = display.NewScreenWithTcell(sim)
		Expect(err).NotTo(HaveOccurred())

		exitCode = -1
		d.WithExitFunc(func(code int) { exitCode = code })

		snapshot = dialysis.CycleSnapshot{
			Sequence:                  1510,
			Pressure:                  121.4,
			FlowRate:                  298.31,
			OxygenSaturation:          95.2,
			UltrafiltrationAdjustment: -0.42,
			PumpAdjustment:            1.5,
			OxygenAdjustment:          -0.1,
		}
	})

	AfterEach(func() {
		d.Close()
	})

	It("should render the current values", func() {
		d.Show(snapshot)

		text := screenText(sim)
		Expect(text).To(ContainSubstring("Elapsed time:  5 min 02.0 sec"))
		Expect(text).To(ContainSubstring("Blood pressure:    121 mmHg"))
		Expect(text).To(ContainSubstring("Ultrafilt. adj.:  -0.4 mL/h"))
		Expect(text).To(ContainSubstring("Blood flow rate: 298.3 mL/min"))
		Expect(text).To(ContainSubstring("Pump adjustment:  +1.5 mL/min"))
		Expect(text).To(ContainSubstring("Blood O2 sat.:      95 %"))
		Expect(text).To(ContainSubstring("O2 adjustment:    -0.1 L/min"))
		Expect(text).To(ContainSubstring("Status:        Nominal"))
	})

	It("should plot the trend lines", func() {
		for i := 0; i < 10; i++ {
			d.Show(snapshot)
		}

		text := screenText(sim)
		Expect(strings.ContainsAny(text, "▁▂▃▄▅▆▇█")).To(BeTrue())
	})

	It("should report a leak", func() {
		snapshot.Leak = true
		d.Show(snapshot)

		Expect(screenText(sim)).To(ContainSubstring("LEAK DETECTED, halted"))
	})

	It("should exit when the user quits", func() {
		sim.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)

		Eventually(func() int {
			d.Show(snapshot)
			return exitCode
		}).Should(Equal(0))
	})

	It("should exit on q", func() {
		sim.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

		Eventually(func() int {
			d.Show(snapshot)
			return exitCode
		}).Should(Equal(0))
	})

	It("should ignore other keys", func() {
		sim.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)

		Consistently(func() int {
			d.Show(snapshot)
			return exitCode
		}).Should(Equal(-1))
	})

	It("should wait for a key before closing", func() {
		d.Show(snapshot)

		done := make(chan struct{})
		go func() {
			d.WaitForDismiss()
			close(done)
		}()

		Consistently(done).ShouldNot(BeClosed())

		sim.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
		Eventually(done).Should(BeClosed())
	})
})
