package dialysis

import "github.com/sarchlab/hemosim/patient"

// A Plant is the process regulated by the control loop. Reads return the
// current measurement and apply functions change the actuators.
type Plant interface {
	ReadPressure() float64
	ReadFlowRate() float64
	ReadOxygenSaturation() float64
	DetectLeak() bool

	ApplyUltrafiltrationRate(adjustment float64)
	ApplyBloodPumpRate(adjustment float64)
	ApplyOxygenDelivery(adjustment float64)

	State() patient.State
}

// A Display renders the snapshot of each cycle. It is called synchronously
// on the simulation goroutine and must not block for long: a hung display
// stalls the whole simulation.
type Display interface {
	Show(snapshot CycleSnapshot)
}

// DisplayFunc adapts a plain function into a Display.
type DisplayFunc func(snapshot CycleSnapshot)

// Show calls f(snapshot).
func (f DisplayFunc) Show(snapshot CycleSnapshot) {
	f(snapshot)
}
