package dialysis

import (
	"fmt"

	"github.com/sarchlab/hemosim/pid"
	"github.com/sarchlab/hemosim/sim"
)

// Variable identifies one regulated variable.
type Variable int

// The regulated variables, in the order they are processed in each cycle.
const (
	VariablePressure Variable = iota
	VariableFlowRate
	VariableOxygenSaturation
)

func (v Variable) String() string {
	switch v {
	case VariablePressure:
		return "BloodPressure"
	case VariableFlowRate:
		return "BloodFlowRate"
	case VariableOxygenSaturation:
		return "OxygenSaturation"
	default:
		return fmt.Sprintf("Variable(%d)", int(v))
	}
}

// A Reading is one controller step within a cycle.
type Reading struct {
	Sequence    int
	Variable    Variable
	Measurement float64
	Adjustment  float64
}

// CycleSnapshot is the immutable record of one cycle. The values are taken
// from the plant after all three adjustments have been applied.
type CycleSnapshot struct {
	Sequence int
	Time     sim.VTimeInSec

	Pressure         float64
	FlowRate         float64
	OxygenSaturation float64

	UltrafiltrationAdjustment float64
	PumpAdjustment            float64
	OxygenAdjustment          float64

	Leak bool
}

// ControllerStatus describes one controller at the end of a cycle.
type ControllerStatus struct {
	Name     string
	Setpoint float64
	Gains    pid.Gains
	State    pid.State
}

// Status is the state of the control loop.
type Status int

// The control loop starts running and stops either after its cycle budget or
// on the first leak. Both stopped states are terminal.
const (
	StatusRunning Status = iota
	StatusCompleted
	StatusLeakDetected
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "Running"
	case StatusCompleted:
		return "Completed"
	case StatusLeakDetected:
		return "LeakDetected"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}
