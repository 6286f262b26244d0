package dialysis

import (
	"log"

	"github.com/sarchlab/hemosim/sim"
)

// CycleLogger prints a console trace of every cycle: the readings, the
// actuator adjustments and the leak alarm.
type CycleLogger struct {
	sim.LogHookBase
}

// NewCycleLogger creates a CycleLogger that writes into the logger.
func NewCycleLogger(logger *log.Logger) *CycleLogger {
	h := new(CycleLogger)
	h.Logger = logger

	return h
}

// Func writes the hook information into the logger.
func (h *CycleLogger) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case HookPosCycleStart:
		h.Printf("--- Iteration sequence number %d ---", ctx.Item.(int))
	case HookPosReading:
		h.logReading(ctx.Item.(Reading))
	case HookPosLeak:
		h.Print("Blood leak detected! Stopping dialysis machine.")
	}
}

func (h *CycleLogger) logReading(r Reading) {
	switch r.Variable {
	case VariablePressure:
		h.Printf("Reading blood pressure: %.0f mmHg", r.Measurement)
		h.Printf("Adjusting ultrafiltration rate by: %+.2f mL/h", r.Adjustment)
	case VariableFlowRate:
		h.Printf("Reading blood flow rate: %.1f mL/min", r.Measurement)
		h.Printf("Adjusting blood pump rate by: %+.1f mL/min", r.Adjustment)
	case VariableOxygenSaturation:
		h.Printf("Reading oxygen saturation: %.0f%%", r.Measurement)
		h.Printf("Adjusting oxygen delivery by: %+.1f L/min", r.Adjustment)
	}
}
