package dialysis

import (
	"github.com/sarchlab/hemosim/pid"
	"github.com/sarchlab/hemosim/sim"
)

// DefaultMaxCycles is the cycle budget of one run.
const DefaultMaxCycles = 2000

// CycleFreq runs one cycle per NominalCadence of virtual time.
var CycleFreq = sim.FreqOfPeriod(NominalCadence)

// Builder can build control loops.
type Builder struct {
	engine    sim.Engine
	freq      sim.Freq
	plant     Plant
	display   Display
	pacer     Pacer
	maxCycles int

	pressure *pid.Controller
	flowRate *pid.Controller
	oxygen   *pid.Controller
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:      CycleFreq,
		pacer:     FixedDelay{Delay: DefaultPacingDelay},
		maxCycles: DefaultMaxCycles,
	}
}

// WithEngine sets the engine that drives the loop.
func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

// WithFreq sets the virtual-time frequency of the cycles.
func (b Builder) WithFreq(f sim.Freq) Builder {
	b.freq = f
	return b
}

// WithPlant sets the regulated process.
func (b Builder) WithPlant(p Plant) Builder {
	b.plant = p
	return b
}

// WithDisplay attaches a display. Without a display the loop runs headless
// and never paces.
func (b Builder) WithDisplay(d Display) Builder {
	b.display = d
	return b
}

// WithPacer sets how displayed cycles are paced.
func (b Builder) WithPacer(p Pacer) Builder {
	b.pacer = p
	return b
}

// WithMaxCycles sets the cycle budget.
func (b Builder) WithMaxCycles(n int) Builder {
	b.maxCycles = n
	return b
}

// WithControllers replaces the three default controllers.
func (b Builder) WithControllers(
	pressure, flowRate, oxygen *pid.Controller,
) Builder {
	b.pressure = pressure
	b.flowRate = flowRate
	b.oxygen = oxygen

	return b
}

func (b Builder) parametersMustBeValid() {
	if b.engine == nil {
		panic("engine is not set")
	}

	if b.plant == nil {
		panic("plant is not set")
	}

	if b.pacer == nil {
		panic("pacer is not set")
	}

	if b.maxCycles <= 0 {
		panic("max cycles must be positive")
	}

	hasControllers := b.pressure != nil || b.flowRate != nil || b.oxygen != nil
	allControllers := b.pressure != nil && b.flowRate != nil && b.oxygen != nil
	if hasControllers && !allControllers {
		panic("either set all three controllers or none")
	}
}

// Build creates a control loop with the given name.
func (b Builder) Build(name string) *ControlLoop {
	b.parametersMustBeValid()

	l := &ControlLoop{
		plant:     b.plant,
		display:   b.display,
		pacer:     b.pacer,
		maxCycles: b.maxCycles,
		pressure:  b.pressure,
		flowRate:  b.flowRate,
		oxygen:    b.oxygen,
	}

	if l.pressure == nil {
		l.pressure = pid.NewPressureController(pid.DefaultGains)
		l.flowRate = pid.NewFlowRateController(pid.DefaultGains)
		l.oxygen = pid.NewOxygenSaturationController(pid.DefaultGains)
	}

	l.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, l)

	return l
}
