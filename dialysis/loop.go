// Package dialysis implements the closed control loop of the dialysis
// machine. Each cycle reads the blood pressure, the blood flow rate and the
// oxygen saturation in that order, runs the matching PID controller and
// immediately applies its adjustment before moving to the next variable. The
// cycle then checks for a blood leak, reports a snapshot and waits for the
// pacer.
package dialysis

import (
	"errors"
	"log"

	"github.com/sarchlab/hemosim/pid"
	"github.com/sarchlab/hemosim/sim"
)

// Hook positions invoked by the control loop.
var (
	// HookPosCycleStart triggers before a cycle. Item is the sequence number.
	HookPosCycleStart = &sim.HookPos{Name: "CycleStart"}

	// HookPosReading triggers after each controller step. Item is a Reading.
	HookPosReading = &sim.HookPos{Name: "Reading"}

	// HookPosCycleEnd triggers after every cycle. Item is a CycleSnapshot and
	// Detail is a []ControllerStatus.
	HookPosCycleEnd = &sim.HookPos{Name: "CycleEnd"}

	// HookPosLeak triggers on the cycle that detects a leak. Item is a
	// CycleSnapshot.
	HookPosLeak = &sim.HookPos{Name: "Leak"}
)

// ErrLoopNotFinished is returned by Run when the engine drains its events
// while the loop is still running.
var ErrLoopNotFinished = errors.New("engine stopped before the control loop finished")

// ControlLoop is the ticking component that runs one control cycle per tick.
type ControlLoop struct {
	*sim.TickingComponent

	plant   Plant
	display Display
	pacer   Pacer

	pressure *pid.Controller
	flowRate *pid.Controller
	oxygen   *pid.Controller

	maxCycles int
	cycles    int
	started   bool
	status    Status
}

// Run starts the loop at the current engine time and runs the engine until
// the loop stops. It returns true if all cycles completed and false if a leak
// stopped the machine.
func (l *ControlLoop) Run() (bool, error) {
	if l.started {
		log.Panic("control loop can only run once")
	}

	l.started = true
	l.TickNow()

	err := l.Engine.Run()
	if err != nil {
		return false, err
	}

	if l.status == StatusRunning {
		return false, ErrLoopNotFinished
	}

	return l.status == StatusCompleted, nil
}

// Tick runs one cycle. It returns false once the loop has stopped.
func (l *ControlLoop) Tick() bool {
	if l.status != StatusRunning {
		return false
	}

	l.cycles++
	seq := l.cycles

	l.InvokeHook(sim.HookCtx{Domain: l, Pos: HookPosCycleStart, Item: seq})

	ufAdj := l.regulate(seq, VariablePressure, l.pressure,
		l.plant.ReadPressure, l.plant.ApplyUltrafiltrationRate)
	pumpAdj := l.regulate(seq, VariableFlowRate, l.flowRate,
		l.plant.ReadFlowRate, l.plant.ApplyBloodPumpRate)
	o2Adj := l.regulate(seq, VariableOxygenSaturation, l.oxygen,
		l.plant.ReadOxygenSaturation, l.plant.ApplyOxygenDelivery)

	leak := l.plant.DetectLeak()

	snapshot := l.show(seq, ufAdj, pumpAdj, o2Adj, leak)

	if leak {
		l.status = StatusLeakDetected
		l.InvokeHook(sim.HookCtx{Domain: l, Pos: HookPosLeak, Item: snapshot})

		return false
	}

	if l.display != nil {
		l.pacer.Pace()
	}

	if l.cycles >= l.maxCycles {
		l.status = StatusCompleted
		return false
	}

	return true
}

func (l *ControlLoop) regulate(
	seq int,
	v Variable,
	c *pid.Controller,
	read func() float64,
	apply func(float64),
) float64 {
	measurement := read()
	adjustment := c.Step(measurement)
	apply(adjustment)

	l.InvokeHook(sim.HookCtx{
		Domain: l,
		Pos:    HookPosReading,
		Item: Reading{
			Sequence:    seq,
			Variable:    v,
			Measurement: measurement,
			Adjustment:  adjustment,
		},
	})

	return adjustment
}

// show builds the snapshot from the current plant state, hands it to the
// hooks and to the display.
func (l *ControlLoop) show(
	seq int,
	ufAdj, pumpAdj, o2Adj float64,
	leak bool,
) CycleSnapshot {
	state := l.plant.State()
	snapshot := CycleSnapshot{
		Sequence:                  seq,
		Time:                      l.CurrentTime(),
		Pressure:                  state.Pressure,
		FlowRate:                  state.FlowRate,
		OxygenSaturation:          state.OxygenSaturation,
		UltrafiltrationAdjustment: ufAdj,
		PumpAdjustment:            pumpAdj,
		OxygenAdjustment:          o2Adj,
		Leak:                      leak,
	}

	l.InvokeHook(sim.HookCtx{
		Domain: l,
		Pos:    HookPosCycleEnd,
		Item:   snapshot,
		Detail: l.ControllerStatuses(),
	})

	if l.display != nil {
		l.display.Show(snapshot)
	}

	return snapshot
}

// Cycles returns the number of cycles run so far.
func (l *ControlLoop) Cycles() int {
	return l.cycles
}

// MaxCycles returns the cycle budget.
func (l *ControlLoop) MaxCycles() int {
	return l.maxCycles
}

// Status returns the state of the loop.
func (l *ControlLoop) Status() Status {
	return l.status
}

// Controllers returns the pressure, flow rate and oxygen controllers.
func (l *ControlLoop) Controllers() []*pid.Controller {
	return []*pid.Controller{l.pressure, l.flowRate, l.oxygen}
}

// ControllerStatuses reports the memory of every controller.
func (l *ControlLoop) ControllerStatuses() []ControllerStatus {
	statuses := make([]ControllerStatus, 0, 3)
	for _, c := range l.Controllers() {
		statuses = append(statuses, ControllerStatus{
			Name:     c.Name(),
			Setpoint: c.Setpoint(),
			Gains:    c.Gains(),
			State:    c.State(),
		})
	}

	return statuses
}
