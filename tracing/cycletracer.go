// Package tracing stores the history of a dialysis run into a data recorder.
package tracing

import (
	"github.com/sarchlab/hemosim/datarecording"
	"github.com/sarchlab/hemosim/dialysis"
	"github.com/sarchlab/hemosim/sim"
)

// Table names used by the CycleTracer.
const (
	RunTable     = "runs"
	CycleTable   = "cycles"
	ReadingTable = "readings"
)

type runEntry struct {
	RunID     string
	Seed      int64
	MaxCycles int
	Cycles    int
	Status    string
	Success   bool
	EndTime   float64
}

type cycleEntry struct {
	RunID                     string
	Sequence                  int
	Time                      float64
	Pressure                  float64
	FlowRate                  float64
	OxygenSaturation          float64
	UltrafiltrationAdjustment float64
	PumpAdjustment            float64
	OxygenAdjustment          float64
	PressureErrorSum          float64
	FlowRateErrorSum          float64
	OxygenErrorSum            float64
	Leak                      bool
}

type readingEntry struct {
	RunID       string
	Sequence    int
	Variable    string
	Measurement float64
	Adjustment  float64
}

// RunReporter tells how a control loop ended.
type RunReporter interface {
	Cycles() int
	MaxCycles() int
	Status() dialysis.Status
}

// CycleTracer is a hook on the control loop that records every reading and
// every cycle. Registered as a simulation end handler, it also records the
// run summary.
type CycleTracer struct {
	runID    string
	seed     int64
	recorder datarecording.DataRecorder
	reporter RunReporter
}

// NewCycleTracer creates the tracer tables in the recorder.
func NewCycleTracer(
	recorder datarecording.DataRecorder,
	reporter RunReporter,
	seed int64,
) *CycleTracer {
	recorder.CreateTable(RunTable, runEntry{})
	recorder.CreateTable(CycleTable, cycleEntry{})
	recorder.CreateTable(ReadingTable, readingEntry{})

	return &CycleTracer{
		runID:    sim.GetIDGenerator().Generate(),
		seed:     seed,
		recorder: recorder,
		reporter: reporter,
	}
}

// RunID returns the identifier written in every row of this run.
func (t *CycleTracer) RunID() string {
	return t.runID
}

// Func records the hook item.
func (t *CycleTracer) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case dialysis.HookPosReading:
		t.recordReading(ctx.Item.(dialysis.Reading))
	case dialysis.HookPosCycleEnd:
		statuses, _ := ctx.Detail.([]dialysis.ControllerStatus)
		t.recordCycle(ctx.Item.(dialysis.CycleSnapshot), statuses)
	}
}

func (t *CycleTracer) recordReading(r dialysis.Reading) {
	t.recorder.InsertData(ReadingTable, readingEntry{
		RunID:       t.runID,
		Sequence:    r.Sequence,
		Variable:    r.Variable.String(),
		Measurement: r.Measurement,
		Adjustment:  r.Adjustment,
	})
}

func (t *CycleTracer) recordCycle(
	s dialysis.CycleSnapshot,
	statuses []dialysis.ControllerStatus,
) {
	entry := cycleEntry{
		RunID:                     t.runID,
		Sequence:                  s.Sequence,
		Time:                      float64(s.Time),
		Pressure:                  s.Pressure,
		FlowRate:                  s.FlowRate,
		OxygenSaturation:          s.OxygenSaturation,
		UltrafiltrationAdjustment: s.UltrafiltrationAdjustment,
		PumpAdjustment:            s.PumpAdjustment,
		OxygenAdjustment:          s.OxygenAdjustment,
		Leak:                      s.Leak,
	}

	if len(statuses) == 3 {
		entry.PressureErrorSum = statuses[0].State.ErrorSum
		entry.FlowRateErrorSum = statuses[1].State.ErrorSum
		entry.OxygenErrorSum = statuses[2].State.ErrorSum
	}

	t.recorder.InsertData(CycleTable, entry)
}

// Handle records the run summary and flushes the recorder.
func (t *CycleTracer) Handle(now sim.VTimeInSec) {
	status := t.reporter.Status()

	t.recorder.InsertData(RunTable, runEntry{
		RunID:     t.runID,
		Seed:      t.seed,
		MaxCycles: t.reporter.MaxCycles(),
		Cycles:    t.reporter.Cycles(),
		Status:    status.String(),
		Success:   status == dialysis.StatusCompleted,
		EndTime:   float64(now),
	})

	t.recorder.Flush()
}
