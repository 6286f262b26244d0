// Package simulation wires the engine, the data recorder, the tracer and the
// monitor around the dialysis control loop.
package simulation

import (
	"context"
	"errors"
	"time"

	"github.com/sarchlab/hemosim/datarecording"
	"github.com/sarchlab/hemosim/dialysis"
	"github.com/sarchlab/hemosim/monitoring"
	"github.com/sarchlab/hemosim/sim"
	"github.com/sarchlab/hemosim/tracing"
)

const shutdownTimeout = time.Second

// A Simulation provides the services a dialysis run needs.
type Simulation struct {
	id   string
	seed int64

	engine       *sim.SerialEngine
	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor
	monitorURL   string
	tracers      []*tracing.CycleTracer

	components    []sim.Component
	compNameIndex map[string]int

	terminated bool
}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() sim.Engine {
	return s.engine
}

// GetDataRecorder returns the data recorder, or nil when recording is off.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor, or nil when monitoring is off.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorURL returns the address of the monitoring server, if any.
func (s *Simulation) MonitorURL() string {
	return s.monitorURL
}

// Tracers returns the cycle tracers attached to registered loops.
func (s *Simulation) Tracers() []*tracing.CycleTracer {
	return s.tracers
}

// RegisterComponent registers a component with the simulation.
func (s *Simulation) RegisterComponent(c sim.Component) {
	compName := c.Name()
	if _, found := s.compNameIndex[compName]; found {
		panic("component " + compName + " already registered")
	}

	s.components = append(s.components, c)
	s.compNameIndex[compName] = len(s.components) - 1
}

// RegisterLoop registers a control loop and attaches the tracer and the
// monitor when they are enabled.
func (s *Simulation) RegisterLoop(l *dialysis.ControlLoop) {
	s.RegisterComponent(l)

	if s.dataRecorder != nil {
		tracer := tracing.NewCycleTracer(s.dataRecorder, l, s.seed)
		l.AcceptHook(tracer)
		s.engine.RegisterSimulationEndHandler(tracer)
		s.tracers = append(s.tracers, tracer)
	}

	if s.monitor != nil {
		s.monitor.RegisterLoop(l)
	}
}

// GetComponentByName returns the component with the given name, or nil.
func (s *Simulation) GetComponentByName(name string) sim.Component {
	i, found := s.compNameIndex[name]
	if !found {
		return nil
	}

	return s.components[i]
}

// Components returns all the registered components.
func (s *Simulation) Components() []sim.Component {
	return s.components
}

// Terminate notifies the end handlers, closes the recorder and stops the
// monitoring server. Calling it more than once has no effect.
func (s *Simulation) Terminate() error {
	if s.terminated {
		return nil
	}

	s.terminated = true
	s.engine.Finished()

	var errs []error
	errs = append(errs, s.closeRecorder())

	if s.monitor != nil {
		ctx, cancel := context.WithTimeout(
			context.Background(), shutdownTimeout)
		defer cancel()

		errs = append(errs, s.monitor.StopServer(ctx))
	}

	return errors.Join(errs...)
}

func (s *Simulation) closeRecorder() error {
	if s.dataRecorder == nil {
		return nil
	}

	return s.dataRecorder.Close()
}
