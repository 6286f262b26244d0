package simulation

import (
	"github.com/rs/xid"

	"github.com/sarchlab/hemosim/datarecording"
	"github.com/sarchlab/hemosim/monitoring"
	"github.com/sarchlab/hemosim/sim"
)

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn      bool
	monitorPort    int
	recordingOn    bool
	outputFileName string
	seed           int64
}

// MakeBuilder creates a new builder. Monitoring and recording are off.
func MakeBuilder() Builder {
	return Builder{}
}

// WithMonitoring turns on the monitoring server.
func (b Builder) WithMonitoring() Builder {
	b.monitorOn = true
	return b
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithRecording turns on recording of every cycle into a SQLite database.
func (b Builder) WithRecording() Builder {
	b.recordingOn = true
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
// The ".sqlite3" extension is appended.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithSeed sets the random seed written into the run summary.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if !b.recordingOn && b.outputFileName != "" {
		panic("output file cannot be set when recording is disabled")
	}
}

// Build builds the simulation. It fails if the recording file cannot be
// created or the monitoring server cannot listen.
func (b Builder) Build() (*Simulation, error) {
	b.parametersMustBeValid()

	s := &Simulation{
		id:            xid.New().String(),
		seed:          b.seed,
		engine:        sim.NewSerialEngine(),
		compNameIndex: make(map[string]int),
	}

	if b.recordingOn {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "hemosim_" + s.id
		}

		recorder, err := datarecording.New(outputPath)
		if err != nil {
			return nil, err
		}

		s.dataRecorder = recorder
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor().WithPortNumber(b.monitorPort)
		s.monitor.RegisterEngine(s.engine)

		url, err := s.monitor.StartServer()
		if err != nil {
			s.closeRecorder()
			return nil, err
		}

		s.monitorURL = url
	}

	return s, nil
}
