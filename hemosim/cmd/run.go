package cmd

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/pkg/browser"

	"github.com/sarchlab/hemosim/dialysis"
	"github.com/sarchlab/hemosim/display"
	"github.com/sarchlab/hemosim/patient"
	"github.com/sarchlab/hemosim/sim"
	"github.com/sarchlab/hemosim/simulation"
)

// Screen is the display sink used by the runner.
type Screen interface {
	dialysis.Display
	WaitForDismiss()
	Close()
}

// A Runner runs the simulation and reports to the console.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer

	NewScreen func() (Screen, error)
	OpenURL   func(url string) error
	Now       func() time.Time
}

// NewRunner creates a Runner on the terminal.
func NewRunner(stdout, stderr io.Writer) *Runner {
	return &Runner{
		Stdout: stdout,
		Stderr: stderr,
		NewScreen: func() (Screen, error) {
			s, err := display.NewScreen()
			if err != nil {
				return nil, err
			}

			return s, nil
		},
		OpenURL: browser.OpenURL,
		Now:     time.Now,
	}
}

// Run runs one simulation. It returns true if the dialysis completed and
// false if a leak stopped it.
func (r *Runner) Run(opts Options) (bool, error) {
	err := opts.validate()
	if err != nil {
		return false, err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = r.Now().UnixNano()
	} else {
		sim.UseSequentialIDGenerator()
	}

	fmt.Fprintln(r.Stdout, "*** Starting dialysis process simulation. ***")

	screen := r.openScreen(opts)

	s, err := r.buildSimulation(opts, seed)
	if err != nil {
		if screen != nil {
			screen.Close()
		}

		return false, err
	}

	loop := r.buildLoop(opts, s, seed, screen)
	r.openMonitor(opts, s)

	success, runErr := loop.Run()

	if runErr == nil {
		r.printResult(success)
	}

	if screen != nil {
		screen.WaitForDismiss()
	}

	termErr := s.Terminate()

	if runErr != nil {
		return false, runErr
	}

	if termErr != nil {
		return false, termErr
	}

	return success, nil
}

func (r *Runner) printResult(success bool) {
	if success {
		fmt.Fprintln(r.Stdout,
			"*** Dialysis process simulation completed successfully. ***")
	} else {
		fmt.Fprintln(r.Stdout,
			"*** Dialysis process simulation ended abnormally. ***")
	}
}

func (r *Runner) openScreen(opts Options) Screen {
	if opts.Headless {
		return nil
	}

	screen, err := r.NewScreen()
	if err != nil {
		fmt.Fprintf(r.Stderr, "Display unavailable, running headless: %v\n", err)
		return nil
	}

	return screen
}

func (r *Runner) buildSimulation(
	opts Options,
	seed int64,
) (*simulation.Simulation, error) {
	b := simulation.MakeBuilder().WithSeed(seed)

	if opts.Record {
		b = b.WithRecording().WithOutputFileName(opts.RecordPath)
	}

	if opts.Monitor {
		b = b.WithMonitoring().WithMonitorPort(opts.MonitorPort)
	}

	return b.Build()
}

// buildLoop creates the patient and the control loop. The console trace is
// only attached when the terminal is not taken by the display.
func (r *Runner) buildLoop(
	opts Options,
	s *simulation.Simulation,
	seed int64,
	screen Screen,
) *dialysis.ControlLoop {
	plant := patient.MakeBuilder().
		WithSeed(seed).
		WithLeakProbability(opts.LeakProbability).
		Build()

	b := dialysis.MakeBuilder().
		WithEngine(s.GetEngine()).
		WithPlant(plant).
		WithMaxCycles(opts.MaxCycles)

	if screen != nil {
		b = b.WithDisplay(screen).WithPacer(opts.pacer())
	}

	loop := b.Build("Dialysis")
	s.RegisterLoop(loop)

	if screen != nil {
		return loop
	}

	if !opts.Quiet {
		loop.AcceptHook(dialysis.NewCycleLogger(log.New(r.Stdout, "", 0)))
	}

	if opts.LogEvents {
		s.GetEngine().AcceptHook(sim.NewEventLogger(log.New(r.Stderr, "", 0)))
	}

	return loop
}

func (r *Runner) openMonitor(opts Options, s *simulation.Simulation) {
	if !opts.OpenBrowser || s.MonitorURL() == "" {
		return
	}

	err := r.OpenURL(s.MonitorURL())
	if err != nil {
		fmt.Fprintf(r.Stderr, "Cannot open browser: %v\n", err)
	}
}
