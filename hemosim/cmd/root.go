// Package cmd provides the command-line interface of hemosim.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// NewRootCmd creates the hemosim command. Flag defaults come from opts.
func NewRootCmd(runner *Runner, opts Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hemosim",
		Short: "Simulate a hemodialysis machine regulated by PID controllers.",
		Long: `hemosim runs the control loop of a dialysis machine. Three PID ` +
			`controllers keep the blood pressure, the blood flow rate and the ` +
			`oxygen saturation of a simulated patient at their setpoints until ` +
			`the session completes or a blood leak stops the machine.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := runner.Run(opts)
			return err
		},
	}

	f := cmd.Flags()
	f.Int64Var(&opts.Seed, "seed", opts.Seed,
		"random seed, 0 picks one from the clock")
	f.IntVar(&opts.MaxCycles, "max-cycles", opts.MaxCycles,
		"number of control cycles in a session")
	f.Float64Var(&opts.LeakProbability, "leak-probability",
		opts.LeakProbability, "chance of detecting a blood leak per cycle")
	f.BoolVar(&opts.Headless, "headless", opts.Headless,
		"run without the terminal display")
	f.DurationVar(&opts.Pacing, "pacing", opts.Pacing,
		"wall-clock delay after each displayed cycle")
	f.BoolVar(&opts.Cadence, "cadence", opts.Cadence,
		"keep displayed cycles at a steady 200ms instead of a fixed delay")
	f.BoolVar(&opts.Record, "record", opts.Record,
		"record every cycle into a SQLite database")
	f.StringVar(&opts.RecordPath, "record-path", opts.RecordPath,
		"database path without the .sqlite3 extension")
	f.BoolVar(&opts.Monitor, "monitor", opts.Monitor,
		"serve the monitoring API and dashboard")
	f.IntVar(&opts.MonitorPort, "monitor-port", opts.MonitorPort,
		"port of the monitoring server, 0 picks a free one")
	f.BoolVar(&opts.OpenBrowser, "open-browser", opts.OpenBrowser,
		"open the dashboard in a browser")
	f.BoolVar(&opts.LogEvents, "log-events", opts.LogEvents,
		"log every engine event to stderr (headless only)")
	f.BoolVar(&opts.Quiet, "quiet", opts.Quiet,
		"do not print the per-cycle console trace")

	return cmd
}

// Execute runs the root command and exits the process.
func Execute() {
	opts := DefaultOptions()

	err := loadEnvDefaults(&opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	rootCmd := NewRootCmd(NewRunner(os.Stdout, os.Stderr), opts)

	err = rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
