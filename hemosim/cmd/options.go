package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/sarchlab/hemosim/dialysis"
	"github.com/sarchlab/hemosim/patient"
)

// Environment variables that provide defaults for the ambient flags.
const (
	EnvRecordPath  = "HEMOSIM_RECORD_PATH"
	EnvMonitorPort = "HEMOSIM_MONITOR_PORT"
	EnvPacing      = "HEMOSIM_PACING"
	EnvHeadless    = "HEMOSIM_HEADLESS"
)

// Options configures one run of the command.
type Options struct {
	Seed            int64
	MaxCycles       int
	LeakProbability float64

	Headless bool
	Pacing   time.Duration
	Cadence  bool

	Record     bool
	RecordPath string

	Monitor     bool
	MonitorPort int
	OpenBrowser bool

	LogEvents bool
	Quiet     bool
}

// DefaultOptions reproduces a run with no flags.
func DefaultOptions() Options {
	return Options{
		MaxCycles:       dialysis.DefaultMaxCycles,
		LeakProbability: patient.DefaultLeakProbability,
		Pacing:          dialysis.DefaultPacingDelay,
	}
}

// loadEnvDefaults reads an optional .env file and overrides the ambient
// defaults with the HEMOSIM_* variables.
func loadEnvDefaults(o *Options, files ...string) error {
	err := godotenv.Load(files...)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	if v, ok := os.LookupEnv(EnvRecordPath); ok && v != "" {
		o.RecordPath = v
	}

	if v, ok := os.LookupEnv(EnvMonitorPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMonitorPort, err)
		}

		o.MonitorPort = port
	}

	if v, ok := os.LookupEnv(EnvPacing); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPacing, err)
		}

		o.Pacing = d
	}

	if v, ok := os.LookupEnv(EnvHeadless); ok && v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHeadless, err)
		}

		o.Headless = headless
	}

	return nil
}

func (o Options) validate() error {
	if o.MaxCycles <= 0 {
		return fmt.Errorf("max cycles must be positive, got %d", o.MaxCycles)
	}

	if o.LeakProbability < 0 || o.LeakProbability > 1 {
		return fmt.Errorf("leak probability must be within [0, 1], got %g",
			o.LeakProbability)
	}

	if o.Pacing < 0 {
		return fmt.Errorf("pacing must not be negative, got %s", o.Pacing)
	}

	if o.MonitorPort < 0 || o.MonitorPort > 65535 {
		return fmt.Errorf("invalid monitor port %d", o.MonitorPort)
	}

	if o.OpenBrowser && !o.Monitor {
		return errors.New("--open-browser requires --monitor")
	}

	return nil
}

func (o Options) pacer() dialysis.Pacer {
	switch {
	case o.Cadence:
		return dialysis.NewCadencePacer(dialysis.NominalCadence)
	case o.Pacing == 0:
		return dialysis.NoPacing{}
	default:
		return dialysis.FixedDelay{Delay: o.Pacing}
	}
}
