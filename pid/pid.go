// Package pid provides the proportional-integral-derivative controller that
// regulates each control variable of the dialysis machine.
package pid

import "fmt"

// Setpoints of the three regulated variables.
const (
	PressureSetpoint         = 120.0 // mmHg
	FlowRateSetpoint         = 300.0 // mL/min
	OxygenSaturationSetpoint = 95.0  // %
)

// Gains holds the proportional, integral and derivative gains.
type Gains struct {
	Kp float64
	Ki float64
	Kd float64
}

// DefaultGains are the placeholder gains shared by all three controllers.
var DefaultGains = Gains{Kp: 0.1, Ki: 0.05, Kd: 0.01}

// State is the internal memory of a controller.
type State struct {
	ErrorSum      float64
	PreviousError float64
}

// A Controller maps one measurement to one corrective adjustment. It is
// stateful: every Step call advances the integral and derivative terms, so it
// must be called exactly once per cycle.
//
// The integral term is not bounded and the output is not clamped.
type Controller struct {
	name     string
	setpoint float64
	gains    Gains
	state    State
}

// New creates a controller with zeroed state.
func New(name string, setpoint float64, gains Gains) *Controller {
	return &Controller{
		name:     name,
		setpoint: setpoint,
		gains:    gains,
	}
}

// NewPressureController creates the blood pressure controller.
func NewPressureController(gains Gains) *Controller {
	return New("BloodPressure", PressureSetpoint, gains)
}

// NewFlowRateController creates the blood flow rate controller.
func NewFlowRateController(gains Gains) *Controller {
	return New("BloodFlowRate", FlowRateSetpoint, gains)
}

// NewOxygenSaturationController creates the oxygen saturation controller.
func NewOxygenSaturationController(gains Gains) *Controller {
	return New("OxygenSaturation", OxygenSaturationSetpoint, gains)
}

// Step feeds one measurement into the controller and returns the adjustment.
func (c *Controller) Step(measurement float64) float64 {
	err := c.setpoint - measurement
	c.state.ErrorSum += err
	dErr := err - c.state.PreviousError
	c.state.PreviousError = err

	return c.gains.Kp*err + c.gains.Ki*c.state.ErrorSum + c.gains.Kd*dErr
}

// Name returns the name of the regulated variable.
func (c *Controller) Name() string {
	return c.name
}

// Setpoint returns the target value.
func (c *Controller) Setpoint() float64 {
	return c.setpoint
}

// Gains returns the gains of the controller.
func (c *Controller) Gains() Gains {
	return c.gains
}

// State returns a copy of the controller memory.
func (c *Controller) State() State {
	return c.state
}

func (c *Controller) String() string {
	return fmt.Sprintf("%s SP:%g Kp:%g Ki:%g Kd:%g ErrSum:%g PrevErr:%g",
		c.name, c.setpoint, c.gains.Kp, c.gains.Ki, c.gains.Kd,
		c.state.ErrorSum, c.state.PreviousError)
}
