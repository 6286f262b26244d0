// Package patient simulates the patient and the dialysis machine that the
// controllers regulate: noisy sensor readings, actuator effects and the blood
// leak fault.
package patient

import (
	"math/rand"

	"github.com/sarchlab/hemosim/pid"
)

// MaxOxygenSaturation is the physical upper bound of oxygen saturation.
const MaxOxygenSaturation = 100.0

// Actuator scale factors.
const (
	UltrafiltrationEffect = 0.05
	BloodPumpEffect       = 1.0
	OxygenDeliveryEffect  = 0.02
)

// State is the simulated patient and machine state.
type State struct {
	Pressure         float64 // mmHg
	FlowRate         float64 // mL/min
	OxygenSaturation float64 // %
}

// NominalState places every variable at its setpoint.
var NominalState = State{
	Pressure:         pid.PressureSetpoint,
	FlowRate:         pid.FlowRateSetpoint,
	OxygenSaturation: pid.OxygenSaturationSetpoint,
}

// NoiseBounds holds the half-width of the uniform perturbation added on each
// read.
type NoiseBounds struct {
	Pressure         float64
	FlowRate         float64
	OxygenSaturation float64
}

// DefaultNoise is the physiological noise of the simulated patient.
var DefaultNoise = NoiseBounds{
	Pressure:         1.0,
	FlowRate:         5.0,
	OxygenSaturation: 0.5,
}

// Model owns the process state. Reading a variable perturbs the stored value
// itself, so the measurement drifts instead of being observed independently.
type Model struct {
	rng   *rand.Rand
	state State
	noise NoiseBounds
	leak  LeakSensor
}

// ReadPressure perturbs and returns the blood pressure.
func (m *Model) ReadPressure() float64 {
	m.state.Pressure += m.uniform(m.noise.Pressure)
	return m.state.Pressure
}

// ReadFlowRate perturbs and returns the blood flow rate.
func (m *Model) ReadFlowRate() float64 {
	m.state.FlowRate += m.uniform(m.noise.FlowRate)
	return m.state.FlowRate
}

// ReadOxygenSaturation perturbs and returns the oxygen saturation, never above
// MaxOxygenSaturation.
func (m *Model) ReadOxygenSaturation() float64 {
	m.state.OxygenSaturation += m.uniform(m.noise.OxygenSaturation)
	if m.state.OxygenSaturation > MaxOxygenSaturation {
		m.state.OxygenSaturation = MaxOxygenSaturation
	}

	return m.state.OxygenSaturation
}

// DetectLeak asks the leak sensor whether blood is leaking.
func (m *Model) DetectLeak() bool {
	return m.leak.DetectLeak()
}

// ApplyUltrafiltrationRate changes the ultrafiltration rate, which moves the
// blood pressure.
func (m *Model) ApplyUltrafiltrationRate(adjustment float64) {
	m.state.Pressure += adjustment * UltrafiltrationEffect
}

// ApplyBloodPumpRate changes the blood pump rate, which moves the flow rate.
func (m *Model) ApplyBloodPumpRate(adjustment float64) {
	m.state.FlowRate += adjustment * BloodPumpEffect
}

// ApplyOxygenDelivery changes the oxygen delivered through the nasal cannula.
func (m *Model) ApplyOxygenDelivery(adjustment float64) {
	m.state.OxygenSaturation += adjustment * OxygenDeliveryEffect
}

// State returns a copy of the current state.
func (m *Model) State() State {
	return m.state
}

func (m *Model) uniform(halfWidth float64) float64 {
	if halfWidth == 0 {
		return 0
	}

	return -halfWidth + m.rng.Float64()*2*halfWidth
}
