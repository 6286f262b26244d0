package patient

import "math/rand"

// DefaultLeakProbability is the chance of detecting a blood leak in one cycle.
const DefaultLeakProbability = 0.001

// A LeakSensor reports whether a blood leak is present.
type LeakSensor interface {
	DetectLeak() bool
}

// LeakSensorFunc adapts a plain function into a LeakSensor.
type LeakSensorFunc func() bool

// DetectLeak calls f().
func (f LeakSensorFunc) DetectLeak() bool {
	return f()
}

// RandomLeakSensor reports a leak with a fixed probability on each call,
// independent of previous calls.
type RandomLeakSensor struct {
	rng         *rand.Rand
	probability float64
}

// NewRandomLeakSensor creates a RandomLeakSensor that draws from rng.
func NewRandomLeakSensor(rng *rand.Rand, probability float64) *RandomLeakSensor {
	if probability < 0 || probability > 1 {
		panic("leak probability must be within [0, 1]")
	}

	return &RandomLeakSensor{rng: rng, probability: probability}
}

// DetectLeak draws once from the random source.
func (s *RandomLeakSensor) DetectLeak() bool {
	return s.rng.Float64() < s.probability
}
