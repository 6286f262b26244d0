package patient

import (
	"math/rand"
	"time"
)

// Builder can build process models.
type Builder struct {
	rng             *rand.Rand
	initialState    State
	noise           NoiseBounds
	leakProbability float64
	leakSensor      LeakSensor
}

// MakeBuilder creates a builder with the default patient: nominal state,
// default noise and default leak probability.
func MakeBuilder() Builder {
	return Builder{
		initialState:    NominalState,
		noise:           DefaultNoise,
		leakProbability: DefaultLeakProbability,
	}
}

// WithRand sets the random source shared by the noise and the leak sensor.
func (b Builder) WithRand(rng *rand.Rand) Builder {
	b.rng = rng
	return b
}

// WithSeed seeds a new random source.
func (b Builder) WithSeed(seed int64) Builder {
	b.rng = rand.New(rand.NewSource(seed))
	return b
}

// WithInitialState sets the state at the start of the run.
func (b Builder) WithInitialState(s State) Builder {
	b.initialState = s
	return b
}

// WithNoise sets the read noise.
func (b Builder) WithNoise(n NoiseBounds) Builder {
	b.noise = n
	return b
}

// WithoutNoise disables the read noise.
func (b Builder) WithoutNoise() Builder {
	b.noise = NoiseBounds{}
	return b
}

// WithLeakProbability sets the chance of a leak in each cycle.
func (b Builder) WithLeakProbability(p float64) Builder {
	b.leakProbability = p
	return b
}

// WithLeakSensor replaces the random leak sensor.
func (b Builder) WithLeakSensor(s LeakSensor) Builder {
	b.leakSensor = s
	return b
}

// Build creates the model. Without an explicit random source, one is seeded
// from the wall clock.
func (b Builder) Build() *Model {
	rng := b.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	leak := b.leakSensor
	if leak == nil {
		leak = NewRandomLeakSensor(rng, b.leakProbability)
	}

	return &Model{
		rng:   rng,
		state: b.initialState,
		noise: b.noise,
		leak:  leak,
	}
}
