package dialysis

import "time"

const (
	// NominalCadence is the intended wall-clock duration of one cycle.
	NominalCadence = 200 * time.Millisecond

	// DefaultPacingDelay is the fixed wait after each displayed cycle. It is
	// shorter than NominalCadence to leave room for the cycle itself.
	DefaultPacingDelay = 150 * time.Millisecond
)

// A Pacer slows the loop down to wall-clock time.
type Pacer interface {
	Pace()
}

// NoPacing runs the loop at full speed.
type NoPacing struct{}

// Pace returns immediately.
func (NoPacing) Pace() {}

// FixedDelay waits the same duration after every cycle.
type FixedDelay struct {
	Delay time.Duration
}

// Pace sleeps for the delay.
func (p FixedDelay) Pace() {
	time.Sleep(p.Delay)
}

// CadencePacer sleeps until one period has passed since the previous Pace, so
// the time spent in the cycle is absorbed into the period.
type CadencePacer struct {
	Period time.Duration

	now   func() time.Time
	sleep func(time.Duration)
	last  time.Time
}

// NewCadencePacer creates a pacer that targets the given period.
func NewCadencePacer(period time.Duration) *CadencePacer {
	return &CadencePacer{
		Period: period,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Pace waits for the rest of the period. If the cycle overran the period, it
// does not wait and restarts the period from now.
func (p *CadencePacer) Pace() {
	now := p.now()
	if p.last.IsZero() {
		p.last = now
	}

	deadline := p.last.Add(p.Period)
	if wait := deadline.Sub(now); wait > 0 {
		p.sleep(wait)
		p.last = deadline

		return
	}

	p.last = now
}
