package display

// HistorySize is the number of samples kept per variable for trend lines.
const HistorySize = 1000

// History is a fixed-size ring of the most recent samples.
type History struct {
	values [HistorySize]float64
	next   int
	count  int
}

// Push appends a sample, dropping the oldest one when full.
func (h *History) Push(v float64) {
	h.values[h.next] = v
	h.next = (h.next + 1) % HistorySize

	if h.count < HistorySize {
		h.count++
	}
}

// Len returns the number of samples stored.
func (h *History) Len() int {
	return h.count
}

// Last returns up to n most recent samples, oldest first.
func (h *History) Last(n int) []float64 {
	if n > h.count {
		n = h.count
	}

	if n <= 0 {
		return nil
	}

	out := make([]float64, n)
	start := (h.next - n + HistorySize) % HistorySize
	for i := 0; i < n; i++ {
		out[i] = h.values[(start+i)%HistorySize]
	}

	return out
}

// Range is the fixed vertical range of a trend line.
type Range struct {
	Min float64
	Max float64
}

// Plot ranges of the three variables.
var (
	PressureRange         = Range{Min: 50, Max: 200}
	FlowRateRange         = Range{Min: 250, Max: 350}
	OxygenSaturationRange = Range{Min: 80, Max: 100}
)

// level maps v into [0, levels), clamping values outside the range.
func (r Range) level(v float64, levels int) int {
	if v <= r.Min {
		return 0
	}

	if v >= r.Max {
		return levels - 1
	}

	return int((v - r.Min) / (r.Max - r.Min) * float64(levels-1))
}
