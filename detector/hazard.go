package detector

import "math"

// Hazard gives the prior probability that a changepoint occurs after a
// run of the given length.
type Hazard interface {
	Probability(runLength int) float64
}

// ConstantHazard is a memoryless hazard, equivalent to a geometric prior
// on run lengths with mean Lambda. Values of Lambda below one are
// treated as one.
type ConstantHazard struct {
	Lambda float64
}

func (h ConstantHazard) Probability(int) float64 { return 1 / math.Max(h.Lambda, 1) }

// LogisticHazard lets the changepoint rate depend on the current run
// length: sigmoid(H + A*(r - B)), bounded to [1e-6, 0.999].
type LogisticHazard struct {
	H float64
	A float64
	B float64
}

func (h LogisticHazard) Probability(runLength int) float64 {
	logit := h.H + h.A*(float64(runLength)-h.B)
	p := 1 / (1 + math.Exp(-logit))
	return math.Min(math.Max(p, 1e-6), 0.999)
}
