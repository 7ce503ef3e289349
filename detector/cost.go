package detector

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// CostModel selects the segment cost used by the PELT segmenter. Every
// model is a pure function of the values in the half open range
// [start, end).
type CostModel int

const (
	// CostL2 is the sum of squared deviations from the segment mean.
	CostL2 CostModel = iota
	// CostL1 is the sum of absolute deviations from the segment mean.
	CostL1
	// CostNormal is the Gaussian negative log-likelihood proxy
	// n*(1+ln(variance)), which is sensitive to changes in both mean
	// and variance.
	CostNormal
)

// CostModels returns every supported cost model.
func CostModels() []CostModel { return []CostModel{CostL1, CostL2, CostNormal} }

func (c CostModel) String() string {
	switch c {
	case CostL1:
		return "l1"
	case CostL2:
		return "l2"
	case CostNormal:
		return "normal"
	default:
		return "unknown"
	}
}

// ParseCostModel resolves a cost model by name. The empty string selects
// the default, L2.
func ParseCostModel(name string) (CostModel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "l2":
		return CostL2, nil
	case "l1":
		return CostL1, nil
	case "normal":
		return CostNormal, nil
	default:
		return CostL2, &InvalidParameterError{
			Param:  "cost",
			Value:  name,
			Reason: "must be one of 'l1', 'l2', or 'normal'",
		}
	}
}

// Evaluate returns the cost of modeling values[start:end] as a single
// segment. Empty ranges cost nothing.
func (c CostModel) Evaluate(values []float64, start, end int) float64 {
	if end <= start {
		return 0
	}

	segment := values[start:end]
	switch c {
	case CostL1:
		return costL1(segment)
	case CostNormal:
		return costNormal(segment)
	default:
		return costL2(segment)
	}
}

func costL2(segment []float64) float64 {
	mean := stat.Mean(segment, nil)

	var total float64
	for _, v := range segment {
		d := v - mean
		total += d * d
	}
	return total
}

func costL1(segment []float64) float64 {
	mean := stat.Mean(segment, nil)

	var total float64
	for _, v := range segment {
		total += math.Abs(v - mean)
	}
	return total
}

func costNormal(segment []float64) float64 {
	if len(segment) < 2 {
		return 0
	}

	_, variance := stat.PopMeanVariance(segment, nil)
	// constant segments would otherwise cost -Inf
	if variance <= epsilon {
		return 0
	}

	n := float64(len(segment))
	return n * (1 + math.Log(variance))
}

// epsilon is the difference between 1 and the next representable
// float64.
const epsilon = 2.220446049250313e-16
