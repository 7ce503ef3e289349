package detector

import (
	"context"
	"math"
)

const minHazardRate = 0.001

// DetectChangepointsBayesian keeps the older rate based interface: a
// hazard rate of h corresponds to an expected run length of 1/h. The
// result carries no cost.
func DetectChangepointsBayesian(values []float64, hazardRate float64) (ChangepointResult, error) {
	result, err := DetectChangepointsBOCPD(values, hazardLambdaForRate(hazardRate), false)
	if err != nil {
		return ChangepointResult{}, err
	}

	return ChangepointResult{Changepoints: result.Changepoints}, nil
}

func hazardLambdaForRate(rate float64) float64 { return 1 / math.Max(rate, minHazardRate) }

func NewBayesianDetector(hazardRate float64) ChangeDetector {
	return &bayesianDetector{
		hazardRate: hazardRate,
		info: AlgorithmInfo{
			Name:    "bayesian",
			Version: 1,
			Options: []AlgorithmOption{
				{
					Name:  "hazard_rate",
					Value: hazardRate,
				},
			},
		},
	}
}

type bayesianDetector struct {
	hazardRate float64
	info       AlgorithmInfo
}

func (d *bayesianDetector) Info() AlgorithmInfo { return d.info }

func (d *bayesianDetector) DetectChanges(_ context.Context, series []float64) ([]ChangePoint, error) {
	result, err := DetectChangepointsBayesian(series, d.hazardRate)
	if err != nil {
		return nil, err
	}

	out := make([]ChangePoint, 0, len(result.Changepoints))
	for _, idx := range result.Changepoints {
		out = append(out, ChangePoint{
			Index: idx,
			Info:  d.info,
		})
	}
	return out, nil
}
