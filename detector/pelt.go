package detector

import (
	"context"
	"math"
	"sort"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
)

// NewPELTDetector segments series with the Pruned Exact Linear Time
// algorithm. A nil penalty selects the BIC-style default of 2*ln(n).
func NewPELTDetector(minSize int, penalty *float64, cost CostModel) ChangeDetector {
	var penaltyOpt interface{} = "default"
	if penalty != nil {
		penaltyOpt = *penalty
	}

	return &peltDetector{
		minSize: minSize,
		penalty: penalty,
		cost:    cost,
		info: AlgorithmInfo{
			Name:    "pelt",
			Version: 1,
			Options: []AlgorithmOption{
				{
					Name:  "min_size",
					Value: minSize,
				},
				{
					Name:  "penalty",
					Value: penaltyOpt,
				},
				{
					Name:  "cost",
					Value: cost.String(),
				},
			},
		},
	}
}

type peltDetector struct {
	minSize int
	penalty *float64
	cost    CostModel
	info    AlgorithmInfo
}

func (d *peltDetector) Info() AlgorithmInfo { return d.info }

func (d *peltDetector) DetectChanges(_ context.Context, series []float64) ([]ChangePoint, error) {
	result, err := DetectChangepoints(series, d.minSize, d.penalty, d.cost)
	if err != nil {
		return nil, err
	}

	grip.Debug(message.Fields{
		"message":      "completed pelt segmentation",
		"algorithm":    d.info.Name,
		"cost":         d.cost.String(),
		"min_size":     d.minSize,
		"num_points":   len(series),
		"changepoints": len(result.Changepoints),
		"total_cost":   result.Cost,
	})

	out := make([]ChangePoint, 0, len(result.Changepoints))
	for _, idx := range result.Changepoints {
		out = append(out, ChangePoint{
			Index: idx,
			Info:  d.info,
		})
	}
	return out, nil
}

// DetectChangepoints computes the minimum cost partition of values into
// segments of at least minSize observations, charging penalty for every
// changepoint. Series shorter than two minimum sized segments produce
// an empty result rather than an error.
func DetectChangepoints(values []float64, minSize int, penalty *float64, cost CostModel) (ChangepointResult, error) {
	if minSize < 1 {
		minSize = 1
	}

	n := len(values)
	if n < 2*minSize {
		return ChangepointResult{Changepoints: []int{}}, nil
	}

	pen := 2 * math.Log(float64(n))
	if penalty != nil {
		pen = *penalty
	}

	// the pruning inequality only holds for a non-negative penalty
	return segment(values, minSize, pen, cost, pen >= 0), nil
}

// segment runs the optimal partitioning dynamic program. With prune
// unset every admissible start is considered at every step, which is
// quadratic but exact for any cost.
func segment(values []float64, minSize int, pen float64, cost CostModel, prune bool) ChangepointResult {
	n := len(values)

	// f[t] is the optimal penalized cost of values[:t]; last[t] is the
	// start of the final segment in that optimum.
	f := make([]float64, n+1)
	last := make([]int, n+1)
	f[0] = -pen

	candidates := []int{0}
	scores := make([]float64, 0, n)

	for end := minSize; end <= n; end++ {
		best := math.Inf(1)
		bestStart := 0

		scores = scores[:0]
		for _, start := range candidates {
			if start+minSize > end {
				// too recent to close a segment, carried forward as is
				scores = append(scores, math.Inf(-1))
				continue
			}

			score := f[start] + cost.Evaluate(values, start, end)
			scores = append(scores, score)
			if score+pen < best {
				best = score + pen
				bestStart = start
			}
		}

		f[end] = best
		last[end] = bestStart

		if !prune {
			candidates = append(candidates, end)
			continue
		}

		kept := candidates[:0]
		for i, start := range candidates {
			if scores[i] <= best {
				kept = append(kept, start)
			}
		}
		candidates = append(kept, end)
	}

	changepoints := []int{}
	for at := n; at > 0; at = last[at] {
		if last[at] != 0 {
			changepoints = append(changepoints, last[at])
		}
	}
	sort.Ints(changepoints)

	return ChangepointResult{
		Changepoints: changepoints,
		Cost:         f[n],
	}
}
