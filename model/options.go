package model

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/evergreen-ci/changepoint/detector"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// AlgorithmName identifies one of the supported detectors.
type AlgorithmName string

const (
	AlgorithmPELT     AlgorithmName = "pelt"
	AlgorithmBOCPD    AlgorithmName = "bocpd"
	AlgorithmBayesian AlgorithmName = "bayesian"
)

func Algorithms() []AlgorithmName {
	return []AlgorithmName{AlgorithmPELT, AlgorithmBOCPD, AlgorithmBayesian}
}

func (a AlgorithmName) Validate() error {
	switch a {
	case AlgorithmPELT, AlgorithmBOCPD, AlgorithmBayesian:
		return nil
	default:
		return &detector.InvalidParameterError{
			Param:  "algorithm",
			Value:  string(a),
			Reason: "must be one of 'pelt', 'bocpd', or 'bayesian'",
		}
	}
}

const (
	DefaultMinSize    = 2
	DefaultHazardRate = 0.01
)

// DetectionOptions is the serializable configuration of a single
// detection. Only the fields relevant to Algorithm are consulted.
type DetectionOptions struct {
	Algorithm AlgorithmName `bson:"algorithm" json:"algorithm" yaml:"algorithm"`

	// PELT
	MinSize int      `bson:"min_size" json:"min_size" yaml:"min_size"`
	Penalty *float64 `bson:"penalty,omitempty" json:"penalty,omitempty" yaml:"penalty,omitempty"`
	Cost    string   `bson:"cost" json:"cost" yaml:"cost"`

	// BOCPD
	HazardLambda         float64 `bson:"hazard_lambda" json:"hazard_lambda" yaml:"hazard_lambda"`
	IncludeProbabilities bool    `bson:"include_probabilities" json:"include_probabilities" yaml:"include_probabilities"`
	MaxRunLength         int     `bson:"max_run_length" json:"max_run_length" yaml:"max_run_length"`
	Threshold            float64 `bson:"threshold" json:"threshold" yaml:"threshold"`

	// legacy bayesian
	HazardRate float64 `bson:"hazard_rate" json:"hazard_rate" yaml:"hazard_rate"`
}

// Validate fills in defaults and reports the first invalid value.
// Unset fields take their defaults; a non-positive penalty selects the
// default penalty and a negative minimum segment size is raised to one.
func (o *DetectionOptions) Validate() error {
	if o.Algorithm == "" {
		o.Algorithm = AlgorithmPELT
	}
	if err := o.Algorithm.Validate(); err != nil {
		return err
	}

	switch {
	case o.MinSize == 0:
		o.MinSize = DefaultMinSize
	case o.MinSize < 0:
		o.MinSize = 1
	}

	if o.Penalty != nil {
		if math.IsNaN(*o.Penalty) || math.IsInf(*o.Penalty, 0) {
			return &detector.InvalidParameterError{
				Param:  "penalty",
				Value:  strconv.FormatFloat(*o.Penalty, 'g', -1, 64),
				Reason: "must be finite",
			}
		}
		if *o.Penalty <= 0 {
			o.Penalty = nil
		}
	}

	cost, err := detector.ParseCostModel(o.Cost)
	if err != nil {
		return err
	}
	o.Cost = cost.String()

	if !(o.HazardLambda > 0) {
		o.HazardLambda = detector.DefaultHazardLambda
	}
	if !(o.HazardRate > 0) {
		o.HazardRate = DefaultHazardRate
	}
	if o.MaxRunLength <= 0 {
		o.MaxRunLength = detector.DefaultMaxRunLength
	}
	if o.Threshold == 0 {
		o.Threshold = detector.DefaultThreshold
	}
	if !(o.Threshold > 0 && o.Threshold < 1) {
		return &detector.InvalidParameterError{
			Param:  "threshold",
			Value:  strconv.FormatFloat(o.Threshold, 'g', -1, 64),
			Reason: "must be between 0 and 1",
		}
	}

	return nil
}

func (o DetectionOptions) bocpdOptions() detector.BOCPDOptions {
	opts := detector.DefaultBOCPDOptions()
	opts.HazardLambda = o.HazardLambda
	opts.MaxRunLength = o.MaxRunLength
	opts.Threshold = o.Threshold
	return opts
}

// Detector returns the detector described by the options, which must
// already be valid.
func (o DetectionOptions) Detector() detector.ChangeDetector {
	switch o.Algorithm {
	case AlgorithmBOCPD:
		return detector.NewBOCPDDetector(o.bocpdOptions())
	case AlgorithmBayesian:
		return detector.NewBayesianDetector(o.HazardRate)
	default:
		cost, _ := detector.ParseCostModel(o.Cost)
		return detector.NewPELTDetector(o.MinSize, o.Penalty, cost)
	}
}

// Detect runs the configured algorithm over the series.
func (o DetectionOptions) Detect(ctx context.Context, s Series) (*DetectionResult, error) {
	if err := o.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := s.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "operation canceled")
	}

	startAt := time.Now()
	result := &DetectionResult{
		SeriesID:     s.ID,
		Algorithm:    o.Algorithm,
		Options:      o,
		CalculatedOn: startAt,
	}

	switch o.Algorithm {
	case AlgorithmPELT:
		cost, err := detector.ParseCostModel(o.Cost)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		out, err := detector.DetectChangepoints(s.Values, o.MinSize, o.Penalty, cost)
		if err != nil {
			return nil, errors.Wrapf(err, "segmenting series '%s'", s.ID)
		}
		result.Changepoints = out.Changepoints
		result.Cost = out.Cost
	case AlgorithmBOCPD:
		out, err := detector.RunBOCPD(s.Values, o.bocpdOptions(), o.IncludeProbabilities)
		if err != nil {
			return nil, errors.Wrapf(err, "running online detection on series '%s'", s.ID)
		}
		result.Changepoints = out.Changepoints
		if o.IncludeProbabilities {
			result.Probabilities = out.ChangepointProbability
		}
	case AlgorithmBayesian:
		out, err := detector.DetectChangepointsBayesian(s.Values, o.HazardRate)
		if err != nil {
			return nil, errors.Wrapf(err, "running bayesian detection on series '%s'", s.ID)
		}
		result.Changepoints = out.Changepoints
		result.Cost = out.Cost
	}

	result.annotate(s)

	grip.Debug(message.Fields{
		"message":      "detected changepoints",
		"series":       s.ID,
		"algorithm":    o.Algorithm,
		"points":       s.Len(),
		"changepoints": len(result.Changepoints),
		"dur_secs":     time.Since(startAt).Seconds(),
	})

	return result, nil
}
