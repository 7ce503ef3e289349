package detector

import (
	"context"
	"math"
	"strconv"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const (
	// DefaultHazardLambda is the expected run length between
	// changepoints used when none is configured.
	DefaultHazardLambda = 250.0
	// DefaultMaxRunLength bounds the number of run length hypotheses
	// tracked at once.
	DefaultMaxRunLength = 500
	// DefaultThreshold is the changepoint probability above which a
	// point is flagged.
	DefaultThreshold = 0.5

	minBOCPDObservations = 3
	minScale             = 1e-10
	minTotalMass         = 1e-300
)

// NormalGammaPrior holds the hyperparameters of the conjugate prior over
// the mean and precision of each segment.
type NormalGammaPrior struct {
	Mu0    float64 `bson:"mu0" json:"mu0" yaml:"mu0"`
	Kappa0 float64 `bson:"kappa0" json:"kappa0" yaml:"kappa0"`
	Alpha0 float64 `bson:"alpha0" json:"alpha0" yaml:"alpha0"`
	Beta0  float64 `bson:"beta0" json:"beta0" yaml:"beta0"`
}

// DefaultPrior is deliberately uninformative so that a segment's own
// observations dominate its posterior after a handful of points. It
// does not look at the series, which would leak future observations
// into earlier predictions.
func DefaultPrior() NormalGammaPrior {
	return NormalGammaPrior{Mu0: 0, Kappa0: 0.01, Alpha0: 0.01, Beta0: 0.01}
}

func (p NormalGammaPrior) isZero() bool { return p == NormalGammaPrior{} }

func (p NormalGammaPrior) validate() error {
	for _, param := range []struct {
		name  string
		value float64
	}{
		{name: "kappa0", value: p.Kappa0},
		{name: "alpha0", value: p.Alpha0},
		{name: "beta0", value: p.Beta0},
	} {
		if !(param.value > 0) || math.IsInf(param.value, 1) {
			return &InvalidParameterError{
				Param:  param.name,
				Value:  strconv.FormatFloat(param.value, 'g', -1, 64),
				Reason: "must be positive and finite",
			}
		}
	}
	return nil
}

// predictive returns the unnormalized Student-t posterior predictive
// density of x given the observations summarized by run. Statistics
// that overflowed give a density of zero.
func (p NormalGammaPrior) predictive(x float64, run *runLength) float64 {
	count := float64(run.count)
	kappaN := p.Kappa0 + count
	alphaN := p.Alpha0 + count/2

	muN := p.Mu0
	var ss float64
	if run.count > 0 {
		muN = (p.Kappa0*p.Mu0 + run.sumX) / kappaN
		ss = math.Max(run.sumX2-run.sumX*run.sumX/count, 0)
	}

	betaN := p.Beta0 + ss/2 + p.Kappa0*count*(p.Mu0-muN)*(p.Mu0-muN)/(2*kappaN)

	scale := math.Max(math.Sqrt(betaN*(kappaN+1)/(alphaN*kappaN)), minScale)
	nu := 2 * alphaN
	z := (x - muN) / scale

	density := math.Pow(1+z*z/nu, -(nu+1)/2)
	if math.IsNaN(density) || math.IsInf(density, 0) {
		return 0
	}
	return density
}

// BOCPDOptions configures a Bayesian online changepoint detector. Zero
// values select the defaults.
type BOCPDOptions struct {
	// HazardLambda is the expected run length, used to build a
	// ConstantHazard when Hazard is nil.
	HazardLambda float64 `bson:"hazard_lambda" json:"hazard_lambda" yaml:"hazard_lambda"`
	// Hazard overrides HazardLambda.
	Hazard Hazard           `bson:"-" json:"-" yaml:"-"`
	Prior  NormalGammaPrior `bson:"prior" json:"prior" yaml:"prior"`
	// MaxRunLength bounds memory by discarding the longest run
	// lengths. Discarding is an approximation: after a stable run
	// longer than MaxRunLength the posterior no longer includes the
	// true run length.
	MaxRunLength int     `bson:"max_run_length" json:"max_run_length" yaml:"max_run_length"`
	Threshold    float64 `bson:"threshold" json:"threshold" yaml:"threshold"`
}

func DefaultBOCPDOptions() BOCPDOptions {
	return BOCPDOptions{
		HazardLambda: DefaultHazardLambda,
		Prior:        DefaultPrior(),
		MaxRunLength: DefaultMaxRunLength,
		Threshold:    DefaultThreshold,
	}
}

// Validate fills in defaults and checks the remaining values.
func (o *BOCPDOptions) Validate() error {
	if o.HazardLambda == 0 {
		o.HazardLambda = DefaultHazardLambda
	}
	if o.Hazard == nil {
		o.Hazard = ConstantHazard{Lambda: o.HazardLambda}
	}
	if o.Prior.isZero() {
		o.Prior = DefaultPrior()
	}
	if o.MaxRunLength <= 0 {
		o.MaxRunLength = DefaultMaxRunLength
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}

	if err := o.Prior.validate(); err != nil {
		return err
	}
	if !(o.Threshold > 0 && o.Threshold < 1) {
		return &InvalidParameterError{
			Param:  "threshold",
			Value:  strconv.FormatFloat(o.Threshold, 'g', -1, 64),
			Reason: "must be between 0 and 1",
		}
	}
	return nil
}

// Step is the detector's output for a single observation.
type Step struct {
	Index int
	// Probability is the posterior probability that the run length is
	// one, i.e. that a changepoint occurred exactly one step ago. The
	// probability of a zero run length is always close to the hazard
	// rate and carries no signal.
	Probability   float64
	IsChangepoint bool
	// MAPRunLength is the most probable run length after the update.
	MAPRunLength int
}

// Detector is a Bayesian online changepoint detector (Adams & MacKay)
// with a Normal-Gamma conjugate prior. It consumes one observation at a
// time and is not safe for concurrent use.
type Detector struct {
	opts BOCPDOptions
	runs *runLengths
	t    int
}

func NewDetector(opts BOCPDOptions) (*Detector, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	d := &Detector{
		opts: opts,
		runs: newRunLengths(opts.MaxRunLength + 1),
	}
	d.Reset()

	return d, nil
}

// Reset discards all observations, returning the detector to a single
// zero length run.
func (d *Detector) Reset() {
	d.runs.Reset()
	d.runs.Prepend(runLength{prob: 1})
	d.t = 0
}

// Observe updates the run length distribution with x.
func (d *Detector) Observe(x float64) Step {
	var changeMass float64
	for r := 0; r < d.runs.Len(); r++ {
		run := d.runs.At(r)
		h := d.opts.Hazard.Probability(r)
		mass := run.prob * d.opts.Prior.predictive(x, run)

		// this entry becomes run length r+1 once the new r=0 entry is
		// prepended, so its statistics absorb x in the same pass.
		run.prob = mass * (1 - h)
		run.add(x)
		changeMass += mass * h
	}
	d.runs.Prepend(runLength{prob: changeMass})

	var total float64
	for r := 0; r < d.runs.Len(); r++ {
		total += d.runs.At(r).prob
	}
	// on underflow the distribution is carried forward unnormalized
	if total > minTotalMass && !math.IsInf(total, 0) {
		for r := 0; r < d.runs.Len(); r++ {
			d.runs.At(r).prob /= total
		}
	}

	step := Step{Index: d.t}
	if d.runs.Len() > 1 {
		step.Probability = math.Min(math.Max(d.runs.At(1).prob, 0), 1)
	}
	step.IsChangepoint = step.Probability > d.opts.Threshold && d.t > 0

	best := math.Inf(-1)
	for r := 0; r < d.runs.Len(); r++ {
		if p := d.runs.At(r).prob; p > best {
			best = p
			step.MAPRunLength = r
		}
	}

	d.runs.Truncate(d.opts.MaxRunLength)
	d.t++

	return step
}

// RunLengths returns a copy of the current run length distribution,
// indexed by run length.
func (d *Detector) RunLengths() []float64 {
	out := make([]float64, d.runs.Len())
	for r := range out {
		out[r] = d.runs.At(r).prob
	}
	return out
}

// DetectChangepointsBOCPD runs the detector over the whole series with a
// constant hazard of 1/max(hazardLambda, 1) and the default prior. When
// includeProbabilities is false the probability slice is all zeros,
// although flags and indices are still derived from the real values.
func DetectChangepointsBOCPD(values []float64, hazardLambda float64, includeProbabilities bool) (BocpdResult, error) {
	opts := DefaultBOCPDOptions()
	opts.HazardLambda = hazardLambda
	opts.Hazard = ConstantHazard{Lambda: hazardLambda}

	return RunBOCPD(values, opts, includeProbabilities)
}

// RunBOCPD is DetectChangepointsBOCPD with full control over the
// detector's options.
func RunBOCPD(values []float64, opts BOCPDOptions, includeProbabilities bool) (BocpdResult, error) {
	n := len(values)
	if n < minBOCPDObservations {
		return BocpdResult{}, &InsufficientDataError{Needed: minBOCPDObservations, Got: n}
	}

	d, err := NewDetector(opts)
	if err != nil {
		return BocpdResult{}, err
	}

	result := BocpdResult{
		IsChangepoint:          make([]bool, n),
		ChangepointProbability: make([]float64, n),
		Changepoints:           []int{},
	}
	for i, x := range values {
		step := d.Observe(x)
		result.IsChangepoint[i] = step.IsChangepoint
		if includeProbabilities {
			result.ChangepointProbability[i] = step.Probability
		}
		if step.IsChangepoint {
			result.Changepoints = append(result.Changepoints, i)
		}
	}

	return result, nil
}

// NewBOCPDDetector adapts the online detector to the ChangeDetector
// interface. Change points carry their posterior probability.
func NewBOCPDDetector(opts BOCPDOptions) ChangeDetector {
	lambda := opts.HazardLambda
	if lambda == 0 {
		lambda = DefaultHazardLambda
	}
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	return &bocpdDetector{
		opts: opts,
		info: AlgorithmInfo{
			Name:    "bocpd",
			Version: 1,
			Options: []AlgorithmOption{
				{
					Name:  "hazard_lambda",
					Value: lambda,
				},
				{
					Name:  "threshold",
					Value: threshold,
				},
			},
		},
	}
}

type bocpdDetector struct {
	opts BOCPDOptions
	info AlgorithmInfo
}

func (d *bocpdDetector) Info() AlgorithmInfo { return d.info }

func (d *bocpdDetector) DetectChanges(_ context.Context, series []float64) ([]ChangePoint, error) {
	result, err := RunBOCPD(series, d.opts, true)
	if err != nil {
		return nil, err
	}

	grip.Debug(message.Fields{
		"message":       "completed bayesian online changepoint detection",
		"algorithm":     d.info.Name,
		"num_points":    len(series),
		"num_changes":   len(result.Changepoints),
		"hazard_lambda": d.opts.HazardLambda,
	})

	out := make([]ChangePoint, 0, len(result.Changepoints))
	for _, idx := range result.Changepoints {
		out = append(out, ChangePoint{
			Index:       idx,
			Probability: result.ChangepointProbability[idx],
			Info:        d.info,
		})
	}
	return out, nil
}
