package detector

import "context"

// ChangeDetector types calculate change points.
type ChangeDetector interface {
	DetectChanges(context.Context, []float64) ([]ChangePoint, error)
	Info() AlgorithmInfo
}

// ChangePoint is a single detected change point. Probability is only
// populated by the probabilistic detectors.
type ChangePoint struct {
	Index       int           `bson:"index" json:"index" yaml:"index"`
	Probability float64       `bson:"probability,omitempty" json:"probability,omitempty" yaml:"probability,omitempty"`
	Info        AlgorithmInfo `bson:"info" json:"info" yaml:"info"`
}

type AlgorithmInfo struct {
	Name    string            `bson:"name" json:"name" yaml:"name"`
	Version int               `bson:"version" json:"version" yaml:"version"`
	Options []AlgorithmOption `bson:"options" json:"options" yaml:"options"`
}

type AlgorithmOption struct {
	Name  string      `bson:"name" json:"name" yaml:"name"`
	Value interface{} `bson:"value" json:"value" yaml:"value"`
}
