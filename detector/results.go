package detector

// ChangepointResult is the outcome of an offline segmentation.
// Changepoints are ascending segment start indices; Cost is the minimum
// penalized cost of the whole series.
type ChangepointResult struct {
	Changepoints []int   `bson:"changepoints" json:"changepoints" yaml:"changepoints"`
	Cost         float64 `bson:"cost" json:"cost" yaml:"cost"`
}

// BocpdResult is the outcome of a Bayesian online run over a whole
// series, with one entry per observation in the per-point slices.
type BocpdResult struct {
	IsChangepoint          []bool    `bson:"is_changepoint" json:"is_changepoint" yaml:"is_changepoint"`
	ChangepointProbability []float64 `bson:"changepoint_probability" json:"changepoint_probability" yaml:"changepoint_probability"`
	Changepoints           []int     `bson:"changepoints" json:"changepoints" yaml:"changepoints"`
}
