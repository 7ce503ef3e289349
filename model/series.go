package model

import (
	"fmt"
	"math"
	"time"

	"github.com/evergreen-ci/changepoint/detector"
)

// Series is a single univariate time series. Timestamps are optional
// but, when present, must line up with Values.
type Series struct {
	ID         string      `bson:"id" json:"id" yaml:"id"`
	Timestamps []time.Time `bson:"timestamps,omitempty" json:"timestamps,omitempty" yaml:"timestamps,omitempty"`
	Values     []float64   `bson:"values" json:"values" yaml:"values"`
}

// Validate reports the first problem with the series. Non-finite values
// are rejected: gaps should be imputed before detection.
func (s *Series) Validate() error {
	if len(s.Timestamps) > 0 && len(s.Timestamps) != len(s.Values) {
		return &detector.InvalidInputError{
			Reason: fmt.Sprintf("series '%s' has %d timestamps but %d values", s.ID, len(s.Timestamps), len(s.Values)),
		}
	}

	for idx, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &detector.InvalidInputError{
				Reason: fmt.Sprintf("series '%s' has non-finite value %v at index %d", s.ID, v, idx),
			}
		}
	}

	return nil
}

func (s *Series) Len() int { return len(s.Values) }

func (s *Series) timestamp(idx int) time.Time {
	if idx < len(s.Timestamps) {
		return s.Timestamps[idx]
	}
	return time.Time{}
}
