package model

import (
	"time"

	dbmodel "github.com/evergreen-ci/changepoint/model"
	"github.com/pkg/errors"
)

// APISeries is the wire form of a series.
type APISeries struct {
	ID         string      `json:"id"`
	Timestamps []time.Time `json:"timestamps,omitempty"`
	Values     []float64   `json:"values"`
}

// Import transforms a model.Series into an APISeries.
func (s *APISeries) Import(i interface{}) error {
	switch series := i.(type) {
	case dbmodel.Series:
		s.ID = series.ID
		s.Timestamps = series.Timestamps
		s.Values = series.Values
	case *dbmodel.Series:
		return s.Import(*series)
	default:
		return errors.Errorf("incorrect type %T when importing series", i)
	}
	return nil
}

// Export returns the model.Series form.
func (s *APISeries) Export() (interface{}, error) {
	return dbmodel.Series{
		ID:         s.ID,
		Timestamps: s.Timestamps,
		Values:     s.Values,
	}, nil
}

// APIDetectionRequest is the body of the single series detection routes.
// The algorithm in the options is set by the route.
type APIDetectionRequest struct {
	Series  APISeries                `json:"series"`
	Options dbmodel.DetectionOptions `json:"options"`
}

// APIBatchRequest is the body of the batch detection route.
type APIBatchRequest struct {
	Series  []APISeries              `json:"series"`
	Options dbmodel.DetectionOptions `json:"options"`
}

type APIPoint struct {
	Index                  int        `json:"index"`
	Timestamp              *time.Time `json:"timestamp,omitempty"`
	Value                  float64    `json:"value"`
	IsChangepoint          bool       `json:"is_changepoint"`
	ChangepointProbability float64    `json:"changepoint_probability"`
}

// APIDetectionResult describes the changepoints found in one series.
type APIDetectionResult struct {
	SeriesID      string                   `json:"series_id"`
	Algorithm     string                   `json:"algorithm"`
	Options       dbmodel.DetectionOptions `json:"options"`
	Changepoints  []int                    `json:"changepoints"`
	Cost          float64                  `json:"cost"`
	Probabilities []float64                `json:"probabilities,omitempty"`
	Points        []APIPoint               `json:"points"`
	CalculatedOn  time.Time                `json:"calculated_on"`
}

// Import transforms a model.DetectionResult into an APIDetectionResult.
func (r *APIDetectionResult) Import(i interface{}) error {
	switch result := i.(type) {
	case dbmodel.DetectionResult:
		r.SeriesID = result.SeriesID
		r.Algorithm = string(result.Algorithm)
		r.Options = result.Options
		r.Changepoints = result.Changepoints
		if r.Changepoints == nil {
			r.Changepoints = []int{}
		}
		r.Cost = result.Cost
		r.Probabilities = result.Probabilities
		r.CalculatedOn = result.CalculatedOn

		r.Points = make([]APIPoint, len(result.Points))
		for idx, point := range result.Points {
			r.Points[idx] = APIPoint{
				Index:                  point.Index,
				Value:                  point.Value,
				IsChangepoint:          point.IsChangepoint,
				ChangepointProbability: point.ChangepointProbability,
			}
			if !point.Timestamp.IsZero() {
				ts := point.Timestamp
				r.Points[idx].Timestamp = &ts
			}
		}
	case *dbmodel.DetectionResult:
		if result == nil {
			return errors.New("cannot import nil detection result")
		}
		return r.Import(*result)
	default:
		return errors.Errorf("incorrect type %T when importing detection result", i)
	}

	return nil
}

// Export is not supported, results are only produced by the service.
func (r *APIDetectionResult) Export() (interface{}, error) {
	return nil, errors.New("detection results cannot be exported")
}
