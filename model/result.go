package model

import (
	"time"

	"github.com/mongodb/anser/bsonutil"
)

// DetectionResult is the outcome of running a detector over one series.
type DetectionResult struct {
	SeriesID      string            `bson:"series_id" json:"series_id" yaml:"series_id"`
	Algorithm     AlgorithmName     `bson:"algorithm" json:"algorithm" yaml:"algorithm"`
	Options       DetectionOptions  `bson:"options" json:"options" yaml:"options"`
	Changepoints  []int             `bson:"changepoints" json:"changepoints" yaml:"changepoints"`
	Cost          float64           `bson:"cost" json:"cost" yaml:"cost"`
	Probabilities []float64         `bson:"probabilities,omitempty" json:"probabilities,omitempty" yaml:"probabilities,omitempty"`
	Points        []PointAnnotation `bson:"points" json:"points" yaml:"points"`
	CalculatedOn  time.Time         `bson:"calculated_on" json:"calculated_on" yaml:"calculated_on"`
}

// PointAnnotation is one row of per-observation output.
type PointAnnotation struct {
	Index                  int       `bson:"index" json:"index" yaml:"index"`
	Timestamp              time.Time `bson:"timestamp,omitempty" json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Value                  float64   `bson:"value" json:"value" yaml:"value"`
	IsChangepoint          bool      `bson:"is_changepoint" json:"is_changepoint" yaml:"is_changepoint"`
	ChangepointProbability float64   `bson:"changepoint_probability" json:"changepoint_probability" yaml:"changepoint_probability"`
}

var (
	pointAnnotationIndexKey         = bsonutil.MustHaveTag(PointAnnotation{}, "Index")
	pointAnnotationTimestampKey     = bsonutil.MustHaveTag(PointAnnotation{}, "Timestamp")
	pointAnnotationValueKey         = bsonutil.MustHaveTag(PointAnnotation{}, "Value")
	pointAnnotationIsChangepointKey = bsonutil.MustHaveTag(PointAnnotation{}, "IsChangepoint")
	pointAnnotationProbabilityKey   = bsonutil.MustHaveTag(PointAnnotation{}, "ChangepointProbability")
)

func (r *DetectionResult) annotate(s Series) {
	if r.Changepoints == nil {
		r.Changepoints = []int{}
	}

	isChange := make(map[int]bool, len(r.Changepoints))
	for _, idx := range r.Changepoints {
		isChange[idx] = true
	}

	r.Points = make([]PointAnnotation, len(s.Values))
	for idx, v := range s.Values {
		point := PointAnnotation{
			Index:         idx,
			Timestamp:     s.timestamp(idx),
			Value:         v,
			IsChangepoint: isChange[idx],
		}
		if idx < len(r.Probabilities) {
			point.ChangepointProbability = r.Probabilities[idx]
		}
		r.Points[idx] = point
	}
}
