package model

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/evergreen-ci/changepoint/detector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepSeries(id string, each int, levels ...float64) Series {
	s := Series{ID: id}
	for _, level := range levels {
		for i := 0; i < each; i++ {
			s.Values = append(s.Values, level)
		}
	}
	return s
}

func TestDetectionOptionsValidate(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		opts := DetectionOptions{}
		require.NoError(t, opts.Validate())
		assert.Equal(t, AlgorithmPELT, opts.Algorithm)
		assert.Equal(t, DefaultMinSize, opts.MinSize)
		assert.Nil(t, opts.Penalty)
		assert.Equal(t, "l2", opts.Cost)
		assert.Equal(t, detector.DefaultHazardLambda, opts.HazardLambda)
		assert.Equal(t, DefaultHazardRate, opts.HazardRate)
		assert.Equal(t, detector.DefaultMaxRunLength, opts.MaxRunLength)
		assert.Equal(t, detector.DefaultThreshold, opts.Threshold)
	})
	t.Run("NormalizesLikeForeignCallers", func(t *testing.T) {
		penalty := -3.0
		opts := DetectionOptions{MinSize: -4, Penalty: &penalty, Cost: "NORMAL"}
		require.NoError(t, opts.Validate())
		assert.Equal(t, 1, opts.MinSize)
		assert.Nil(t, opts.Penalty)
		assert.Equal(t, "normal", opts.Cost)
	})
	t.Run("KeepsPositivePenalty", func(t *testing.T) {
		penalty := 7.5
		opts := DetectionOptions{Penalty: &penalty}
		require.NoError(t, opts.Validate())
		require.NotNil(t, opts.Penalty)
		assert.Equal(t, 7.5, *opts.Penalty)
	})
	for name, opts := range map[string]DetectionOptions{
		"UnknownAlgorithm": {Algorithm: "kalman"},
		"UnknownCost":      {Cost: "poisson"},
		"BadThreshold":     {Algorithm: AlgorithmBOCPD, Threshold: 2},
		"NaNPenalty":       {Penalty: func() *float64 { v := math.NaN(); return &v }()},
	} {
		t.Run(name, func(t *testing.T) {
			err := opts.Validate()
			require.Error(t, err)
			assert.Equal(t, detector.CodeInvalidParameter, detector.ErrorCode(err))
		})
	}
}

func TestDetect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t.Run("PELT", func(t *testing.T) {
		series := stepSeries("pelt", 30, 0, 10, 0)
		result, err := DetectionOptions{MinSize: 5}.Detect(ctx, series)
		require.NoError(t, err)

		assert.Equal(t, "pelt", result.SeriesID)
		assert.Equal(t, AlgorithmPELT, result.Algorithm)
		assert.Equal(t, []int{30, 60}, result.Changepoints)
		assert.InDelta(t, 2*2*math.Log(90), result.Cost, 1e-9)
		assert.Nil(t, result.Probabilities)
		assert.False(t, result.CalculatedOn.IsZero())

		require.Len(t, result.Points, 90)
		for idx, point := range result.Points {
			assert.Equal(t, idx, point.Index)
			assert.Equal(t, series.Values[idx], point.Value)
			assert.Equal(t, idx == 30 || idx == 60, point.IsChangepoint)
		}
	})
	t.Run("BOCPDWithProbabilities", func(t *testing.T) {
		series := stepSeries("bocpd", 12, 100, 10)
		opts := DetectionOptions{
			Algorithm:            AlgorithmBOCPD,
			HazardLambda:         10,
			IncludeProbabilities: true,
		}
		result, err := opts.Detect(ctx, series)
		require.NoError(t, err)

		assert.Equal(t, []int{12}, result.Changepoints)
		require.Len(t, result.Probabilities, 24)
		assert.True(t, result.Points[12].IsChangepoint)
		assert.Equal(t, result.Probabilities[12], result.Points[12].ChangepointProbability)
		assert.Zero(t, result.Cost)
	})
	t.Run("BOCPDWithoutProbabilities", func(t *testing.T) {
		series := stepSeries("bocpd", 12, 100, 10)
		result, err := DetectionOptions{Algorithm: AlgorithmBOCPD, HazardLambda: 10}.Detect(ctx, series)
		require.NoError(t, err)

		assert.Equal(t, []int{12}, result.Changepoints)
		assert.Nil(t, result.Probabilities)
		assert.Zero(t, result.Points[12].ChangepointProbability)
	})
	t.Run("Bayesian", func(t *testing.T) {
		series := stepSeries("legacy", 12, 100, 10)
		result, err := DetectionOptions{Algorithm: AlgorithmBayesian, HazardRate: 0.1}.Detect(ctx, series)
		require.NoError(t, err)
		assert.Equal(t, []int{12}, result.Changepoints)
	})
	t.Run("ShortSeries", func(t *testing.T) {
		series := Series{ID: "short", Values: []float64{1, 2}}

		result, err := DetectionOptions{}.Detect(ctx, series)
		require.NoError(t, err)
		assert.Empty(t, result.Changepoints)
		assert.NotNil(t, result.Changepoints)

		_, err = DetectionOptions{Algorithm: AlgorithmBOCPD}.Detect(ctx, series)
		require.Error(t, err)
		assert.Equal(t, detector.CodeInsufficientData, detector.ErrorCode(err))
		assert.Contains(t, err.Error(), "short")
	})
	t.Run("NonFiniteValues", func(t *testing.T) {
		series := Series{ID: "gaps", Values: []float64{1, math.NaN(), 3, 4}}
		_, err := DetectionOptions{}.Detect(ctx, series)
		require.Error(t, err)
		assert.Equal(t, detector.CodeInvalidInput, detector.ErrorCode(err))
		assert.Contains(t, err.Error(), "index 1")
	})
	t.Run("MismatchedTimestamps", func(t *testing.T) {
		series := stepSeries("ts", 5, 1, 2)
		series.Timestamps = make([]time.Time, 3)
		_, err := DetectionOptions{}.Detect(ctx, series)
		require.Error(t, err)
		assert.Equal(t, detector.CodeInvalidInput, detector.ErrorCode(err))
	})
	t.Run("Canceled", func(t *testing.T) {
		cctx, ccancel := context.WithCancel(ctx)
		ccancel()
		_, err := DetectionOptions{}.Detect(cctx, stepSeries("canceled", 5, 1, 2))
		require.Error(t, err)
		assert.False(t, detector.IsUserError(err))
	})
	t.Run("DetectorMatchesOptions", func(t *testing.T) {
		for _, algo := range Algorithms() {
			opts := DetectionOptions{Algorithm: algo}
			require.NoError(t, opts.Validate())
			assert.Equal(t, string(algo), opts.Detector().Info().Name)
		}
	})
}
