package units

import (
	"context"
	"math"
	"testing"

	"github.com/evergreen-ci/changepoint/model"
	"github.com/mongodb/amboy/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t.Run("ResultsInInputOrder", func(t *testing.T) {
		q := queue.NewLocalLimitedSize(2, 100)
		series := []model.Series{
			stepSeries("one", 20, 10, 50),
			stepSeries("two", 15, 3, 9, 3),
			stepSeries("flat", 30, 7),
		}

		results, err := RunBatch(ctx, q, series, model.DetectionOptions{})
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.Equal(t, "one", results[0].SeriesID)
		assert.Equal(t, []int{20}, results[0].Changepoints)
		assert.Equal(t, "two", results[1].SeriesID)
		assert.Equal(t, []int{15, 30}, results[1].Changepoints)
		assert.Equal(t, "flat", results[2].SeriesID)
		assert.Empty(t, results[2].Changepoints)
	})
	t.Run("StartedQueue", func(t *testing.T) {
		q := queue.NewLocalLimitedSize(2, 100)
		require.NoError(t, q.Start(ctx))

		results, err := RunBatch(ctx, q, []model.Series{stepSeries("one", 20, 10, 50)}, model.DetectionOptions{
			Algorithm: model.AlgorithmBOCPD,
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, model.AlgorithmBOCPD, results[0].Algorithm)
	})
	t.Run("PartialFailure", func(t *testing.T) {
		q := queue.NewLocalLimitedSize(2, 100)
		bad := stepSeries("bad", 10, 1, 2)
		bad.Values[0] = math.Inf(1)

		results, err := RunBatch(ctx, q, []model.Series{stepSeries("good", 20, 10, 50), bad}, model.DetectionOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad")
		require.Len(t, results, 1)
		assert.Equal(t, "good", results[0].SeriesID)
	})
	t.Run("InvalidOptions", func(t *testing.T) {
		q := queue.NewLocalLimitedSize(2, 100)
		results, err := RunBatch(ctx, q, []model.Series{stepSeries("one", 20, 10, 50)}, model.DetectionOptions{Threshold: 2})
		assert.Error(t, err)
		assert.Nil(t, results)
	})
}
