package units

import (
	"context"
	"io/ioutil"
	"math"
	"os"
	"testing"

	"github.com/evergreen-ci/changepoint"
	"github.com/evergreen-ci/changepoint/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectChangepointsJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t.Run("Constructor", func(t *testing.T) {
		j, err := NewDetectChangepointsJob(stepSeries("foo", 10, 1, 5), model.DetectionOptions{})
		require.NoError(t, err)
		assert.Contains(t, j.ID(), "detect-changepoints.foo.pelt.")
		assert.Equal(t, detectChangepointsJobName, j.Type().Name)

		dj, ok := j.(*DetectChangepointsJob)
		require.True(t, ok)
		assert.Equal(t, model.AlgorithmPELT, dj.Options.Algorithm)
		assert.False(t, dj.SaveResult)
	})
	t.Run("ConstructorRejectsInvalidOptions", func(t *testing.T) {
		j, err := NewDetectChangepointsJob(stepSeries("foo", 10, 1, 5), model.DetectionOptions{Algorithm: "foo"})
		assert.Error(t, err)
		assert.Nil(t, j)

		j, err = NewStoredSeriesJob("", model.DetectionOptions{})
		assert.Error(t, err)
		assert.Nil(t, j)
	})
	t.Run("DetectsInMemorySeries", func(t *testing.T) {
		j, err := NewDetectChangepointsJob(stepSeries("steps", 20, 10, 50), model.DetectionOptions{})
		require.NoError(t, err)

		j.Run(ctx)
		require.NoError(t, j.Error())
		assert.True(t, j.Status().Completed)

		result := j.(*DetectChangepointsJob).Result
		require.NotNil(t, result)
		assert.Equal(t, "steps", result.SeriesID)
		assert.Equal(t, []int{20}, result.Changepoints)
		assert.Len(t, result.Points, 40)
	})
	t.Run("InvalidSeriesFails", func(t *testing.T) {
		series := stepSeries("bad", 10, 1, 2)
		series.Values[3] = math.NaN()
		j, err := NewDetectChangepointsJob(series, model.DetectionOptions{})
		require.NoError(t, err)

		j.Run(ctx)
		assert.Error(t, j.Error())
		assert.True(t, j.Status().Completed)
		assert.Nil(t, j.(*DetectChangepointsJob).Result)
	})
	t.Run("StoredSeriesWithoutStoreFails", func(t *testing.T) {
		env, err := changepoint.NewEnvironment("units-test", &changepoint.Configuration{})
		require.NoError(t, err)

		j, err := NewStoredSeriesJob("series/foo.json", model.DetectionOptions{})
		require.NoError(t, err)
		j.(*DetectChangepointsJob).env = env

		j.Run(ctx)
		require.Error(t, j.Error())
		assert.Contains(t, j.Error().Error(), "no store configured")
	})
	t.Run("StoredSeries", func(t *testing.T) {
		tmpDir, err := ioutil.TempDir(".", "units-store-test")
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, os.RemoveAll(tmpDir))
		}()

		storeOpts := model.StoreOptions{Type: model.StoreLocal, Bucket: tmpDir}
		env, err := changepoint.NewEnvironment("units-test", &changepoint.Configuration{Store: storeOpts})
		require.NoError(t, err)

		store, err := env.GetStore(ctx)
		require.NoError(t, err)
		key, err := store.PutSeries(ctx, model.FormatJSON, stepSeries("stored", 15, 3, 9, 3))
		require.NoError(t, err)

		j, err := NewStoredSeriesJob(key, model.DetectionOptions{})
		require.NoError(t, err)
		dj := j.(*DetectChangepointsJob)
		assert.True(t, dj.SaveResult)
		dj.env = env

		j.Run(ctx)
		require.NoError(t, j.Error())
		require.NotNil(t, dj.Result)
		assert.Equal(t, []int{15, 30}, dj.Result.Changepoints)

		bucket, err := storeOpts.Create(ctx)
		require.NoError(t, err)
		r, err := bucket.Get(ctx, "results/stored.json")
		require.NoError(t, err)
		defer r.Close()
		data, err := ioutil.ReadAll(r)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"series_id": "stored"`)
	})
	t.Run("MissingStoredSeriesFails", func(t *testing.T) {
		tmpDir, err := ioutil.TempDir(".", "units-store-test")
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, os.RemoveAll(tmpDir))
		}()

		env, err := changepoint.NewEnvironment("units-test", &changepoint.Configuration{
			Store: model.StoreOptions{Type: model.StoreLocal, Bucket: tmpDir},
		})
		require.NoError(t, err)

		j, err := NewStoredSeriesJob("series/missing.json", model.DetectionOptions{})
		require.NoError(t, err)
		j.(*DetectChangepointsJob).env = env

		j.Run(ctx)
		assert.Error(t, j.Error())
	})
}
