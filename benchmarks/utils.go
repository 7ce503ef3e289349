package benchmarks

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/evergreen-ci/changepoint/model"
)

// RegimeSeries returns a piecewise constant series of n points split into
// regimes of equal length, each with its own level and gaussian noise.
// Timestamps are one second apart. The same seed always produces the
// same series.
func RegimeSeries(id string, n, regimes int, seed int64) model.Series {
	if regimes < 1 {
		regimes = 1
	}

	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	series := model.Series{
		ID:         id,
		Timestamps: make([]time.Time, n),
		Values:     make([]float64, n),
	}

	regimeLen := n / regimes
	if regimeLen < 1 {
		regimeLen = 1
	}

	level := 100 * rng.Float64()
	noise := 1 + rng.Float64()
	for i := 0; i < n; i++ {
		if i > 0 && i%regimeLen == 0 {
			level += (rng.Float64() - 0.5) * 40
			noise = 1 + rng.Float64()
		}
		series.Timestamps[i] = start.Add(time.Duration(i) * time.Second)
		series.Values[i] = level + rng.NormFloat64()*noise
	}

	return series
}

func regimeSeriesBatch(count, n, regimes int) []model.Series {
	out := make([]model.Series, count)
	for i := range out {
		out[i] = RegimeSeries(fmt.Sprintf("series-%d", i), n, regimes, int64(i+1))
	}
	return out
}
