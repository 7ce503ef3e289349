package detector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCostModels(t *testing.T) {
	values := []float64{1, 2, 3, 4, 10, 10, 10, 10}

	t.Run("EmptyRange", func(t *testing.T) {
		for _, cost := range CostModels() {
			for i := 0; i <= len(values); i++ {
				assert.Zero(t, cost.Evaluate(values, i, i), "%s at %d", cost, i)
			}
			assert.Zero(t, cost.Evaluate(values, 5, 2), cost.String())
		}
	})
	t.Run("Idempotent", func(t *testing.T) {
		for _, cost := range CostModels() {
			assert.Equal(t, cost.Evaluate(values, 1, 6), cost.Evaluate(values, 1, 6), cost.String())
		}
	})
	t.Run("L2", func(t *testing.T) {
		assert.InDelta(t, 5.0, CostL2.Evaluate(values, 0, 4), 1e-12)
		assert.Zero(t, CostL2.Evaluate(values, 4, 8))
	})
	t.Run("L1", func(t *testing.T) {
		assert.InDelta(t, 4.0, CostL1.Evaluate(values, 0, 4), 1e-12)
		assert.Zero(t, CostL1.Evaluate(values, 4, 8))
	})
	t.Run("Normal", func(t *testing.T) {
		assert.InDelta(t, 4*(1+math.Log(1.25)), CostNormal.Evaluate(values, 0, 4), 1e-12)
	})
	t.Run("NormalConstantSegment", func(t *testing.T) {
		assert.Zero(t, CostNormal.Evaluate(values, 4, 8))
	})
	t.Run("NormalSingleValue", func(t *testing.T) {
		assert.Zero(t, CostNormal.Evaluate(values, 0, 1))
	})
	t.Run("NonNegativeSquaredAndAbsolute", func(t *testing.T) {
		series := randomSeries(50, defaultSeed)
		for start := 0; start < len(series); start += 7 {
			for end := start; end <= len(series); end += 5 {
				assert.True(t, CostL2.Evaluate(series, start, end) >= 0)
				assert.True(t, CostL1.Evaluate(series, start, end) >= 0)
			}
		}
	})
}

func TestParseCostModel(t *testing.T) {
	for _, test := range []struct {
		name     string
		expected CostModel
		hasErr   bool
	}{
		{name: "", expected: CostL2},
		{name: "l2", expected: CostL2},
		{name: "L1", expected: CostL1},
		{name: " normal ", expected: CostNormal},
		{name: "poisson", hasErr: true},
	} {
		t.Run(test.name, func(t *testing.T) {
			cost, err := ParseCostModel(test.name)
			if test.hasErr {
				require.Error(t, err)
				assert.Equal(t, CodeInvalidParameter, ErrorCode(err))
				assert.Contains(t, err.Error(), "cost")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, cost)
		})
	}
	t.Run("RoundTrip", func(t *testing.T) {
		for _, cost := range CostModels() {
			parsed, err := ParseCostModel(cost.String())
			require.NoError(t, err)
			assert.Equal(t, cost, parsed)
		}
	})
	assert.Equal(t, "unknown", CostModel(42).String())
}
