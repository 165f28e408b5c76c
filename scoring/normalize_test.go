package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHigherIsBetter(t *testing.T) {
	config := ScoringConfig{
		HigherIsBetter:        true,
		MetricMin:             0,
		MetricMax:             100,
		PointsForPerfectScore: 100,
	}

	assert.Equal(t, 100.0, Normalize(100, config))
	assert.Equal(t, 0.0, Normalize(0, config))
	assert.Equal(t, 50.0, Normalize(50, config))
}

func TestNormalizeLowerIsBetter(t *testing.T) {
	config := ScoringConfig{
		HigherIsBetter:        false,
		MetricMin:             0,
		MetricMax:             1,
		PointsForPerfectScore: 100,
	}

	assert.InDelta(t, 90.0, Normalize(0.1, config), 1e-9)
	assert.InDelta(t, 50.0, Normalize(0.5, config), 1e-9)
	assert.InDelta(t, 10.0, Normalize(0.9, config), 1e-9)
	assert.Equal(t, 100.0, Normalize(0, config))
	assert.Equal(t, 0.0, Normalize(1, config))
}

func TestNormalizeClampsOutOfRangeValues(t *testing.T) {
	config := ScoringConfig{
		HigherIsBetter:        true,
		MetricMin:             0,
		MetricMax:             1,
		PointsForPerfectScore: 50,
	}

	// better than the configured maximum is clamped, not extrapolated
	assert.Equal(t, 50.0, Normalize(2.5, config))
	assert.Equal(t, 0.0, Normalize(-3, config))
}

func TestNormalizeDegenerateRange(t *testing.T) {
	config := ScoringConfig{
		HigherIsBetter:        true,
		MetricMin:             42,
		MetricMax:             42,
		PointsForPerfectScore: 100,
	}

	assert.Equal(t, 0.0, Normalize(42, config))
	assert.Equal(t, 0.0, Normalize(1000, config))
}

func TestNormalizeNonFiniteInput(t *testing.T) {
	config := ScoringConfig{
		HigherIsBetter:        true,
		MetricMin:             0,
		MetricMax:             1,
		PointsForPerfectScore: 100,
	}

	assert.Equal(t, 0.0, Normalize(math.NaN(), config))
	assert.Equal(t, 0.0, Normalize(math.Inf(1), config))
	assert.Equal(t, 0.0, Normalize(math.Inf(-1), config))
}

func TestNormalizeBoundedness(t *testing.T) {
	configs := []ScoringConfig{
		{HigherIsBetter: true, MetricMin: 0, MetricMax: 1, PointsForPerfectScore: 100},
		{HigherIsBetter: false, MetricMin: -5, MetricMax: 17, PointsForPerfectScore: 250},
		{HigherIsBetter: true, MetricMin: 0.5, MetricMax: 0.99, PointsForPerfectScore: 10},
	}
	values := []float64{-1e9, -1, 0, 0.25, 0.5, 0.99, 1, 17, 1e9}

	for _, config := range configs {
		for _, value := range values {
			score := Normalize(value, config)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, config.PointsForPerfectScore)
		}
	}
}

func TestNormalizeMonotonicity(t *testing.T) {
	ascending := ScoringConfig{HigherIsBetter: true, MetricMin: 0, MetricMax: 10, PointsForPerfectScore: 100}
	descending := ScoringConfig{HigherIsBetter: false, MetricMin: 0, MetricMax: 10, PointsForPerfectScore: 100}

	values := []float64{-2, 0, 1, 3.5, 7, 10, 12}
	for i := 1; i < len(values); i++ {
		assert.LessOrEqual(t, Normalize(values[i-1], ascending), Normalize(values[i], ascending))
		assert.GreaterOrEqual(t, Normalize(values[i-1], descending), Normalize(values[i], descending))
	}
}
