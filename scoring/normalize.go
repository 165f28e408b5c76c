package scoring

import "math"

// ScoringConfig is the per-competition scoring configuration. It is supplied
// by the competition management layer and treated as opaque input here.
type ScoringConfig struct {
	HigherIsBetter        bool
	MetricMin             float64
	MetricMax             float64
	PointsForPerfectScore float64
}

// Normalize converts a raw metric value into a bounded point score.
//
// The raw value's fractional position within [MetricMin, MetricMax] is scaled
// to [0, PointsForPerfectScore], with the direction flipped when lower metric
// values are better. Values outside the configured range are clamped, not
// extrapolated. A collapsed range (MetricMax == MetricMin) cannot be
// normalized and yields 0; callers log that case and keep going.
//
// This is the single place where "better" is translated into "more points".
// Everything downstream treats the output as already normalized.
func Normalize(rawValue float64, config ScoringConfig) float64 {
	if math.IsNaN(rawValue) || math.IsInf(rawValue, 0) {
		return 0
	}
	if config.MetricMax == config.MetricMin {
		return 0
	}
	var frac float64
	if config.HigherIsBetter {
		frac = (rawValue - config.MetricMin) / (config.MetricMax - config.MetricMin)
	} else {
		frac = (config.MetricMax - rawValue) / (config.MetricMax - config.MetricMin)
	}
	score := frac * config.PointsForPerfectScore
	return clamp(score, 0, config.PointsForPerfectScore)
}

func clamp(value, lower, upper float64) float64 {
	return math.Max(lower, math.Min(upper, value))
}
