package aggregate

import "math"

// zScores maps supported confidence levels to their normal z-score.
// Unrecognized levels fall back to the 95% value.
var zScores = map[float64]float64{
	0.90: 1.645,
	0.95: 1.96,
	0.99: 2.576,
}

// Round3 rounds to three decimals, the precision used for every
// published metric
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Clamp01 clamps v into [0, 1]
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Mean returns the arithmetic mean of values (0 for an empty slice)
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Stdev returns the sample standard deviation of values (0 for fewer
// than two values)
func Stdev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

// ConfidenceInterval computes a normal-approximation confidence
// interval over values. Empty input yields (0, 0); a single value
// yields (v, v). Bounds are clamped to [0, 1] and rounded to three
// decimals, so lower <= upper always holds.
func ConfidenceInterval(values []float64, confidence float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	if len(values) == 1 {
		v := Round3(values[0])
		return v, v
	}

	mean := Mean(values)
	stdev := Stdev(values)

	z, ok := zScores[confidence]
	if !ok {
		z = zScores[0.95]
	}

	margin := z * stdev / math.Sqrt(float64(len(values)))
	lower := Round3(Clamp01(mean - margin))
	upper := Round3(Clamp01(mean + margin))
	return lower, upper
}
