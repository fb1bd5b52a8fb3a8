package common

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions used across algorithms using gonum for robustness

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// PopulationVariance is the variance with denominator n.
func PopulationVariance(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.PopVariance(data, nil)
}

// Percentile returns the p-th empirical quantile (p in [0, 1]).
func Percentile(data []float64, p float64) float64 {
	if len(data) == 0 || p < 0 || p > 1 {
		return 0.0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// IndexPercentile picks sorted[int(p*len)], clamped to the last element.
// Dynamic-range style measures use this floor-index rule rather than an
// interpolated quantile.
func IndexPercentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := min(int(p*float64(len(sorted))), len(sorted)-1)
	return sorted[max(idx, 0)]
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return math.Sqrt(floats.Dot(data, data) / float64(len(data)))
}

// Sum adds the elements of data.
func Sum(data []float64) float64 {
	return floats.Sum(data)
}

// Pearson is the centered correlation of x and y. It is 0 when either
// input is (nearly) constant.
func Pearson(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0.0
	}
	// Unnormalized spread, the square root of Σdx²·Σdy².
	spread := float64(len(x)-1) * stat.StdDev(x, nil) * stat.StdDev(y, nil)
	if spread < 1e-8 {
		return 0.0
	}
	return stat.Correlation(x, y, nil)
}

// AmplitudeToDB converts a linear amplitude to dBFS; zero maps to -Inf.
func AmplitudeToDB(amplitude float64) float64 {
	if amplitude <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(amplitude)
}

// DBToAmplitude converts dBFS to a linear amplitude.
func DBToAmplitude(db float64) float64 {
	return math.Pow(10, db/20)
}

// Clamp restricts value to the range [min, max]
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// IsFinite reports whether v is neither NaN nor ±Inf.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
