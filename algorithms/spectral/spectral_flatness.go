package spectral

import (
	"math"
)

// SpectralFlatness is the Wiener entropy of a magnitude spectrum: geometric
// mean over arithmetic mean, 1 for white noise and near 0 for a pure tone.
type SpectralFlatness struct {
	floor float64
}

// NewSpectralFlatness creates a flatness calculator; bins at or below floor
// are left out of both means.
func NewSpectralFlatness(floor float64) *SpectralFlatness {
	return &SpectralFlatness{floor: floor}
}

// Compute returns flatness over magnitude[1:] (DC excluded).
func (sf *SpectralFlatness) Compute(magnitude []float64) float64 {
	if len(magnitude) < 2 {
		return 0
	}

	bins := magnitude[1:]
	logSum := 0.0
	arithmetic := 0.0
	for _, m := range bins {
		if m > sf.floor {
			logSum += math.Log(m)
			arithmetic += m
		}
	}

	n := float64(len(bins))
	arithmetic /= n
	if arithmetic <= 0 {
		return 0
	}
	geometric := math.Exp(logSum / n)
	return geometric / arithmetic
}
