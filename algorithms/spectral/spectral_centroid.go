package spectral

// SpectralCentroid computes the magnitude-weighted mean frequency of a
// spectrum produced by an fftSize-point transform.
type SpectralCentroid struct {
	sampleRate float64
	fftSize    int
}

// NewSpectralCentroid creates a new spectral centroid calculator
func NewSpectralCentroid(sampleRate float64, fftSize int) *SpectralCentroid {
	return &SpectralCentroid{sampleRate: sampleRate, fftSize: fftSize}
}

// Compute returns the centroid in Hz and whether the spectrum had any energy.
func (sc *SpectralCentroid) Compute(magnitude []float64) (float64, bool) {
	numerator := 0.0
	denominator := 0.0

	binHz := sc.sampleRate / float64(sc.fftSize)
	for k, m := range magnitude {
		numerator += float64(k) * binHz * m
		denominator += m
	}

	if denominator <= 0 {
		return 0, false
	}
	return numerator / denominator, true
}
