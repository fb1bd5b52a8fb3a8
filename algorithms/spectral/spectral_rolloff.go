package spectral

// SpectralRolloff finds the frequency below which a fixed share of the total
// spectral magnitude lies.
type SpectralRolloff struct {
	sampleRate float64
	fftSize    int
	fraction   float64
}

// NewSpectralRolloff creates a rolloff calculator; fraction is usually 0.85.
func NewSpectralRolloff(sampleRate float64, fftSize int, fraction float64) *SpectralRolloff {
	return &SpectralRolloff{sampleRate: sampleRate, fftSize: fftSize, fraction: fraction}
}

// Compute returns the rolloff frequency in Hz, or 0 for an empty spectrum.
func (sr *SpectralRolloff) Compute(magnitude []float64) float64 {
	total := 0.0
	for _, m := range magnitude {
		total += m
	}
	if total <= 0 {
		return 0
	}

	threshold := total * sr.fraction
	cumulative := 0.0
	for k, m := range magnitude {
		cumulative += m
		if cumulative >= threshold {
			return float64(k) * sr.sampleRate / float64(sr.fftSize)
		}
	}
	return float64(len(magnitude)-1) * sr.sampleRate / float64(sr.fftSize)
}
