package spectral

// ZeroCrossingRate counts sign changes, treating zero as positive.
type ZeroCrossingRate struct{}

// NewZeroCrossingRate creates a new zero crossing rate calculator
func NewZeroCrossingRate() *ZeroCrossingRate {
	return &ZeroCrossingRate{}
}

// Crossings returns the number of sign changes between adjacent samples.
func (zcr *ZeroCrossingRate) Crossings(frame []float64) int {
	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i-1] >= 0) != (frame[i] >= 0) {
			crossings++
		}
	}
	return crossings
}

// ComputeNormalized returns crossings per adjacent pair, doubled and capped
// at 1, so a signal alternating every sample maps to 1.
func (zcr *ZeroCrossingRate) ComputeNormalized(frame []float64) float64 {
	if len(frame) < 2 {
		return 0.0
	}
	rate := float64(zcr.Crossings(frame)) / float64(len(frame)-1) * 2
	return min(rate, 1.0)
}
