package filters

import (
	"math"
)

// KWeighting is the ITU-R BS.1770-4 frequency weighting: a second-order
// high-pass (the "RLB" curve) followed by a +4 dB high-frequency shelf that
// models the acoustic effect of the head.
//
// Coefficients are derived analytically for the actual sample rate from the
// analog prototype through the bilinear transform, so 44.1 kHz, 48 kHz and
// 96 kHz all reproduce the published response. At 48 kHz they match the
// tables in BS.1770-4 to within 1e-6.
//
// References:
//   - ITU-R BS.1770-4, "Algorithms to measure audio programme loudness and
//     true-peak audio level", Annex 1
//   - libebur128 (ebur128_init_filter) for the prototype parameters
//
// A KWeighting value holds only coefficients and is safe to share; each call
// to Apply runs with its own zeroed filter state.
type KWeighting struct {
	sampleRate float64
	highPass   BiquadCoefficients
	shelf      BiquadCoefficients
}

// Analog prototype parameters of the two stages.
const (
	shelfFrequency = 1681.974450955533
	shelfGainDB    = 3.999843853973347
	shelfQ         = 0.7071752369554196

	highPassFrequency = 38.13547087602444
	highPassQ         = 0.5003270373238773
)

// NewKWeighting designs both stages for sampleRate (Hz).
func NewKWeighting(sampleRate float64) *KWeighting {
	return &KWeighting{
		sampleRate: sampleRate,
		highPass:   designHighPass(sampleRate),
		shelf:      designShelf(sampleRate),
	}
}

func designShelf(fs float64) BiquadCoefficients {
	vh := math.Pow(10, shelfGainDB/20)
	vb := math.Pow(vh, 0.4996667741545416)
	k := math.Tan(math.Pi * shelfFrequency / fs)
	a0 := 1 + k/shelfQ + k*k

	return BiquadCoefficients{
		B0: (vh + vb*k/shelfQ + k*k) / a0,
		B1: 2 * (k*k - vh) / a0,
		B2: (vh - vb*k/shelfQ + k*k) / a0,
		A1: 2 * (k*k - 1) / a0,
		A2: (1 - k/shelfQ + k*k) / a0,
	}
}

func designHighPass(fs float64) BiquadCoefficients {
	k := math.Tan(math.Pi * highPassFrequency / fs)
	a0 := 1 + k/highPassQ + k*k

	// The numerator stays unnormalized [1, -2, 1] as in the BS.1770-4 tables;
	// the -0.691 dB loudness offset is calibrated against that gain.
	return BiquadCoefficients{
		B0: 1,
		B1: -2,
		B2: 1,
		A1: 2 * (k*k - 1) / a0,
		A2: (1 - k/highPassQ + k*k) / a0,
	}
}

// Coefficients returns the high-pass and shelf sections.
func (kw *KWeighting) Coefficients() (highPass, shelf BiquadCoefficients) {
	return kw.highPass, kw.shelf
}

// SampleRate returns the design rate in Hz.
func (kw *KWeighting) SampleRate() float64 {
	return kw.sampleRate
}

// Apply filters one channel and returns a new slice. NaN or Inf input
// propagates to the output.
func (kw *KWeighting) Apply(samples []float64) []float64 {
	out := make([]float64, len(samples))
	kw.ApplyInto(out, samples)
	return out
}

// ApplyInto filters samples into dst (len(dst) >= len(samples)), which may
// come from a buffer pool. dst and samples may alias.
func (kw *KWeighting) ApplyInto(dst, samples []float64) {
	hp := NewBiquad(kw.highPass)
	shelf := NewBiquad(kw.shelf)
	for i, x := range samples {
		dst[i] = shelf.Process(hp.Process(x))
	}
}
