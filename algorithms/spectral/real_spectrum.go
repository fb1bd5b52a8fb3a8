package spectral

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// RealSpectrum computes magnitude spectra of fixed-size real frames with a
// reusable gonum plan. It is not safe for concurrent use; give each goroutine
// its own instance.
type RealSpectrum struct {
	size   int
	plan   *fourier.FFT
	coeffs []complex128
}

// NewRealSpectrum prepares a transform for frames of exactly size samples.
func NewRealSpectrum(size int) *RealSpectrum {
	return &RealSpectrum{
		size:   size,
		plan:   fourier.NewFFT(size),
		coeffs: make([]complex128, size/2+1),
	}
}

// Size returns the frame length the plan was built for.
func (rs *RealSpectrum) Size() int {
	return rs.size
}

// Magnitudes returns size/2+1 magnitudes of frame, reusing dst when possible.
// It panics if len(frame) differs from Size, like the underlying plan.
func (rs *RealSpectrum) Magnitudes(frame []float64, dst []float64) []float64 {
	rs.coeffs = rs.plan.Coefficients(rs.coeffs, frame)

	bins := len(rs.coeffs)
	if cap(dst) < bins {
		dst = make([]float64, bins)
	}
	dst = dst[:bins]
	for i, c := range rs.coeffs {
		dst[i] = cmplx.Abs(c)
	}
	return dst
}

// BinFrequency returns the centre frequency of bin k in Hz.
func (rs *RealSpectrum) BinFrequency(k int, sampleRate float64) float64 {
	return float64(k) * sampleRate / float64(rs.size)
}
