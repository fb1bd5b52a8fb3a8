package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps mjibson/go-dsp for arbitrary-length real transforms.
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Magnitudes returns |X[k]| for k in [0, len(x)/2], writing into dst when it
// has enough capacity.
func (f *FFT) Magnitudes(x []float64, dst []float64) []float64 {
	bins := len(x)/2 + 1
	if cap(dst) < bins {
		dst = make([]float64, bins)
	}
	dst = dst[:bins]
	if len(x) == 0 {
		return dst[:0]
	}

	spectrum := fft.FFTReal(x)
	for i := 0; i < bins; i++ {
		dst[i] = cmplx.Abs(spectrum[i])
	}
	return dst
}
