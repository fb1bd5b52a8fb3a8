package windowing

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/window"
)

// Hann is a raised-cosine window.
//
// The symmetric form 0.5(1-cos(2πn/(N-1))) is what the chromagram and the
// technical spectrum expect; the periodic form divides by N instead and is
// kept for STFT resynthesis-style framing.
type Hann struct {
	size         int
	symmetric    bool
	coefficients []float64
}

// NewHann creates a new Hann window
func NewHann(size int, symmetric bool) *Hann {
	h := &Hann{
		size:      size,
		symmetric: symmetric,
	}
	h.generate()
	return h
}

func (h *Hann) generate() {
	if h.size <= 0 {
		h.coefficients = []float64{}
		return
	}

	if h.symmetric {
		h.coefficients = window.Hann(h.size)
		return
	}

	h.coefficients = make([]float64, h.size)
	for i := 0; i < h.size; i++ {
		h.coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/float64(h.size)))
	}
}

// Apply applies the window to a signal (creates new array)
func (h *Hann) Apply(signal []float64) []float64 {
	if len(signal) != h.size {
		return nil
	}

	windowed := make([]float64, h.size)
	for i, c := range h.coefficients {
		windowed[i] = signal[i] * c
	}
	return windowed
}

// ApplyInPlace applies the window to a signal in-place
func (h *Hann) ApplyInPlace(signal []float64) error {
	if len(signal) != h.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), h.size)
	}

	for i, c := range h.coefficients {
		signal[i] *= c
	}
	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (h *Hann) GetCoefficients() []float64 {
	coeffs := make([]float64, len(h.coefficients))
	copy(coeffs, h.coefficients)
	return coeffs
}

// GetSize returns the window size
func (h *Hann) GetSize() int {
	return h.size
}
