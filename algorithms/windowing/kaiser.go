package windowing

import (
	"math"
)

// Kaiser is a Kaiser-Bessel window. The true-peak oversampler uses it to
// taper its windowed-sinc interpolation kernel.
type Kaiser struct {
	size         int
	beta         float64
	coefficients []float64
}

// NewKaiser creates a symmetric Kaiser window of the given size and shape.
func NewKaiser(size int, beta float64) *Kaiser {
	k := &Kaiser{size: size, beta: beta}
	k.generate()
	return k
}

func (k *Kaiser) generate() {
	k.coefficients = make([]float64, k.size)
	if k.size == 1 {
		k.coefficients[0] = 1
		return
	}

	i0Beta := BesselI0(k.beta)
	denominator := float64(k.size - 1)
	for i := 0; i < k.size; i++ {
		arg := 2.0*float64(i)/denominator - 1.0
		k.coefficients[i] = BesselI0(k.beta*math.Sqrt(1-arg*arg)) / i0Beta
	}
}

// At evaluates the continuous Kaiser taper at position t ∈ [-1, 1].
// Outside that interval the taper is zero.
func (k *Kaiser) At(t float64) float64 {
	if t < -1 || t > 1 {
		return 0
	}
	return BesselI0(k.beta*math.Sqrt(1-t*t)) / BesselI0(k.beta)
}

// GetCoefficients returns a copy of the window coefficients
func (k *Kaiser) GetCoefficients() []float64 {
	coeffs := make([]float64, len(k.coefficients))
	copy(coeffs, k.coefficients)
	return coeffs
}

// BesselI0 computes the zero-order modified Bessel function of the first kind
// by power series.
func BesselI0(x float64) float64 {
	sum := 1.0
	term := 1.0

	for i := 1; i < 50; i++ {
		half := x / (2.0 * float64(i))
		term *= half * half
		sum += term
		if term < 1e-12*sum {
			break
		}
	}
	return sum
}
