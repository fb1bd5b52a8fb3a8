package filters

// BiquadCoefficients are normalized second-order section coefficients
// (a0 == 1) for
//
//	y[n] = b0·x[n] + b1·x[n-1] + b2·x[n-2] - a1·y[n-1] - a2·y[n-2]
type BiquadCoefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Biquad is one second-order section in transposed direct form II. The two
// state variables are the section's whole memory; a Biquad must not be
// shared between channels.
type Biquad struct {
	c      BiquadCoefficients
	z1, z2 float64
}

// NewBiquad creates a section with cleared state.
func NewBiquad(c BiquadCoefficients) *Biquad {
	return &Biquad{c: c}
}

// Process filters one sample.
func (bq *Biquad) Process(in float64) float64 {
	out := bq.c.B0*in + bq.z1
	bq.z1 = bq.c.B1*in - bq.c.A1*out + bq.z2
	bq.z2 = bq.c.B2*in - bq.c.A2*out
	return out
}

// Reset clears the delay line.
func (bq *Biquad) Reset() {
	bq.z1, bq.z2 = 0, 0
}
