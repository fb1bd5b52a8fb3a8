package chroma

// Vector is the time-averaged energy per pitch class, C first.
type Vector [12]float64

// Sum returns the total energy.
func (v Vector) Sum() float64 {
	s := 0.0
	for _, x := range v {
		s += x
	}
	return s
}

// IsZero reports whether no energy was collected. A zero vector means the key
// is indeterminate, not C.
func (v Vector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Normalized scales the vector to unit sum. A zero vector is returned
// unchanged.
func (v Vector) Normalized() Vector {
	s := v.Sum()
	if s <= 0 {
		return v
	}
	for i := range v {
		v[i] /= s
	}
	return v
}

// Dominant returns the strongest pitch class; ties go to the lower index.
func (v Vector) Dominant() int {
	best := 0
	for i, x := range v {
		if x > v[best] {
			best = i
		}
	}
	return best
}

// Rotate returns the vector shifted so that index root becomes index 0.
func (v Vector) Rotate(root int) Vector {
	var out Vector
	for i := range out {
		out[i] = v[Wrap(i+root)]
	}
	return out
}

// Slice returns the values as a freshly allocated slice.
func (v Vector) Slice() []float64 {
	out := make([]float64, 12)
	copy(out, v[:])
	return out
}
