package windowing

import (
	"math"
	"testing"
)

func TestHannSymmetricEndpoints(t *testing.T) {
	h := NewHann(4096, true)
	c := h.GetCoefficients()

	if c[0] != 0 || math.Abs(c[len(c)-1]) > 1e-12 {
		t.Errorf("endpoints: got %v, %v, want 0", c[0], c[len(c)-1])
	}
	for _, n := range []int{1, 100, 2047, 3000} {
		want := 0.5 * (1 - math.Cos(2*math.Pi*float64(n)/4095))
		if math.Abs(c[n]-want) > 1e-12 {
			t.Errorf("c[%d]: got %v, want %v", n, c[n], want)
		}
	}
}

func TestHannPeriodic(t *testing.T) {
	h := NewHann(8, false)
	c := h.GetCoefficients()
	if math.Abs(c[4]-1) > 1e-12 {
		t.Errorf("periodic midpoint: got %v, want 1", c[4])
	}
}

func TestHannApplyInPlaceSizeMismatch(t *testing.T) {
	h := NewHann(16, true)
	if err := h.ApplyInPlace(make([]float64, 8)); err == nil {
		t.Error("expected size mismatch error")
	}
	if got := h.Apply(make([]float64, 8)); got != nil {
		t.Errorf("Apply with wrong size: got %v, want nil", got)
	}
}

func TestKaiserSymmetry(t *testing.T) {
	k := NewKaiser(49, 5)
	c := k.GetCoefficients()
	for i := range c {
		if math.Abs(c[i]-c[len(c)-1-i]) > 1e-12 {
			t.Fatalf("asymmetric at %d", i)
		}
	}
	if math.Abs(c[24]-1) > 1e-12 {
		t.Errorf("center: got %v, want 1", c[24])
	}
	if math.Abs(k.At(0)-1) > 1e-12 || k.At(1.5) != 0 {
		t.Error("continuous taper out of range")
	}
}

func TestBesselI0(t *testing.T) {
	// Reference values from Abramowitz & Stegun table 9.8.
	tests := []struct{ x, want float64 }{
		{0, 1},
		{1, 1.2660658777520082},
		{5, 27.239871823604442},
	}
	for _, tt := range tests {
		if got := BesselI0(tt.x); math.Abs(got-tt.want)/tt.want > 1e-9 {
			t.Errorf("BesselI0(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}
