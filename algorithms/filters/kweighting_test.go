package filters

import (
	"math"
	"math/cmplx"
	"testing"
)

// BS.1770-4 Annex 1 tables for 48 kHz.
var (
	refShelf48 = BiquadCoefficients{
		B0: 1.53512485958697, B1: -2.69169618940638, B2: 1.19839281085285,
		A1: -1.69065929318241, A2: 0.73248077421585,
	}
	refHighPass48 = BiquadCoefficients{
		B0: 1.0, B1: -2.0, B2: 1.0,
		A1: -1.99004745483398, A2: 0.99007225036621,
	}
)

func TestKWeightingCoefficients48k(t *testing.T) {
	hp, shelf := NewKWeighting(48000).Coefficients()

	check := func(name string, got, want BiquadCoefficients, tol float64) {
		t.Helper()
		pairs := [][2]float64{
			{got.B0, want.B0}, {got.B1, want.B1}, {got.B2, want.B2},
			{got.A1, want.A1}, {got.A2, want.A2},
		}
		for i, p := range pairs {
			if math.Abs(p[0]-p[1]) > tol {
				t.Errorf("%s coefficient %d: got %.14f, want %.14f", name, i, p[0], p[1])
			}
		}
	}
	check("shelf", shelf, refShelf48, 1e-6)
	check("high-pass", hp, refHighPass48, 1e-6)
}

func response(c BiquadCoefficients, f, fs float64) float64 {
	z := cmplx.Exp(complex(0, -2*math.Pi*f/fs))
	num := complex(c.B0, 0) + complex(c.B1, 0)*z + complex(c.B2, 0)*z*z
	den := 1 + complex(c.A1, 0)*z + complex(c.A2, 0)*z*z
	return cmplx.Abs(num / den)
}

func TestKWeightingResponseAcrossRates(t *testing.T) {
	for _, fs := range []float64{44100, 48000, 96000} {
		kw := NewKWeighting(fs)
		hp, shelf := kw.Coefficients()
		gain := func(f float64) float64 {
			return 20 * math.Log10(response(hp, f, fs)*response(shelf, f, fs))
		}

		// Near-flat at 1 kHz, about +4 dB in the treble, strong cut at 20 Hz.
		if g := gain(1000); math.Abs(g-0.69) > 0.1 {
			t.Errorf("fs=%v: gain at 1 kHz %.3f dB, want ~0.69", fs, g)
		}
		if g := gain(10000); math.Abs(g-4.0) > 0.2 {
			t.Errorf("fs=%v: gain at 10 kHz %.3f dB, want ~4", fs, g)
		}
		if g := gain(20); g > -10 {
			t.Errorf("fs=%v: gain at 20 Hz %.3f dB, want < -10", fs, g)
		}
	}
}

func TestKWeightingApplyFreshState(t *testing.T) {
	kw := NewKWeighting(48000)
	in := make([]float64, 1000)
	in[0] = 1

	a := kw.Apply(in)
	b := kw.Apply(in)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs between calls: %v vs %v", i, a[i], b[i])
		}
	}
	if in[0] != 1 || in[1] != 0 {
		t.Error("input mutated")
	}
}

func TestKWeightingPropagatesNaN(t *testing.T) {
	out := NewKWeighting(44100).Apply([]float64{0, math.NaN(), 0})
	if !math.IsNaN(out[1]) || !math.IsNaN(out[2]) {
		t.Errorf("NaN not propagated: %v", out)
	}
}

func TestBiquadReset(t *testing.T) {
	bq := NewBiquad(refShelf48)
	first := bq.Process(1)
	bq.Process(0.5)
	bq.Reset()
	if got := bq.Process(1); got != first {
		t.Errorf("after reset: got %v, want %v", got, first)
	}
}
