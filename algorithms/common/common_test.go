package common

import (
	"math"
	"testing"
)

func TestStatistics(t *testing.T) {
	data := []float64{1, 2, 3, 4}

	if got := Mean(data); got != 2.5 {
		t.Errorf("Mean: got %v, want 2.5", got)
	}
	if got := PopulationVariance(data); math.Abs(got-1.25) > 1e-12 {
		t.Errorf("PopulationVariance: got %v, want 1.25", got)
	}
	if got := RMS([]float64{3, -3}); got != 3 {
		t.Errorf("RMS: got %v, want 3", got)
	}
	if got := Mean(nil); got != 0 {
		t.Errorf("Mean(nil): got %v", got)
	}
}

func TestIndexPercentile(t *testing.T) {
	sorted := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	if got := IndexPercentile(sorted, 0.9); got != 9 {
		t.Errorf("p90: got %v, want 9", got)
	}
	if got := IndexPercentile(sorted, 0.1); got != 1 {
		t.Errorf("p10: got %v, want 1", got)
	}
	if got := IndexPercentile(sorted, 1); got != 9 {
		t.Errorf("p100: got %v, want 9", got)
	}
}

func TestDBConversions(t *testing.T) {
	if !math.IsInf(AmplitudeToDB(0), -1) {
		t.Error("AmplitudeToDB(0) should be -Inf")
	}
	if got := AmplitudeToDB(0.1); math.Abs(got+20) > 1e-12 {
		t.Errorf("AmplitudeToDB(0.1): got %v, want -20", got)
	}
	if got := DBToAmplitude(-6.0206); math.Abs(got-0.5) > 1e-4 {
		t.Errorf("DBToAmplitude: got %v, want 0.5", got)
	}
}

func TestBufferPoolClearsOnGet(t *testing.T) {
	bp := NewBufferPool()
	buf := bp.Get(64)
	for i := range buf {
		buf[i] = 1
	}
	bp.Put(buf)

	for i := 0; i < 4; i++ {
		next := bp.Get(32)
		if len(next) != 32 {
			t.Fatalf("len: got %d, want 32", len(next))
		}
		for i, v := range next {
			if v != 0 {
				t.Fatalf("index %d not cleared: %v", i, v)
			}
		}
		bp.Put(next)
	}
}

func TestIsFinite(t *testing.T) {
	if IsFinite(math.NaN()) || IsFinite(math.Inf(1)) || !IsFinite(0) {
		t.Error("IsFinite misclassified")
	}
}

func TestPearson(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	if got := Pearson(x, []float64{2, 4, 6, 8, 10}); math.Abs(got-1) > 1e-12 {
		t.Errorf("scaled copy: got %v, want 1", got)
	}
	if got := Pearson(x, []float64{5, 4, 3, 2, 1}); math.Abs(got+1) > 1e-12 {
		t.Errorf("reversed: got %v, want -1", got)
	}
	// Constant input has no spread; gonum alone would give NaN.
	if got := Pearson(x, []float64{3, 3, 3, 3, 3}); got != 0 {
		t.Errorf("constant: got %v, want 0", got)
	}
	if got := Pearson(x, x[:3]); got != 0 {
		t.Errorf("length mismatch: got %v, want 0", got)
	}
}
