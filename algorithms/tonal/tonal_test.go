package tonal

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/tillrd/lufalyze/algorithms/chroma"
	"github.com/tillrd/lufalyze/logging"
)

func krumhanslMajor() chroma.Vector {
	return chroma.Vector{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}
}

func TestEstimateCMajorTemplate(t *testing.T) {
	est := NewKeyProfileMatcher(nil).Match(krumhanslMajor())

	if est.Key != "C Major" || !est.IsMajor || est.RootNote != "C" {
		t.Fatalf("key: got %q (root %s, major %v)", est.Key, est.RootNote, est.IsMajor)
	}
	if est.Confidence < 0.95 {
		t.Errorf("confidence: got %.3f, want >= 0.95", est.Confidence)
	}
	if est.TonalClarity <= 0 || est.TonalClarity > 1 {
		t.Errorf("tonal clarity out of range: %v", est.TonalClarity)
	}
	if est.Relationships == nil || est.Relationships.Relative != "A Minor" || est.Relationships.Dominant != "G Major" {
		t.Errorf("relationships: %+v", est.Relationships)
	}
	if len(est.Scales) == 0 || est.Scales[0].Name != "C Major" {
		t.Errorf("top scale: %+v", est.Scales)
	}
}

func TestEstimateTransposed(t *testing.T) {
	// Rotating the template to start on A gives the same shape rooted at
	// A: index i of the result is the template's degree (i - 9).
	base := krumhanslMajor()
	var c chroma.Vector
	for i := range c {
		c[i] = base[chroma.Wrap(i-9)]
	}
	est := NewKeyProfileMatcher(nil).Match(c)
	if est.Key != "A Major" {
		t.Errorf("got %q, want A Major", est.Key)
	}
}

func TestEstimateMinorTriad(t *testing.T) {
	var c chroma.Vector
	c[9], c[0], c[4] = 1, 1, 1
	est := NewKeyProfileMatcher(nil).Match(c)
	if est.Key != "A Minor" || est.IsMajor {
		t.Errorf("got %q, want A Minor", est.Key)
	}
}

func TestEstimateSilentIsIndeterminate(t *testing.T) {
	est := NewKeyProfileMatcher(nil).Match(chroma.Vector{})
	if !est.Indeterminate || est.Key != Unknown || est.Confidence != 0 {
		t.Errorf("got %+v", est)
	}
	if est.Scales != nil {
		t.Errorf("scales for silence: %v", est.Scales)
	}
}

func TestEstimateTieBreak(t *testing.T) {
	// A flat chroma correlates with nothing, so every key scores the same.
	var c chroma.Vector
	for i := range c {
		c[i] = 1
	}
	est := NewKeyProfileMatcher(nil).Match(c)
	if est.Key != "C Major" {
		t.Errorf("tie: got %q, want C Major", est.Key)
	}
	if est.HarmonicComplexity != 1 {
		t.Errorf("complexity of flat chroma: got %v, want 1", est.HarmonicComplexity)
	}
}

func TestEstimateFlatChromaIsNotConfident(t *testing.T) {
	var flat, nearFlat chroma.Vector
	rng := rand.New(rand.NewSource(9))
	for i := range flat {
		flat[i] = 1
		nearFlat[i] = 1 + rng.Float64()*0.01
	}
	for name, c := range map[string]chroma.Vector{"flat": flat, "near flat": nearFlat} {
		est := NewKeyProfileMatcher(nil).Match(c)
		if est.Indeterminate {
			t.Errorf("%s: unexpectedly indeterminate", name)
			continue
		}
		if est.Confidence >= DefaultEnhancedThreshold {
			t.Errorf("%s: confidence %.3f would skip the classifier", name, est.Confidence)
		}
		if est.Confidence < 0.05 {
			t.Errorf("%s: confidence %.3f below floor", name, est.Confidence)
		}
	}
}

func TestEstimateDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var c chroma.Vector
	for i := range c {
		c[i] = rng.Float64()
	}
	a := NewKeyProfileMatcher(nil).Match(c)
	b := NewKeyProfileMatcher(nil).Match(c)
	if a.Key != b.Key || a.Confidence != b.Confidence || a.TonalClarity != b.TonalClarity {
		t.Errorf("runs differ: %+v vs %+v", a, b)
	}
}

func TestHarmonicComplexity(t *testing.T) {
	var one chroma.Vector
	one[5] = 2
	if got := HarmonicComplexity(one); math.Abs(got) > 1e-12 {
		t.Errorf("single pitch class: got %v, want 0", got)
	}
}

func TestKeyRelationships(t *testing.T) {
	tests := []struct {
		key      Key
		relative string
		parallel string
		dominant string
	}{
		{Key{0, Major}, "A Minor", "C Minor", "G Major"},
		{Key{9, Minor}, "C Major", "A Major", "E Minor"},
		{Key{1, Major}, "A# Minor", "C# Minor", "G# Major"},
	}
	for _, tt := range tests {
		r := tt.key.Relationships()
		if r.Relative != tt.relative || r.Parallel != tt.parallel || r.Dominant != tt.dominant {
			t.Errorf("%s: got %+v", tt.key.Name(), r)
		}
	}
	for i := 0; i < 24; i++ {
		if KeyFromIndex(i).Index() != i {
			t.Errorf("index round trip failed at %d", i)
		}
	}
}

func TestScaleAnalysis(t *testing.T) {
	var triad chroma.Vector
	triad[0], triad[4], triad[7] = 1, 1, 1

	matches := NewScaleAnalyzer().Analyze(triad)
	if len(matches) != 8 {
		t.Fatalf("matches: got %d, want 8", len(matches))
	}
	if matches[0].Name != "C Major" || matches[0].Category != "Major Family" {
		t.Errorf("first match: %+v", matches[0])
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Strength > matches[i-1].Strength {
			t.Errorf("not sorted at %d", i)
		}
	}

	// Every scale containing all of C E G fits perfectly.
	if math.Abs(ScaleFit(triad.Normalized(), []int{0, 2, 4, 5, 7, 9, 11}, 0)-1) > 1e-12 {
		t.Error("C major fit of C triad is not 1")
	}
}

func TestScaleCategory(t *testing.T) {
	tests := map[string]string{
		"Major":            "Major Family",
		"Pentatonic Major": "Major Family",
		"Dorian":           "Minor Family",
		"Pentatonic Minor": "Minor Family",
		"Blues":            "Blues",
		"Locrian":          "Diminished",
		"Hungarian":        "World/Exotic",
		"Whole Tone":       "Other",
	}
	for in, want := range tests {
		if got := ScaleCategory(in); got != want {
			t.Errorf("ScaleCategory(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaultClassifierShape(t *testing.T) {
	kc := DefaultKeyClassifier()
	if err := kc.Validate(); err != nil {
		t.Fatal(err)
	}

	features := make([]float32, ClassifierInputs)
	features[0], features[4], features[7] = 0.33, 0.33, 0.34
	pred, err := kc.Predict(features)
	if err != nil {
		t.Fatal(err)
	}
	if pred.Confidence <= 0 || pred.Confidence > 0.95 {
		t.Errorf("confidence out of range: %v", pred.Confidence)
	}
	if _, err := kc.Predict(features[:3]); err == nil {
		t.Error("expected error for short feature vector")
	}
}

func TestLoadKeyClassifierErrors(t *testing.T) {
	if _, err := LoadKeyClassifier(strings.NewReader("{not json")); !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("bad json: got %v", err)
	}
	if _, err := LoadKeyClassifier(strings.NewReader(`{"encoder": [[1, 2]]}`)); !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("bad shape: got %v", err)
	}
	if _, err := LoadKeyClassifierFile("/nonexistent/model.json"); !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("missing file: got %v", err)
	}
}

// biasedClassifier always predicts key index target with probability ~1.
func biasedClassifier(target int, bias float32) *KeyClassifier {
	kc := DefaultKeyClassifier()
	for _, row := range kc.Encoder {
		clear(row)
	}
	for _, row := range kc.Classifier {
		clear(row)
	}
	clear(kc.ClassifierBias)
	kc.ClassifierBias[target] = bias
	return kc
}

func noise(n int) []float64 {
	rng := rand.New(rand.NewSource(1))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*0.5 - 0.25
	}
	return out
}

func TestHybridTraditionalOnly(t *testing.T) {
	h := NewHybridKeyEstimator(nil, biasedClassifier(7, 20), nil)
	res := h.Estimate(krumhanslMajor(), noise(16000), 16000)

	if res.State != TraditionalOnly || res.Enhanced != nil {
		t.Errorf("state: got %v, enhanced %v", res.State, res.Enhanced)
	}
	if res.Final.Key != "C Major" {
		t.Errorf("key: got %q", res.Final.Key)
	}
}

func lowConfidenceChroma() chroma.Vector {
	// A lone C splits the profiles between several keys.
	var c chroma.Vector
	c[0] = 1
	return c
}

func TestHybridEnhancedAccepted(t *testing.T) {
	h := NewHybridKeyEstimator(nil, biasedClassifier(7, 20), nil)
	res := h.Estimate(lowConfidenceChroma(), noise(16000), 16000)

	if res.Traditional.Confidence >= DefaultEnhancedThreshold {
		t.Fatalf("test chroma too confident: %v", res.Traditional.Confidence)
	}
	if res.State != EnhancedAccepted {
		t.Fatalf("state: got %v (%s)", res.State, res.Reason)
	}
	if res.Final.Key != "G Major" || res.Final.Confidence != 0.95 {
		t.Errorf("final: %q %.3f", res.Final.Key, res.Final.Confidence)
	}
	if res.Traditional.Key == "" || res.Final.Chroma != res.Traditional.Chroma {
		t.Error("traditional estimate not retained")
	}
	want := []HybridState{TraditionalOnly, AttemptEnhanced, EnhancedAccepted}
	if len(res.Path) != len(want) {
		t.Fatalf("path: %v", res.Path)
	}
	for i := range want {
		if res.Path[i] != want[i] {
			t.Errorf("path: %v", res.Path)
		}
	}
}

func TestHybridEnhancedRejected(t *testing.T) {
	// A flat classifier output gives 1/24 · 1.5 confidence.
	h := NewHybridKeyEstimator(nil, biasedClassifier(0, 0), nil)
	res := h.Estimate(lowConfidenceChroma(), noise(16000), 16000)

	if res.State != EnhancedRejected || res.Enhanced == nil {
		t.Fatalf("state: got %v, enhanced %v", res.State, res.Enhanced)
	}
	if res.Final.Key != res.Traditional.Key {
		t.Errorf("final key %q, traditional %q", res.Final.Key, res.Traditional.Key)
	}
}

func TestHybridModelUnavailable(t *testing.T) {
	h := NewHybridKeyEstimator(nil, nil, errors.New("disk on fire"))
	if h.Available() {
		t.Fatal("model reported available")
	}
	res := h.Estimate(lowConfidenceChroma(), noise(16000), 16000)
	if res.State != EnhancedRejected || !strings.Contains(res.Reason, ErrModelUnavailable.Error()) {
		t.Errorf("got %v: %s", res.State, res.Reason)
	}
	want := []HybridState{TraditionalOnly, AttemptEnhanced, EnhancedRejected}
	if len(res.Path) != len(want) || res.Path[1] != want[1] || res.Path[2] != want[2] {
		t.Errorf("path: %v, want %v", res.Path, want)
	}
	if res.Enhanced != nil || res.Final.Key != res.Traditional.Key {
		t.Errorf("classifier consulted without a model: %+v", res.Enhanced)
	}

	// A confident profile match never reaches the missing model.
	res = h.Estimate(krumhanslMajor(), noise(16000), 16000)
	if res.State != TraditionalOnly || len(res.Path) != 1 {
		t.Errorf("confident match: %v %v", res.State, res.Path)
	}
}

func TestHybridShortAudioRejected(t *testing.T) {
	h := NewHybridKeyEstimator(nil, biasedClassifier(7, 20), nil)
	res := h.Estimate(lowConfidenceChroma(), noise(2000), 16000)
	if res.State != EnhancedRejected {
		t.Errorf("state: got %v", res.State)
	}
}

func TestAuxiliaryFeatures(t *testing.T) {
	const sr = 16000.0
	sine := make([]float64, int(sr*8))
	for i := range sine {
		sine[i] = 0.5 * math.Sin(2*math.Pi*1000*float64(i)/sr)
	}
	f, err := ExtractAuxiliaryFeatures(sine, sr)
	if err != nil {
		t.Fatal(err)
	}
	wantCentroid := (1000.0 - 200) / 7800
	if math.Abs(f.Centroid-wantCentroid) > 0.01 {
		t.Errorf("centroid: got %v, want ~%v", f.Centroid, wantCentroid)
	}
	// 2000 crossings per second over 16000 samples per second.
	if math.Abs(f.ZeroCrossing-0.25) > 0.01 {
		t.Errorf("zcr: got %v, want ~0.25", f.ZeroCrossing)
	}
	// RMS of a 0.5 sine is about -9 dBFS.
	if math.Abs(f.RMS-(60-9.03)/60) > 0.01 {
		t.Errorf("rms: got %v", f.RMS)
	}

	if _, err := ExtractAuxiliaryFeatures(make([]float64, 4000), sr); !errors.Is(err, ErrInsufficientAudio) {
		t.Errorf("short input: got %v", err)
	}
}

func TestHybridClassifierFailureIsQuiet(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.GetGlobalLogger()
	logging.SetGlobalLogger(logging.NewWriterLogger(&buf))
	defer logging.SetGlobalLogger(prev)

	kc := biasedClassifier(7, 20)
	kc.ClassifierBias = kc.ClassifierBias[:3]
	h := NewHybridKeyEstimator(nil, kc, nil)
	res := h.Estimate(lowConfidenceChroma(), noise(16000), 16000)

	if res.State != EnhancedRejected || res.Enhanced != nil {
		t.Fatalf("state: got %v, enhanced %v", res.State, res.Enhanced)
	}
	if !strings.Contains(res.Reason, ErrModelUnavailable.Error()) {
		t.Errorf("reason: %s", res.Reason)
	}
	if buf.Len() != 0 {
		t.Errorf("classifier failure logged above debug: %q", buf.String())
	}
}
