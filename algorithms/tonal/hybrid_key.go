package tonal

import (
	"errors"
	"fmt"
	"math"

	"github.com/tillrd/lufalyze/algorithms/chroma"
	"github.com/tillrd/lufalyze/algorithms/common"
	"github.com/tillrd/lufalyze/algorithms/spectral"
	"github.com/tillrd/lufalyze/algorithms/windowing"
	"github.com/tillrd/lufalyze/logging"
)

// HybridState tracks how the hybrid estimator reached its answer.
type HybridState int

const (
	TraditionalOnly HybridState = iota
	AttemptEnhanced
	EnhancedAccepted
	EnhancedRejected
)

func (s HybridState) String() string {
	switch s {
	case TraditionalOnly:
		return "traditional_only"
	case AttemptEnhanced:
		return "attempt_enhanced"
	case EnhancedAccepted:
		return "enhanced_accepted"
	case EnhancedRejected:
		return "enhanced_rejected"
	default:
		return fmt.Sprintf("HybridState(%d)", int(s))
	}
}

func (s HybridState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DefaultEnhancedThreshold is the profile confidence at or above which the
// classifier is not consulted.
const DefaultEnhancedThreshold = 0.8

// Auxiliary feature extraction constants.
const (
	auxFFTSize    = 2048
	auxHopSize    = 1024
	auxMinSamples = 1024
)

// ErrInsufficientAudio is returned when there are too few samples for the
// auxiliary features.
var ErrInsufficientAudio = errors.New("not enough audio for auxiliary features")

// AuxiliaryFeatures are the non-chroma classifier inputs, each in [0, 1].
type AuxiliaryFeatures struct {
	Centroid     float64 `json:"centroid"`
	ZeroCrossing float64 `json:"zero_crossing"`
	RMS          float64 `json:"rms"`
}

// ExtractAuxiliaryFeatures looks at up to min(len/4, 2·sampleRate) samples
// from the start of a mono signal.
func ExtractAuxiliaryFeatures(samples []float64, sampleRate float64) (AuxiliaryFeatures, error) {
	n := min(len(samples)/4, int(2*sampleRate))
	if n < auxMinSamples {
		return AuxiliaryFeatures{}, fmt.Errorf("%w: %d samples, need %d", ErrInsufficientAudio, n, auxMinSamples)
	}
	x := samples[:n]

	var f AuxiliaryFeatures

	// Centroid mapped from [200, 8000] Hz; 0.5 when no frame fits.
	f.Centroid = 0.5
	centroid := spectral.NewSpectralCentroid(sampleRate, auxFFTSize)
	sum, frames := 0.0, 0
	_, err := spectral.NewSTFTWithWorkers(1).Stream(x, auxFFTSize, auxHopSize, windowing.NewHann(auxFFTSize, false),
		func(_, _ int, mag []float64) {
			if c, ok := centroid.Compute(mag[:auxFFTSize/2]); ok {
				sum += c
				frames++
			}
		})
	if err != nil {
		return AuxiliaryFeatures{}, fmt.Errorf("centroid: %w", err)
	}
	if frames > 0 {
		f.Centroid = common.Clamp((sum/float64(frames)-200)/7800, 0, 1)
	}

	crossings := spectral.NewZeroCrossingRate().Crossings(x)
	f.ZeroCrossing = min(float64(crossings)/float64(n)*2, 1)

	if rms := common.RMS(x); rms > 0 {
		f.RMS = common.Clamp((common.AmplitudeToDB(rms)+60)/60, 0, 1)
	}
	return f, nil
}

// HybridResult is the final key plus how it was chosen.
type HybridResult struct {
	Final       KeyEstimate    `json:"final"`
	Traditional KeyEstimate    `json:"traditional"`
	Enhanced    *KeyPrediction `json:"enhanced,omitempty"`
	State       HybridState    `json:"state"`
	Path        []HybridState  `json:"path"`
	Reason      string         `json:"reason,omitempty"`
}

// HybridKeyEstimator runs the profile matcher first and consults the key
// classifier only when the profiles are unsure. A classifier that failed to
// load is remembered and never retried.
type HybridKeyEstimator struct {
	matcher   *KeyProfileMatcher
	model     *KeyClassifier
	modelErr  error
	threshold float64
	logger    logging.Logger
}

// NewHybridKeyEstimator wraps matcher. loadErr is the outcome of loading
// model; a non-nil loadErr or nil model marks the classifier unavailable.
func NewHybridKeyEstimator(matcher *KeyProfileMatcher, model *KeyClassifier, loadErr error) *HybridKeyEstimator {
	if matcher == nil {
		matcher = NewKeyProfileMatcher(nil)
	}
	logger := logging.WithFields(logging.Fields{"component": "hybrid_key"})

	if loadErr == nil && model == nil {
		loadErr = ErrModelUnavailable
	}
	if loadErr != nil {
		if !errors.Is(loadErr, ErrModelUnavailable) {
			loadErr = fmt.Errorf("%w: %v", ErrModelUnavailable, loadErr)
		}
		model = nil
		logger.Debug("key classifier disabled", logging.Fields{"reason": loadErr.Error()})
	}

	return &HybridKeyEstimator{
		matcher:   matcher,
		model:     model,
		modelErr:  loadErr,
		threshold: DefaultEnhancedThreshold,
		logger:    logger,
	}
}

// SetThreshold changes the confidence above which the classifier is skipped.
func (h *HybridKeyEstimator) SetThreshold(t float64) {
	h.threshold = t
}

// Available reports whether the classifier loaded.
func (h *HybridKeyEstimator) Available() bool {
	return h.model != nil
}

// Estimate picks a key for c, using samples only if the classifier runs.
func (h *HybridKeyEstimator) Estimate(c chroma.Vector, samples []float64, sampleRate float64) HybridResult {
	traditional := h.matcher.Match(c)
	res := HybridResult{
		Final:       traditional,
		Traditional: traditional,
		State:       TraditionalOnly,
		Path:        []HybridState{TraditionalOnly},
	}

	if traditional.Indeterminate {
		res.Reason = "no tonal content"
		return res
	}
	if traditional.Confidence >= h.threshold {
		return res
	}

	res.Path = append(res.Path, AttemptEnhanced)
	reject := func(reason string) HybridResult {
		res.State = EnhancedRejected
		res.Path = append(res.Path, EnhancedRejected)
		res.Reason = reason
		return res
	}

	if h.model == nil {
		return reject(h.modelErr.Error())
	}

	aux, err := ExtractAuxiliaryFeatures(samples, sampleRate)
	if err != nil {
		h.logger.Debug("skipping key classifier", logging.Fields{"error": err.Error()})
		return reject(err.Error())
	}

	pred, err := h.model.Predict(ClassifierInput(c, aux))
	if err != nil {
		h.logger.Debug("key classifier failed", logging.Fields{"error": err.Error()})
		return reject(err.Error())
	}
	res.Enhanced = &pred

	if pred.Confidence <= traditional.Confidence {
		return reject(fmt.Sprintf("classifier confidence %.3f does not beat %.3f", pred.Confidence, traditional.Confidence))
	}

	res.State = EnhancedAccepted
	res.Path = append(res.Path, EnhancedAccepted)
	res.Final = h.promote(traditional, pred)
	return res
}

// promote rewrites the traditional estimate around the classifier's key.
// Chroma-derived fields are unchanged.
func (h *HybridKeyEstimator) promote(base KeyEstimate, pred KeyPrediction) KeyEstimate {
	k := pred.Winner
	rel := k.Relationships()

	out := base
	out.Key = k.Name()
	out.RootNote = chroma.PitchClassName(k.Root)
	out.IsMajor = k.Mode == Major
	out.Confidence = pred.Confidence
	out.Relationships = &rel
	out.Winner = k
	return out
}

// ClassifierInput is the unit-sum chroma followed by the auxiliary features.
func ClassifierInput(c chroma.Vector, aux AuxiliaryFeatures) []float32 {
	p := c.Normalized()
	in := make([]float32, 0, ClassifierInputs)
	for _, v := range p {
		in = append(in, float32(v))
	}
	for _, v := range []float64{aux.Centroid, aux.ZeroCrossing, aux.RMS} {
		if math.IsNaN(v) {
			v = 0
		}
		in = append(in, float32(v))
	}
	return in
}

// Matcher returns the underlying profile matcher.
func (h *HybridKeyEstimator) Matcher() *KeyProfileMatcher {
	return h.matcher
}
