package analyzers

import (
	"errors"
	"fmt"
	"time"

	"github.com/tillrd/lufalyze/algorithms/chroma"
	"github.com/tillrd/lufalyze/algorithms/tonal"
	"github.com/tillrd/lufalyze/engine/config"
	"github.com/tillrd/lufalyze/logging"
)

// MusicTimings are wall-clock durations of the music stages in milliseconds.
type MusicTimings struct {
	ChromaMs float64 `json:"chroma_ms"`
	KeyMs    float64 `json:"key_ms"`
}

// MusicReport is the key estimate and how it was reached.
type MusicReport struct {
	Key         tonal.KeyEstimate    `json:"key"`
	Traditional tonal.KeyEstimate    `json:"traditional"`
	Enhanced    *tonal.KeyPrediction `json:"enhanced,omitempty"`
	State       tonal.HybridState    `json:"state"`
	Reason      string               `json:"reason,omitempty"`
	Timings     MusicTimings         `json:"timings"`
}

// KeyBenchmark compares the profile matcher and the classifier on the same
// input.
type KeyBenchmark struct {
	TraditionalKey string  `json:"traditional_key"`
	TraditionalMs  float64 `json:"traditional_ms"`
	EnhancedKey    string  `json:"enhanced_key,omitempty"`
	EnhancedMs     float64 `json:"enhanced_ms"`
	Agree          bool    `json:"agree"`
	Available      bool    `json:"available"`
}

// MusicAnalyzer runs the chromagram and hybrid key estimation on a mono
// signal.
type MusicAnalyzer struct {
	chroma *chroma.ChromaSTFT
	hybrid *tonal.HybridKeyEstimator
	model  *tonal.KeyClassifier
	logger logging.Logger
}

// NewMusicAnalyzer builds the key pipeline. The classifier is loaded here,
// once; a failure is logged at debug level and leaves the analyzer on
// profile matching alone.
func NewMusicAnalyzer(chromaCfg config.ChromaConfig, keyCfg config.KeyConfig) *MusicAnalyzer {
	logger := logging.WithFields(logging.Fields{"component": "music_analyzer"})

	cs := chroma.NewChromaSTFT()
	cs.WindowSize = chromaCfg.WindowSize
	cs.HopSize = chromaCfg.HopSize
	cs.MinFreq = chromaCfg.MinFreq
	cs.MaxFreq = chromaCfg.MaxFreq
	cs.Tuning = chromaCfg.Tuning

	model, loadErr := loadClassifier(keyCfg)
	if loadErr != nil {
		logger.Debug("Key classifier not loaded", logging.Fields{"error": loadErr.Error()})
	}

	hybrid := tonal.NewHybridKeyEstimator(tonal.NewKeyProfileMatcher(keyCfg.Profiles), model, loadErr)
	if keyCfg.EnhancedThreshold > 0 {
		hybrid.SetThreshold(keyCfg.EnhancedThreshold)
	}

	return &MusicAnalyzer{
		chroma: cs,
		hybrid: hybrid,
		model:  model,
		logger: logger,
	}
}

func loadClassifier(cfg config.KeyConfig) (*tonal.KeyClassifier, error) {
	switch {
	case !cfg.EnableEnhanced:
		return nil, fmt.Errorf("%w: disabled by configuration", tonal.ErrModelUnavailable)
	case cfg.ClassifierPath != "":
		return tonal.LoadKeyClassifierFile(cfg.ClassifierPath)
	default:
		return tonal.DefaultKeyClassifier(), nil
	}
}

// EnhancedAvailable reports whether the classifier loaded.
func (ma *MusicAnalyzer) EnhancedAvailable() bool {
	return ma.hybrid.Available()
}

// Analyze estimates the key of a mono signal.
func (ma *MusicAnalyzer) Analyze(mono []float64, sampleRate float64) (*MusicReport, error) {
	start := time.Now()
	cv, err := ma.chroma.Extract(mono, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("extract chroma: %w", err)
	}
	chromaDone := time.Now()

	res := ma.hybrid.Estimate(cv, mono, sampleRate)

	report := &MusicReport{
		Key:         res.Final,
		Traditional: res.Traditional,
		Enhanced:    res.Enhanced,
		State:       res.State,
		Reason:      res.Reason,
		Timings: MusicTimings{
			ChromaMs: millis(chromaDone.Sub(start)),
			KeyMs:    millis(time.Since(chromaDone)),
		},
	}

	ma.logger.Debug("Key estimated", logging.Fields{
		"key":        report.Key.Key,
		"confidence": report.Key.Confidence,
		"state":      report.State.String(),
	})
	return report, nil
}

// Benchmark times the profile matcher and the classifier separately on the
// chroma of mono.
func (ma *MusicAnalyzer) Benchmark(mono []float64, sampleRate float64) (*KeyBenchmark, error) {
	cv, err := ma.chroma.Extract(mono, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("extract chroma: %w", err)
	}

	b := &KeyBenchmark{Available: ma.model != nil}

	start := time.Now()
	traditional := ma.hybrid.Matcher().Match(cv)
	b.TraditionalMs = millis(time.Since(start))
	b.TraditionalKey = traditional.Key

	if ma.model == nil {
		return b, nil
	}

	start = time.Now()
	aux, err := tonal.ExtractAuxiliaryFeatures(mono, sampleRate)
	if err != nil {
		if errors.Is(err, tonal.ErrInsufficientAudio) {
			b.Available = false
			return b, nil
		}
		return nil, err
	}
	pred, err := ma.model.Predict(tonal.ClassifierInput(cv, aux))
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	b.EnhancedMs = millis(time.Since(start))
	b.EnhancedKey = pred.Key
	b.Agree = pred.Key == traditional.Key
	return b, nil
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
