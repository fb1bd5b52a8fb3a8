package chroma

import (
	"fmt"

	"github.com/tillrd/lufalyze/algorithms/spectral"
	"github.com/tillrd/lufalyze/algorithms/windowing"
)

// Defaults for the key-detection chromagram.
const (
	DefaultWindowSize = 4096
	DefaultHopSize    = 1024
	DefaultMinFreq    = 80.0
	DefaultMaxFreq    = 8000.0
	DefaultTuning     = 440.0
)

// ChromaSTFT folds the magnitude spectrum of a sliding Hann window into 12
// pitch-class bins and averages over all windows.
//
// Unlike spectral.STFT this keeps no per-frame output: the only product is
// the long-term average, which is what profile-based key matching wants.
// Frequencies outside [MinFreq, MaxFreq] are ignored so sub-bass rumble and
// cymbal hiss do not bias the profile.
type ChromaSTFT struct {
	WindowSize int
	HopSize    int
	MinFreq    float64
	MaxFreq    float64
	Tuning     float64

	stft   *spectral.STFT
	window *windowing.Hann
}

// NewChromaSTFT returns an extractor with a 4096 window, 1024 hop and
// A4 = 440 Hz.
func NewChromaSTFT() *ChromaSTFT {
	return NewChromaSTFTWithWorkers(0)
}

// NewChromaSTFTWithWorkers fixes the STFT worker count; 0 picks one from the
// workload and 1 keeps everything on the calling goroutine.
func NewChromaSTFTWithWorkers(workers int) *ChromaSTFT {
	stft := spectral.NewSTFT()
	if workers > 0 {
		stft = spectral.NewSTFTWithWorkers(workers)
	}
	return &ChromaSTFT{
		WindowSize: DefaultWindowSize,
		HopSize:    DefaultHopSize,
		MinFreq:    DefaultMinFreq,
		MaxFreq:    DefaultMaxFreq,
		Tuning:     DefaultTuning,
		stft:       stft,
		window:     windowing.NewHann(DefaultWindowSize, true),
	}
}

// Extract computes the chroma vector of a mono signal. Input shorter than
// one window yields a zero vector and no error.
func (cs *ChromaSTFT) Extract(samples []float64, sampleRate float64) (Vector, error) {
	var out Vector
	if sampleRate <= 0 {
		return out, fmt.Errorf("sample rate must be positive, got %v", sampleRate)
	}

	window := cs.window
	if window == nil || window.GetSize() != cs.WindowSize {
		window = windowing.NewHann(cs.WindowSize, true)
	}

	mapping := cs.binMapping(sampleRate)
	frames := spectral.FrameCount(len(samples), cs.WindowSize, cs.HopSize)
	if frames == 0 {
		return out, nil
	}

	// One accumulator per worker, merged in worker order below so the sum is
	// the same on every run.
	partial := make([]Vector, cs.stft.Workers(frames))

	n, err := cs.stft.Stream(samples, cs.WindowSize, cs.HopSize, window, func(worker, _ int, mag []float64) {
		acc := &partial[worker]
		for k, pc := range mapping {
			if pc >= 0 {
				acc[pc] += mag[k]
			}
		}
	})
	if err != nil {
		return out, fmt.Errorf("chroma stft: %w", err)
	}

	for _, p := range partial {
		for i := range out {
			out[i] += p[i]
		}
	}
	for i := range out {
		out[i] /= float64(n)
	}
	return out, nil
}

// binMapping assigns each FFT bin below Nyquist a pitch class, or -1 when it
// falls outside the analysis band.
func (cs *ChromaSTFT) binMapping(sampleRate float64) []int {
	bins := cs.WindowSize / 2
	mapping := make([]int, bins)
	resolution := sampleRate / float64(cs.WindowSize)

	for k := range mapping {
		f := float64(k) * resolution
		if f < cs.MinFreq || f > cs.MaxFreq {
			mapping[k] = -1
			continue
		}
		mapping[k] = FrequencyToPitchClass(f, cs.Tuning)
	}
	return mapping
}
