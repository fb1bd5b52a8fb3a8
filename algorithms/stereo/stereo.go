package stereo

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/tillrd/lufalyze/algorithms/common"
)

// Imaging classes, best first.
const (
	ImagingProfessional  = "Professional"
	ImagingHighQuality   = "High Quality"
	ImagingGood          = "Good"
	ImagingFair          = "Fair"
	ImagingPoor          = "Poor"
	ImagingNotApplicable = "Not Applicable"
)

// Result describes the stereo image of a two-channel signal. For any other
// channel count Applicable is false and the numeric fields hold neutral
// values.
type Result struct {
	Applicable        bool    `json:"applicable"`
	Channels          int     `json:"channels"`
	PhaseCorrelation  float64 `json:"phase_correlation"`
	StereoWidth       float64 `json:"stereo_width"`
	BalanceDB         float64 `json:"balance_db"`
	MonoCompatibility float64 `json:"mono_compatibility"`
	ImagingScore      float64 `json:"imaging_score"`
	Imaging           string  `json:"imaging"`
	AnalyzedSeconds   float64 `json:"analyzed_seconds"`
}

// Analyzer measures phase correlation, mid/side width, level balance and
// mono fold-down loss over at most MaxSeconds of audio.
type Analyzer struct {
	MaxSeconds    float64
	ImagingWindow int
}

// NewAnalyzer returns an analyzer looking at the first 60 s with 512-frame
// imaging windows.
func NewAnalyzer() *Analyzer {
	return &Analyzer{MaxSeconds: 60, ImagingWindow: 512}
}

// Analyze inspects deinterleaved channels.
func (a *Analyzer) Analyze(channels [][]float64, sampleRate float64) Result {
	if len(channels) != 2 {
		return Result{
			Applicable:        false,
			Channels:          len(channels),
			MonoCompatibility: 1,
			Imaging:           ImagingNotApplicable,
		}
	}

	n := min(len(channels[0]), len(channels[1]))
	if a.MaxSeconds > 0 {
		n = min(n, int(a.MaxSeconds*sampleRate))
	}
	left, right := channels[0][:n], channels[1][:n]

	res := Result{
		Applicable:        true,
		Channels:          2,
		PhaseCorrelation:  PhaseCorrelation(left, right),
		StereoWidth:       Width(left, right),
		BalanceDB:         Balance(left, right),
		MonoCompatibility: MonoCompatibility(left, right),
		AnalyzedSeconds:   float64(n) / sampleRate,
	}
	res.ImagingScore = a.imagingScore(left, right, sampleRate)
	res.Imaging = Classify(res.PhaseCorrelation, res.StereoWidth, res.MonoCompatibility)
	return res
}

// energies holds Σl², Σr² and Σlr for a pair of equal-length channels.
type energies struct {
	ll, rr, lr float64
}

func measure(left, right []float64) energies {
	return energies{
		ll: floats.Dot(left, left),
		rr: floats.Dot(right, right),
		lr: floats.Dot(left, right),
	}
}

// PhaseCorrelation is Σlr / sqrt(Σl²·Σr²) in [-1, 1], as shown by a
// correlation meter. Silent input gives 0.
func PhaseCorrelation(left, right []float64) float64 {
	if len(left) == 0 || len(left) != len(right) {
		return 0
	}

	return measure(left, right).correlation()
}

func (e energies) correlation() float64 {
	den := math.Sqrt(e.ll * e.rr)
	if den <= 1e-10 {
		return 0
	}
	return max(-1, min(1, e.lr/den))
}

// Width is the side share of mid+side energy, doubled and capped at 1:
// 0 for mono, 1 for uncorrelated or wider material.
func Width(left, right []float64) float64 {
	if len(left) == 0 || len(left) != len(right) {
		return 0
	}

	// With m = (l+r)/2 and s = (l-r)/2, Σm² + Σs² = (Σl² + Σr²)/2.
	e := measure(left, right)
	side := max((e.ll+e.rr-2*e.lr)/4, 0)
	total := (e.ll + e.rr) / 2
	if total <= 1e-10 {
		return 0
	}
	return min(side/total*2, 1)
}

// Balance is 20·log10(rms_R / rms_L); positive means the right channel is
// louder. A single silent channel pins the result to ±20 dB.
func Balance(left, right []float64) float64 {
	if len(left) == 0 || len(left) != len(right) {
		return 0
	}

	lrms, rrms := common.RMS(left), common.RMS(right)
	switch {
	case lrms > 1e-10 && rrms > 1e-10:
		return 20 * math.Log10(rrms/lrms)
	case rrms > 1e-10:
		return 20
	case lrms > 1e-10:
		return -20
	default:
		return 0
	}
}

// MonoCompatibility is the energy kept by an (L+R)/2 fold-down relative to
// the stereo energy, capped at 1. Silence is fully compatible.
func MonoCompatibility(left, right []float64) float64 {
	if len(left) == 0 || len(left) != len(right) {
		return 1
	}

	// Both output channels carry the fold-down: 2·Σ((l+r)/2)².
	e := measure(left, right)
	stereo := e.ll + e.rr
	mono := max((e.ll+e.rr+2*e.lr)/2, 0)
	if stereo <= 1e-10 {
		return 1
	}
	return min(mono/stereo, 1)
}

// imagingScore averages |correlation|·sqrt(energy) over short windows; long
// programmes step by a full window, short ones by half.
func (a *Analyzer) imagingScore(left, right []float64, sampleRate float64) float64 {
	window := min(a.ImagingWindow, len(left))
	if window == 0 {
		return 0
	}

	step := window / 2
	if float64(len(left)) > sampleRate*10 {
		step = window
	}
	step = max(step, 1)

	sum, count := 0.0, 0
	for start := 0; start+window < len(left); start += step {
		wl := left[start : start+window]
		wr := right[start : start+window]

		e := measure(wl, wr)
		if energy := e.ll + e.rr; energy > 1e-8 {
			sum += math.Abs(e.correlation()) * math.Sqrt(energy)
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return min(sum/float64(count), 1)
}

// Classify maps the mean of |correlation|, width and mono compatibility to
// an imaging class.
func Classify(correlation, width, mono float64) string {
	score := (math.Abs(correlation) + width + mono) / 3
	switch {
	case score >= 0.85:
		return ImagingProfessional
	case score >= 0.7:
		return ImagingHighQuality
	case score >= 0.5:
		return ImagingGood
	case score >= 0.3:
		return ImagingFair
	default:
		return ImagingPoor
	}
}
