package peak

import (
	"math"

	"github.com/tillrd/lufalyze/algorithms/windowing"
)

// Oversampling parameters for BS.1770-4 Annex 2 style true-peak detection.
const (
	Oversample   = 4
	TapsPerPhase = 12
	kaiserBeta   = 5.0
)

// TruePeakResult describes the highest reconstructed level across channels.
type TruePeakResult struct {
	// TruePeak and SamplePeak are linear amplitudes (1.0 = 0 dBFS).
	TruePeak   float64 `json:"true_peak"`
	SamplePeak float64 `json:"sample_peak"`
	// PeakFrame is the frame index nearest to the true peak.
	PeakFrame   int `json:"peak_frame"`
	PeakChannel int `json:"peak_channel"`
	// IntersampleOvers counts reconstructed points above full scale.
	IntersampleOvers int `json:"intersample_overs"`
}

// TruePeakDetector upsamples 4x with a polyphase windowed-sinc interpolator
// and tracks the largest absolute value. It holds only coefficients.
type TruePeakDetector struct {
	phases [Oversample][TapsPerPhase]float64
}

// NewTruePeakDetector designs the interpolation filter: a sinc low-pass at
// the original Nyquist tapered by a Kaiser window, split into four phases
// each normalized to unity DC gain.
func NewTruePeakDetector() *TruePeakDetector {
	d := &TruePeakDetector{}
	kaiser := windowing.NewKaiser(Oversample*TapsPerPhase, kaiserBeta)

	const totalTaps = Oversample * TapsPerPhase
	center := float64(totalTaps-1) / 2

	for phase := 0; phase < Oversample; phase++ {
		sum := 0.0
		for tap := 0; tap < TapsPerPhase; tap++ {
			n := tap*Oversample + phase
			x := (float64(n) - center) / Oversample

			sinc := 1.0
			if math.Abs(x) > 1e-12 {
				sinc = math.Sin(math.Pi*x) / (math.Pi * x)
			}
			c := sinc * kaiser.At((float64(n)-center)/center)
			d.phases[phase][tap] = c
			sum += c
		}
		for tap := 0; tap < TapsPerPhase; tap++ {
			d.phases[phase][tap] /= sum
		}
	}
	return d
}

// Detect scans deinterleaved channels. Empty input reports zero peaks.
func (d *TruePeakDetector) Detect(channels [][]float64) TruePeakResult {
	var res TruePeakResult
	var history [TapsPerPhase]float64

	for c, ch := range channels {
		history = [TapsPerPhase]float64{}

		for i, x := range ch {
			if a := math.Abs(x); a > res.SamplePeak {
				res.SamplePeak = a
				if a > res.TruePeak {
					res.TruePeak, res.PeakFrame, res.PeakChannel = a, i, c
				}
			}

			copy(history[:], history[1:])
			history[TapsPerPhase-1] = x

			for phase := 0; phase < Oversample; phase++ {
				acc := 0.0
				for tap, h := range history {
					acc += h * d.phases[phase][TapsPerPhase-1-tap]
				}
				a := math.Abs(acc)
				if a > 1.0 {
					res.IntersampleOvers++
				}
				if a > res.TruePeak {
					res.TruePeak = a
					res.PeakChannel = c
					res.PeakFrame = max(i-TapsPerPhase/2, 0)
				}
			}
		}
	}
	return res
}

// ToDBTP converts a linear peak to dB true peak; silence is -Inf.
func ToDBTP(linear float64) float64 {
	if linear <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(linear)
}
