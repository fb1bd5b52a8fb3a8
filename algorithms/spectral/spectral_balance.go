package spectral

import (
	"github.com/tillrd/lufalyze/algorithms/windowing"
)

// Band is a named frequency range [Low, High) in Hz.
type Band struct {
	Name string  `json:"name"`
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// PerceptualBands are the seven balance bands from sub-bass to brilliance.
func PerceptualBands() []Band {
	return []Band{
		{Name: "sub_bass", Low: 20, High: 60},
		{Name: "bass", Low: 60, High: 250},
		{Name: "low_mids", Low: 250, High: 500},
		{Name: "mids", Low: 500, High: 2000},
		{Name: "upper_mids", Low: 2000, High: 5000},
		{Name: "presence", Low: 5000, High: 8000},
		{Name: "brilliance", Low: 8000, High: 20000},
	}
}

// ProfileResult holds window-averaged spectral descriptors.
type ProfileResult struct {
	Centroid float64 `json:"centroid"`
	Rolloff  float64 `json:"rolloff"`
	Flatness float64 `json:"flatness"`
	// BandEnergy is the summed magnitude per band, aligned with Bands.
	BandEnergy []float64 `json:"band_energy"`
	Bands      []Band    `json:"bands"`
	Windows    int       `json:"windows"`
}

// SpectralProfile averages centroid, 85 % rolloff, flatness and band
// magnitudes over Hann-windowed frames with 50 % overlap. Frames whose
// windowed energy is below 1e-10 are skipped.
type SpectralProfile struct {
	sampleRate float64
	windowSize int
	bands      []Band
}

// NewSpectralProfile creates a profile analyzer with the perceptual bands.
func NewSpectralProfile(sampleRate float64, windowSize int) *SpectralProfile {
	return &SpectralProfile{
		sampleRate: sampleRate,
		windowSize: windowSize,
		bands:      PerceptualBands(),
	}
}

// Analyze processes a mono signal. Signals shorter than the window use one
// window of the signal's length.
func (sp *SpectralProfile) Analyze(mono []float64) ProfileResult {
	res := ProfileResult{
		BandEnergy: make([]float64, len(sp.bands)),
		Bands:      sp.bands,
	}

	size := min(sp.windowSize, len(mono))
	if size < 4 {
		return res
	}
	hop := size / 2

	hann := windowing.NewHann(size, true)
	rs := NewRealSpectrum(size)
	centroid := NewSpectralCentroid(sp.sampleRate, size)
	rolloff := NewSpectralRolloff(sp.sampleRate, size, 0.85)
	flatness := NewSpectralFlatness(1e-10)

	frame := make([]float64, size)
	var mag []float64

	for start := 0; start+size <= len(mono); start += hop {
		copy(frame, mono[start:start+size])
		_ = hann.ApplyInPlace(frame)

		energy := 0.0
		for _, x := range frame {
			energy += x * x
		}
		if energy < 1e-10 {
			continue
		}

		// Keep bins [0, size/2) with DC zeroed.
		mag = rs.Magnitudes(frame, mag)[:size/2]
		mag[0] = 0

		c, ok := centroid.Compute(mag)
		if !ok {
			continue
		}
		res.Centroid += c
		res.Rolloff += rolloff.Compute(mag)
		res.Flatness += flatness.Compute(mag)

		for i, b := range sp.bands {
			lo := int(b.Low * float64(size) / sp.sampleRate)
			hi := min(int(b.High*float64(size)/sp.sampleRate), len(mag))
			for k := lo; k < hi; k++ {
				res.BandEnergy[i] += mag[k]
			}
		}
		res.Windows++
	}

	if res.Windows > 0 {
		n := float64(res.Windows)
		res.Centroid /= n
		res.Rolloff /= n
		res.Flatness /= n
		for i := range res.BandEnergy {
			res.BandEnergy[i] /= n
		}
	}
	return res
}
