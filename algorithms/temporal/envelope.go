package temporal

import (
	"math"
)

// Envelope extracts per-window level statistics across all channels of a
// deinterleaved signal. Windows do not overlap; the last one may be short.
type Envelope struct{}

// NewEnvelope creates a new envelope extractor
func NewEnvelope() *Envelope {
	return &Envelope{}
}

// WindowStats summarises one window over every channel.
type WindowStats struct {
	RMS     float64
	Peak    float64
	MeanAbs float64
}

// Compute returns statistics for consecutive windows of windowSize frames.
func (e *Envelope) Compute(channels [][]float64, windowSize int) []WindowStats {
	if len(channels) == 0 || windowSize <= 0 {
		return nil
	}
	frames := len(channels[0])
	if frames == 0 {
		return nil
	}

	stats := make([]WindowStats, 0, (frames+windowSize-1)/windowSize)
	for start := 0; start < frames; start += windowSize {
		end := min(start+windowSize, frames)

		sumSq, sumAbs, peak := 0.0, 0.0, 0.0
		for _, ch := range channels {
			for _, x := range ch[start:end] {
				a := math.Abs(x)
				sumSq += x * x
				sumAbs += a
				peak = max(peak, a)
			}
		}

		n := float64((end - start) * len(channels))
		stats = append(stats, WindowStats{
			RMS:     math.Sqrt(sumSq / n),
			Peak:    peak,
			MeanAbs: sumAbs / n,
		})
	}
	return stats
}

// Punchiness is the mean crest (peak / mean |x|) of short windows, divided
// by 10 and capped at 1. Windows with no signal add nothing but still count.
func (e *Envelope) Punchiness(channels [][]float64, windowSize int) float64 {
	stats := e.Compute(channels, windowSize)
	if len(stats) == 0 {
		return 0
	}

	full := len(channels[0]) / windowSize
	if full == 0 {
		return 0
	}

	total := 0.0
	for _, s := range stats {
		if s.MeanAbs > 1e-10 {
			total += s.Peak / s.MeanAbs
		}
	}
	return min(total/float64(full)/10, 1)
}
