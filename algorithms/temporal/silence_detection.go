package temporal

import (
	"math"
)

// SilenceGap is a stretch of silence between two non-silent regions, in
// seconds from the start.
type SilenceGap struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// SilenceResult reports silence at the edges and inside a programme.
type SilenceResult struct {
	LeadingSeconds  float64      `json:"leading_seconds"`
	TrailingSeconds float64      `json:"trailing_seconds"`
	Gaps            []SilenceGap `json:"gaps"`
}

// SilenceDetection classifies each frame as silent when every channel is at
// or below a fixed level.
type SilenceDetection struct {
	threshold float64
	minGap    float64
}

// NewSilenceDetection creates a detector; thresholdDB is in dBFS and only
// gaps longer than minGapSeconds are reported.
func NewSilenceDetection(thresholdDB, minGapSeconds float64) *SilenceDetection {
	return &SilenceDetection{
		threshold: math.Pow(10, thresholdDB/20),
		minGap:    minGapSeconds,
	}
}

func (sd *SilenceDetection) silent(channels [][]float64, i int) bool {
	for _, ch := range channels {
		if math.Abs(ch[i]) > sd.threshold {
			return false
		}
	}
	return true
}

// Detect scans the frames once. A fully silent signal reports zero leading
// and trailing silence and no gaps.
func (sd *SilenceDetection) Detect(channels [][]float64, sampleRate float64) SilenceResult {
	res := SilenceResult{Gaps: []SilenceGap{}}
	if len(channels) == 0 || sampleRate <= 0 {
		return res
	}
	frames := len(channels[0])

	first, last := -1, -1
	gapStart := -1
	for i := 0; i < frames; i++ {
		if sd.silent(channels, i) {
			if gapStart < 0 {
				gapStart = i
			}
			continue
		}

		if first < 0 {
			first = i
		} else if gapStart >= 0 {
			if float64(i-gapStart)/sampleRate > sd.minGap {
				res.Gaps = append(res.Gaps, SilenceGap{
					Start: float64(gapStart) / sampleRate,
					End:   float64(i) / sampleRate,
				})
			}
		}
		gapStart = -1
		last = i
	}

	if first >= 0 {
		res.LeadingSeconds = float64(first) / sampleRate
		res.TrailingSeconds = float64(frames-1-last) / sampleRate
	}
	return res
}
