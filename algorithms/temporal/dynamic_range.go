package temporal

import (
	"sort"

	"github.com/tillrd/lufalyze/algorithms/common"
)

// DynamicRange measures the spread of short-term RMS levels.
type DynamicRange struct {
	envelopeExtractor *Envelope
}

// NewDynamicRange creates a new dynamic range analyzer
func NewDynamicRange() *DynamicRange {
	return &DynamicRange{
		envelopeExtractor: NewEnvelope(),
	}
}

// ComputeRange returns the difference in dB between the high and low
// percentile of per-window RMS levels. Windows quieter than -200 dBFS are
// ignored; no usable windows gives 0.
func (dr *DynamicRange) ComputeRange(channels [][]float64, windowSize int, lowPercentile, highPercentile float64) float64 {
	stats := dr.envelopeExtractor.Compute(channels, windowSize)

	levels := make([]float64, 0, len(stats))
	for _, s := range stats {
		if s.RMS > 1e-10 {
			levels = append(levels, common.AmplitudeToDB(s.RMS))
		}
	}
	if len(levels) == 0 {
		return 0
	}

	sort.Float64s(levels)
	return common.IndexPercentile(levels, highPercentile) - common.IndexPercentile(levels, lowPercentile)
}
