package analyzers

import (
	"github.com/tillrd/lufalyze/algorithms/stereo"
	"github.com/tillrd/lufalyze/engine/config"
)

// StereoReport is the stereo image of a two-channel buffer. For other
// channel counts Applicable is false and only Channels and Imaging are
// meaningful.
type StereoReport struct {
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

// StereoAnalyzer adapts stereo.Analyzer to the engine configuration.
type StereoAnalyzer struct {
	analyzer *stereo.Analyzer
}

func NewStereoAnalyzer(cfg config.StereoConfig) *StereoAnalyzer {
	return &StereoAnalyzer{
		analyzer: &stereo.Analyzer{MaxSeconds: cfg.MaxSeconds, ImagingWindow: cfg.ImagingWindow},
	}
}

// Analyze measures the image of deinterleaved channels.
func (sa *StereoAnalyzer) Analyze(channels [][]float64, sampleRate float64) *StereoReport {
	r := sa.analyzer.Analyze(channels, sampleRate)
	return &StereoReport{
		Applicable:        r.Applicable,
		Channels:          r.Channels,
		PhaseCorrelation:  r.PhaseCorrelation,
		StereoWidth:       r.StereoWidth,
		BalanceDB:         r.BalanceDB,
		MonoCompatibility: r.MonoCompatibility,
		ImagingScore:      r.ImagingScore,
		Imaging:           r.Imaging,
		AnalyzedSeconds:   r.AnalyzedSeconds,
	}
}
