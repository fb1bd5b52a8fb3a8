package engine

import (
	"github.com/tillrd/lufalyze/engine/analyzers"
)

// Level is re-exported so hosts can decode reports without importing the
// analyzers package.
type Level = analyzers.Level

// LoudnessReport holds the BS.1770-4 / EBU R128 measures. Levels are LUFS;
// LoudnessRange is LU.
type LoudnessReport struct {
	Momentary              Level   `json:"momentary"`
	ShortTerm              Level   `json:"short_term"`
	Integrated             Level   `json:"integrated"`
	IntegratedUncalibrated Level   `json:"integrated_uncalibrated"`
	LoudnessRange          float64 `json:"loudness_range"`
	RMS                    Level   `json:"rms"`
	Calibration            string  `json:"calibration"`
}

// Timings are per-branch wall-clock durations in milliseconds. With parallel
// branches Total is less than the sum.
type Timings struct {
	LoudnessMs  float64 `json:"loudness_ms"`
	TechnicalMs float64 `json:"technical_ms"`
	StereoMs    float64 `json:"stereo_ms"`
	MusicMs     float64 `json:"music_ms"`
	TotalMs     float64 `json:"total_ms"`
}

// LoudnessAnalysis is the result of AnalyzeLoudness.
type LoudnessAnalysis struct {
	Loudness  LoudnessReport             `json:"loudness"`
	Technical *analyzers.TechnicalReport `json:"technical"`
	Stereo    *analyzers.StereoReport    `json:"stereo"`
	Timings   Timings                    `json:"timings"`
}

// Report is the merged output of a full analysis.
type Report struct {
	SampleRate uint32                     `json:"sample_rate"`
	Channels   uint16                     `json:"channels"`
	Duration   float64                    `json:"duration"`
	Loudness   LoudnessReport             `json:"loudness"`
	Technical  *analyzers.TechnicalReport `json:"technical"`
	Stereo     *analyzers.StereoReport    `json:"stereo"`
	Music      *analyzers.MusicReport     `json:"music"`
	// Tempo is forwarded from the caller; nil means unknown.
	Tempo   *float64 `json:"tempo"`
	Timings Timings  `json:"timings"`
}
