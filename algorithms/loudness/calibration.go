package loudness

import (
	"math"
)

// Calibration post-processes an integrated loudness value. It is applied
// after gating and never touches momentary or short-term values, so
// standards tests can run with NoCalibration.
type Calibration interface {
	Apply(integrated float64) float64
	Name() string
}

// NoCalibration leaves values untouched.
type NoCalibration struct{}

func (NoCalibration) Apply(integrated float64) float64 { return integrated }
func (NoCalibration) Name() string                     { return "none" }

// CalibrationBand adds Offset LU to values in (Above, ...] up to the next
// band's Above.
type CalibrationBand struct {
	Above  float64 `json:"above"`
	Offset float64 `json:"offset"`
}

// VolumeCalibration is a non-normative, level-dependent correction fitted
// against reference masters. Bands are checked in order; the first band whose
// Above is below the value wins, and Fallback applies otherwise.
type VolumeCalibration struct {
	Bands    []CalibrationBand `json:"bands"`
	Fallback float64           `json:"fallback"`
}

// DefaultVolumeCalibration: +0.77 LU above -15 LUFS, +0.29 LU in (-22, -15],
// +1.58 LU at or below -22 LUFS.
func DefaultVolumeCalibration() *VolumeCalibration {
	return &VolumeCalibration{
		Bands: []CalibrationBand{
			{Above: -15, Offset: 0.77},
			{Above: -22, Offset: 0.29},
		},
		Fallback: 1.58,
	}
}

// Apply adds the offset for the band containing integrated. -Inf stays -Inf.
func (vc *VolumeCalibration) Apply(integrated float64) float64 {
	if math.IsInf(integrated, 0) || math.IsNaN(integrated) {
		return integrated
	}
	for _, b := range vc.Bands {
		if integrated > b.Above {
			return integrated + b.Offset
		}
	}
	return integrated + vc.Fallback
}

func (vc *VolumeCalibration) Name() string { return "volume" }
