package loudness

import (
	"github.com/tillrd/lufalyze/algorithms/common"
	"github.com/tillrd/lufalyze/algorithms/filters"
	"github.com/tillrd/lufalyze/logging"
)

// Result holds the loudness measures of one programme.
type Result struct {
	MomentaryMax float64 `json:"momentary_max"`
	ShortTermMax float64 `json:"short_term_max"`
	Integrated   float64 `json:"integrated"`
	// IntegratedUncalibrated is the BS.1770-4 value before Calibration.
	IntegratedUncalibrated float64 `json:"integrated_uncalibrated"`
	LoudnessRange          float64 `json:"loudness_range"`
	Calibration            string  `json:"calibration"`
	MomentaryBlocks        int     `json:"momentary_blocks"`
	ShortTermBlocks        int     `json:"short_term_blocks"`
}

// Meter measures momentary, short-term and integrated loudness of
// deinterleaved channels.
type Meter struct {
	gate        Gate
	calibration Calibration
	pool        *common.BufferPool
	logger      logging.Logger
}

// NewMeter creates a meter. A nil calibration means NoCalibration; a nil
// pool allocates fresh buffers.
func NewMeter(gate Gate, calibration Calibration, pool *common.BufferPool) *Meter {
	if calibration == nil {
		calibration = NoCalibration{}
	}
	if pool == nil {
		pool = common.NewBufferPool()
	}
	return &Meter{
		gate:        gate,
		calibration: calibration,
		pool:        pool,
		logger:      logging.WithFields(logging.Fields{"component": "loudness_meter"}),
	}
}

// Measure K-weights every channel and runs both block passes. Audio shorter
// than 400 ms yields -Inf for every loudness value.
func (m *Meter) Measure(channels [][]float64, sampleRate float64) *Result {
	kw := filters.NewKWeighting(sampleRate)
	gains := ChannelGains(len(channels))

	filtered := make([][]float64, len(channels))
	for c, ch := range channels {
		filtered[c] = m.pool.Get(len(ch))
		kw.ApplyInto(filtered[c], ch)
	}
	defer func() {
		for _, buf := range filtered {
			m.pool.Put(buf)
		}
	}()

	momentary := ComputeBlocks(filtered, sampleRate, MomentaryWindow, MomentaryOverlap, gains)
	shortTerm := ComputeBlocks(filtered, sampleRate, ShortTermWindow, ShortTermOverlap, gains)

	integrated := m.gate.Integrate(momentary)
	result := &Result{
		MomentaryMax:           MaxLoudness(momentary),
		ShortTermMax:           MaxLoudness(shortTerm),
		IntegratedUncalibrated: integrated,
		Integrated:             m.calibration.Apply(integrated),
		LoudnessRange:          LoudnessRange(shortTerm),
		Calibration:            m.calibration.Name(),
		MomentaryBlocks:        len(momentary),
		ShortTermBlocks:        len(shortTerm),
	}

	m.logger.Debug("Loudness measured", logging.Fields{
		"channels":          len(channels),
		"momentary_blocks":  len(momentary),
		"short_term_blocks": len(shortTerm),
		"integrated":        result.Integrated,
	})
	return result
}
