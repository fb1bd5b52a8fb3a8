package analyzers

import (
	"github.com/tillrd/lufalyze/algorithms/common"
	"github.com/tillrd/lufalyze/algorithms/peak"
	"github.com/tillrd/lufalyze/algorithms/spectral"
	"github.com/tillrd/lufalyze/algorithms/temporal"
	"github.com/tillrd/lufalyze/engine/config"
	"github.com/tillrd/lufalyze/logging"
)

// TruePeakReport is the inter-sample peak measurement.
type TruePeakReport struct {
	DBTP          Level   `json:"dbtp"`
	Linear        float64 `json:"linear"`
	SamplePeakDB  Level   `json:"sample_peak_db"`
	PeakLocations int     `json:"peak_locations"`
	PeakFrame     int     `json:"peak_frame"`
	PeakChannel   int     `json:"peak_channel"`
}

// PlatformCompliance says whether the true peak is under one platform's
// ceiling.
type PlatformCompliance struct {
	Platform    string  `json:"platform"`
	CeilingDBTP float64 `json:"ceiling_dbtp"`
	Compliant   bool    `json:"compliant"`
}

type ClippingReport struct {
	HasClipping    bool    `json:"has_clipping"`
	ClippedSamples int     `json:"clipped_samples"`
	Percentage     float64 `json:"percentage"`
}

type DCOffsetReport struct {
	Overall    float64   `json:"overall"`
	PerChannel []float64 `json:"per_channel"`
}

// SpectralReport holds window-averaged descriptors of the mono mixdown.
type SpectralReport struct {
	Centroid         float64            `json:"centroid"`
	Rolloff          float64            `json:"rolloff"`
	Flatness         float64            `json:"flatness"`
	FrequencyBalance map[string]float64 `json:"frequency_balance"`
	Windows          int                `json:"windows"`
}

// MasteringReport is a heuristic assessment; scores are in [0, 1] except
// Score, which is 0-100.
type MasteringReport struct {
	Punchiness   float64 `json:"punchiness"`
	Warmth       float64 `json:"warmth"`
	Clarity      float64 `json:"clarity"`
	Spaciousness float64 `json:"spaciousness"`
	Score        float64 `json:"score"`
}

// TechnicalReport collects the technical quality measurements of a buffer.
type TechnicalReport struct {
	TruePeak     TruePeakReport         `json:"true_peak"`
	Compliance   []PlatformCompliance   `json:"compliance"`
	Clipping     ClippingReport         `json:"clipping"`
	DCOffset     DCOffsetReport         `json:"dc_offset"`
	Spectral     SpectralReport         `json:"spectral"`
	Silence      temporal.SilenceResult `json:"silence"`
	PLR          Level                  `json:"plr"`
	DynamicRange float64                `json:"dynamic_range"`
	Mastering    MasteringReport        `json:"mastering"`
}

// BroadcastCompliant reports the first platform named "broadcast".
func (r *TechnicalReport) BroadcastCompliant() bool {
	for _, c := range r.Compliance {
		if c.Platform == "broadcast" {
			return c.Compliant
		}
	}
	return false
}

// TechnicalAnalyzer measures peaks, clipping, DC, spectrum, silence and
// dynamics of unweighted PCM.
type TechnicalAnalyzer struct {
	cfg      config.TechnicalConfig
	truePeak *peak.TruePeakDetector
	logger   logging.Logger
}

// NewTechnicalAnalyzer creates a technical analyzer.
func NewTechnicalAnalyzer(cfg config.TechnicalConfig) *TechnicalAnalyzer {
	return &TechnicalAnalyzer{
		cfg:      cfg,
		truePeak: peak.NewTruePeakDetector(),
		logger: logging.WithFields(logging.Fields{
			"component": "technical_analyzer",
		}),
	}
}

// Analyze inspects deinterleaved channels and their mono mixdown.
// integrated is the (calibrated) integrated loudness used for PLR and the
// mastering loudness score.
func (ta *TechnicalAnalyzer) Analyze(channels [][]float64, mono []float64, sampleRate, integrated float64) *TechnicalReport {
	report := &TechnicalReport{}

	tp := ta.truePeak.Detect(channels)
	dbtp := peak.ToDBTP(tp.TruePeak)
	report.TruePeak = TruePeakReport{
		DBTP:          Level(dbtp),
		Linear:        tp.TruePeak,
		SamplePeakDB:  Level(common.AmplitudeToDB(tp.SamplePeak)),
		PeakLocations: tp.IntersampleOvers,
		PeakFrame:     tp.PeakFrame,
		PeakChannel:   tp.PeakChannel,
	}
	for _, p := range ta.cfg.Platforms {
		report.Compliance = append(report.Compliance, PlatformCompliance{
			Platform:    p.Name,
			CeilingDBTP: p.CeilingDBTP,
			Compliant:   dbtp <= p.CeilingDBTP,
		})
	}

	report.Clipping = ta.clipping(channels)
	report.DCOffset = dcOffset(channels)
	report.Spectral = ta.spectral(mono, sampleRate)

	sd := temporal.NewSilenceDetection(ta.cfg.SilenceThresholdDB, ta.cfg.MinSilenceGapSec)
	report.Silence = sd.Detect(channels, sampleRate)

	report.PLR = Level(common.AmplitudeToDB(tp.SamplePeak) - integrated)

	drWindow := max(int(sampleRate*ta.cfg.DynamicRangeWindow), 1)
	report.DynamicRange = temporal.NewDynamicRange().ComputeRange(channels, drWindow, 0.1, 0.9)

	report.Mastering = ta.mastering(channels, sampleRate, integrated, report.DynamicRange, report.Spectral.FrequencyBalance)

	ta.logger.Debug("Technical analysis complete", logging.Fields{
		"true_peak_dbtp": dbtp,
		"clipped":        report.Clipping.ClippedSamples,
		"windows":        report.Spectral.Windows,
	})
	return report
}

func (ta *TechnicalAnalyzer) clipping(channels [][]float64) ClippingReport {
	total, clipped := 0, 0
	for _, ch := range channels {
		total += len(ch)
		for _, x := range ch {
			if x >= ta.cfg.ClipThreshold || x <= -ta.cfg.ClipThreshold {
				clipped++
			}
		}
	}

	r := ClippingReport{HasClipping: clipped > 0, ClippedSamples: clipped}
	if total > 0 {
		r.Percentage = float64(clipped) / float64(total) * 100
	}
	return r
}

func dcOffset(channels [][]float64) DCOffsetReport {
	r := DCOffsetReport{PerChannel: make([]float64, len(channels))}
	sum, n := 0.0, 0
	for c, ch := range channels {
		s := common.Sum(ch)
		if len(ch) > 0 {
			r.PerChannel[c] = s / float64(len(ch))
		}
		sum += s
		n += len(ch)
	}
	if n > 0 {
		r.Overall = sum / float64(n)
	}
	return r
}

func (ta *TechnicalAnalyzer) spectral(mono []float64, sampleRate float64) SpectralReport {
	profile := spectral.NewSpectralProfile(sampleRate, ta.cfg.SpectralWindowSize).Analyze(mono)

	balance := make(map[string]float64, len(profile.Bands))
	for i, b := range profile.Bands {
		balance[b.Name] = profile.BandEnergy[i]
	}
	return SpectralReport{
		Centroid:         profile.Centroid,
		Rolloff:          profile.Rolloff,
		Flatness:         profile.Flatness,
		FrequencyBalance: balance,
		Windows:          profile.Windows,
	}
}

// mastering scores transient punch, low and high band presence, dynamics,
// and whether loudness and balance sit in their usual ranges.
func (ta *TechnicalAnalyzer) mastering(channels [][]float64, sampleRate, integrated, dynamicRange float64, balance map[string]float64) MasteringReport {
	punchWindow := max(int(sampleRate*ta.cfg.PunchWindow), 1)
	punch := temporal.NewEnvelope().Punchiness(channels, punchWindow)

	bands := spectral.PerceptualBands()
	band := func(i int) float64 { return balance[bands[i].Name] }

	warmth := min((band(0)+band(1))/2, 1)
	clarity := min((band(5)+band(6))/2, 1)
	spaciousness := min(dynamicRange/30, 1)

	loudnessScore := 0.5
	lo, hi := ta.cfg.TargetLoudnessRange[0], ta.cfg.TargetLoudnessRange[1]
	if integrated >= lo && integrated <= hi {
		loudnessScore = 1
	}

	balanceScore := 1.0
	for _, b := range bands {
		if v := balance[b.Name]; v <= 0.1 || v >= 2 {
			balanceScore = 0.7
			break
		}
	}

	return MasteringReport{
		Punchiness:   punch,
		Warmth:       warmth,
		Clarity:      clarity,
		Spaciousness: spaciousness,
		Score:        (loudnessScore + balanceScore + punch + warmth + clarity) / 5 * 100,
	}
}
