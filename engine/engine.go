package engine

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/tillrd/lufalyze/algorithms/common"
	"github.com/tillrd/lufalyze/algorithms/loudness"
	"github.com/tillrd/lufalyze/engine/analyzers"
	"github.com/tillrd/lufalyze/engine/config"
	"github.com/tillrd/lufalyze/logging"
)

// Engine turns PCM buffers into loudness, technical, stereo and key reports.
// It holds configuration, coefficient tables and a buffer pool; every call
// allocates its own filter state, so an Engine is safe for concurrent use.
type Engine struct {
	cfg       *config.EngineConfig
	meter     *loudness.Meter
	technical *analyzers.TechnicalAnalyzer
	stereo    *analyzers.StereoAnalyzer
	music     *analyzers.MusicAnalyzer
	pool      *common.BufferPool
	logger    logging.Logger
}

// New creates an engine; nil cfg uses config.DefaultEngineConfig.
func New(cfg *config.EngineConfig) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultEngineConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	pool := common.NewBufferPool()
	gate := loudness.Gate{AbsoluteLUFS: cfg.Loudness.AbsoluteGateLUFS, RelativeLU: cfg.Loudness.RelativeGateLU}

	return &Engine{
		cfg:       cfg,
		meter:     loudness.NewMeter(gate, calibration(cfg.Loudness), pool),
		technical: analyzers.NewTechnicalAnalyzer(cfg.Technical),
		stereo:    analyzers.NewStereoAnalyzer(cfg.Stereo),
		music:     analyzers.NewMusicAnalyzer(cfg.Chroma, cfg.Key),
		pool:      pool,
		logger:    logging.WithFields(logging.Fields{"component": "engine"}),
	}, nil
}

func calibration(cfg config.LoudnessConfig) loudness.Calibration {
	if cfg.Calibration == "none" {
		return loudness.NoCalibration{}
	}
	if cfg.VolumeBands != nil {
		return cfg.VolumeBands
	}
	return loudness.DefaultVolumeCalibration()
}

// Config returns the engine configuration. Callers must not modify it.
func (e *Engine) Config() *config.EngineConfig {
	return e.cfg
}

// EnhancedKeyAvailable reports whether the key classifier loaded.
func (e *Engine) EnhancedKeyAvailable() bool {
	return e.music.EnhancedAvailable()
}

// AnalyzeLoudness measures loudness, technical quality and stereo image.
func (e *Engine) AnalyzeLoudness(pcm *PCMBuffer) (*LoudnessAnalysis, error) {
	if err := pcm.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	channels := pcm.Deinterleave(e.pool)
	defer release(e.pool, channels...)
	mono := mixdown(channels, e.pool)
	defer release(e.pool, mono)

	out := &LoudnessAnalysis{}
	sr := float64(pcm.SampleRate)

	e.run(
		func() {
			t := time.Now()
			out.Loudness = e.measureLoudness(channels, sr)
			out.Timings.LoudnessMs = since(t)

			t = time.Now()
			out.Technical = e.technical.Analyze(channels, mono, sr, float64(out.Loudness.Integrated))
			out.Timings.TechnicalMs = since(t)
		},
		func() {
			t := time.Now()
			out.Stereo = e.stereo.Analyze(channels, sr)
			out.Timings.StereoMs = since(t)
		},
	)

	out.Timings.TotalMs = since(start)
	return out, nil
}

// AnalyzeMusic estimates the key of the mono mixdown.
func (e *Engine) AnalyzeMusic(pcm *PCMBuffer) (*analyzers.MusicReport, error) {
	if err := pcm.Validate(); err != nil {
		return nil, err
	}

	channels := pcm.Deinterleave(e.pool)
	defer release(e.pool, channels...)
	mono := mixdown(channels, e.pool)
	defer release(e.pool, mono)

	return e.music.Analyze(mono, float64(pcm.SampleRate))
}

// BenchmarkKey times the profile matcher against the key classifier.
func (e *Engine) BenchmarkKey(pcm *PCMBuffer) (*analyzers.KeyBenchmark, error) {
	if err := pcm.Validate(); err != nil {
		return nil, err
	}

	channels := pcm.Deinterleave(e.pool)
	defer release(e.pool, channels...)
	mono := mixdown(channels, e.pool)
	defer release(e.pool, mono)

	return e.music.Benchmark(mono, float64(pcm.SampleRate))
}

// Analyze runs every branch and merges the results. tempo is an externally
// estimated BPM, or nil when unknown; it is copied into the report as is.
func (e *Engine) Analyze(pcm *PCMBuffer, tempo *float64) (*Report, error) {
	if err := pcm.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	logger := e.logger.WithFields(logging.Fields{
		"function":    "Analyze",
		"sample_rate": pcm.SampleRate,
		"channels":    pcm.Channels,
		"frames":      pcm.Frames(),
	})
	logger.Debug("Starting analysis")

	channels := pcm.Deinterleave(e.pool)
	defer release(e.pool, channels...)
	mono := mixdown(channels, e.pool)
	defer release(e.pool, mono)

	sr := float64(pcm.SampleRate)
	report := &Report{
		SampleRate: pcm.SampleRate,
		Channels:   pcm.Channels,
		Duration:   pcm.Duration().Seconds(),
	}
	if tempo != nil {
		t := *tempo
		report.Tempo = &t
	}

	var musicErr error
	e.run(
		func() {
			t := time.Now()
			report.Loudness = e.measureLoudness(channels, sr)
			report.Timings.LoudnessMs = since(t)

			t = time.Now()
			report.Technical = e.technical.Analyze(channels, mono, sr, float64(report.Loudness.Integrated))
			report.Timings.TechnicalMs = since(t)
		},
		func() {
			t := time.Now()
			report.Stereo = e.stereo.Analyze(channels, sr)
			report.Timings.StereoMs = since(t)
		},
		func() {
			t := time.Now()
			report.Music, musicErr = e.music.Analyze(mono, sr)
			report.Timings.MusicMs = since(t)
		},
	)
	if musicErr != nil {
		return nil, fmt.Errorf("music analysis: %w", musicErr)
	}

	report.Timings.TotalMs = since(start)
	logger.Debug("Analysis complete", logging.Fields{
		"integrated": float64(report.Loudness.Integrated),
		"key":        report.Music.Key.Key,
		"total_ms":   report.Timings.TotalMs,
	})
	return report, nil
}

func (e *Engine) measureLoudness(channels [][]float64, sampleRate float64) LoudnessReport {
	res := e.meter.Measure(channels, sampleRate)

	sumSq, n := 0.0, 0
	for _, ch := range channels {
		for _, x := range ch {
			sumSq += x * x
		}
		n += len(ch)
	}
	rms := 0.0
	if n > 0 {
		rms = sumSq / float64(n)
	}

	return LoudnessReport{
		Momentary:              Level(res.MomentaryMax),
		ShortTerm:              Level(res.ShortTermMax),
		Integrated:             Level(res.Integrated),
		IntegratedUncalibrated: Level(res.IntegratedUncalibrated),
		LoudnessRange:          res.LoudnessRange,
		RMS:                    Level(common.AmplitudeToDB(math.Sqrt(rms))),
		Calibration:            res.Calibration,
	}
}

// run executes the branches, concurrently when configured. Branches only
// read shared input and write disjoint fields of the result.
func (e *Engine) run(branches ...func()) {
	if !e.cfg.Parallel {
		for _, b := range branches {
			b()
		}
		return
	}

	var wg sync.WaitGroup
	for _, b := range branches {
		b := b
		wg.Add(1)
		go func() {
			defer wg.Done()
			b()
		}()
	}
	wg.Wait()
}

func since(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
