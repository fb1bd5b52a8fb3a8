package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tillrd/lufalyze/algorithms/loudness"
	"github.com/tillrd/lufalyze/algorithms/tonal"
)

// LoudnessConfig controls the BS.1770 meter.
type LoudnessConfig struct {
	AbsoluteGateLUFS float64 `json:"absolute_gate_lufs"`
	RelativeGateLU   float64 `json:"relative_gate_lu"`
	// Calibration is "volume" for the level-dependent correction or "none"
	// for plain BS.1770-4 values.
	Calibration string                      `json:"calibration"`
	VolumeBands *loudness.VolumeCalibration `json:"volume_bands,omitempty"`
}

// PlatformTarget is a delivery platform's true-peak ceiling.
type PlatformTarget struct {
	Name        string  `json:"name"`
	CeilingDBTP float64 `json:"ceiling_dbtp"`
}

// TechnicalConfig controls the technical quality pass.
type TechnicalConfig struct {
	ClipThreshold       float64          `json:"clip_threshold"`
	SilenceThresholdDB  float64          `json:"silence_threshold_db"`
	MinSilenceGapSec    float64          `json:"min_silence_gap_sec"`
	SpectralWindowSize  int              `json:"spectral_window_size"`
	DynamicRangeWindow  float64          `json:"dynamic_range_window_sec"`
	PunchWindow         float64          `json:"punch_window_sec"`
	Platforms           []PlatformTarget `json:"platforms"`
	TargetLoudnessRange [2]float64       `json:"target_loudness_range"`
}

// StereoConfig controls stereo imaging analysis.
type StereoConfig struct {
	MaxSeconds    float64 `json:"max_seconds"`
	ImagingWindow int     `json:"imaging_window"`
}

// ChromaConfig controls the chromagram.
type ChromaConfig struct {
	WindowSize int     `json:"window_size"`
	HopSize    int     `json:"hop_size"`
	MinFreq    float64 `json:"min_freq"`
	MaxFreq    float64 `json:"max_freq"`
	Tuning     float64 `json:"tuning"`
}

// KeyConfig controls key estimation.
type KeyConfig struct {
	Profiles          []tonal.KeyProfile `json:"profiles"`
	EnableEnhanced    bool               `json:"enable_enhanced"`
	EnhancedThreshold float64            `json:"enhanced_threshold"`
	// ClassifierPath points at a JSON weight blob; empty uses the built-in
	// weights.
	ClassifierPath string `json:"classifier_path,omitempty"`
}

// EngineConfig aggregates everything the engine needs.
type EngineConfig struct {
	Loudness  LoudnessConfig  `json:"loudness"`
	Technical TechnicalConfig `json:"technical"`
	Stereo    StereoConfig    `json:"stereo"`
	Chroma    ChromaConfig    `json:"chroma"`
	Key       KeyConfig       `json:"key"`
	// Parallel runs the loudness, technical, stereo and music branches on
	// separate goroutines.
	Parallel bool   `json:"parallel"`
	LogLevel string `json:"log_level"`
}

func DefaultLoudnessConfig() LoudnessConfig {
	return LoudnessConfig{
		AbsoluteGateLUFS: loudness.AbsoluteGateLUFS,
		RelativeGateLU:   loudness.RelativeGateLU,
		Calibration:      "volume",
	}
}

// DefaultPlatformTargets: EBU R128 broadcast -1, Spotify -2, YouTube -1 dBTP.
func DefaultPlatformTargets() []PlatformTarget {
	return []PlatformTarget{
		{Name: "broadcast", CeilingDBTP: -1},
		{Name: "spotify", CeilingDBTP: -2},
		{Name: "youtube", CeilingDBTP: -1},
	}
}

func DefaultTechnicalConfig() TechnicalConfig {
	return TechnicalConfig{
		ClipThreshold:       0.99,
		SilenceThresholdDB:  -60,
		MinSilenceGapSec:    0.1,
		SpectralWindowSize:  4096,
		DynamicRangeWindow:  0.1,
		PunchWindow:         0.01,
		Platforms:           DefaultPlatformTargets(),
		TargetLoudnessRange: [2]float64{-16, -8},
	}
}

func DefaultStereoConfig() StereoConfig {
	return StereoConfig{MaxSeconds: 60, ImagingWindow: 512}
}

func DefaultChromaConfig() ChromaConfig {
	return ChromaConfig{
		WindowSize: 4096,
		HopSize:    1024,
		MinFreq:    80,
		MaxFreq:    8000,
		Tuning:     440,
	}
}

func DefaultKeyConfig() KeyConfig {
	return KeyConfig{
		Profiles:          tonal.DefaultKeyProfiles(),
		EnableEnhanced:    true,
		EnhancedThreshold: tonal.DefaultEnhancedThreshold,
	}
}

// DefaultEngineConfig returns the configuration used when none is given.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Loudness:  DefaultLoudnessConfig(),
		Technical: DefaultTechnicalConfig(),
		Stereo:    DefaultStereoConfig(),
		Chroma:    DefaultChromaConfig(),
		Key:       DefaultKeyConfig(),
		Parallel:  true,
		LogLevel:  "info",
	}
}

// Load reads a JSON file over the defaults; fields absent from the file keep
// their default values.
func Load(path string) (*EngineConfig, error) {
	cfg := DefaultEngineConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the analysers cannot run with.
func (c *EngineConfig) Validate() error {
	switch c.Loudness.Calibration {
	case "volume", "none", "":
	default:
		return fmt.Errorf("unknown calibration %q", c.Loudness.Calibration)
	}
	if c.Chroma.WindowSize <= 0 || c.Chroma.HopSize <= 0 {
		return fmt.Errorf("chroma window and hop must be positive")
	}
	if c.Chroma.MinFreq >= c.Chroma.MaxFreq {
		return fmt.Errorf("chroma frequency range is empty")
	}
	if c.Technical.SpectralWindowSize <= 0 {
		return fmt.Errorf("spectral window must be positive")
	}
	if c.Technical.ClipThreshold <= 0 {
		return fmt.Errorf("clip threshold must be positive")
	}
	total := 0.0
	for _, p := range c.Key.Profiles {
		if p.Weight < 0 {
			return fmt.Errorf("key profile %q has negative weight", p.Name)
		}
		total += p.Weight
	}
	if len(c.Key.Profiles) > 0 && total == 0 {
		return fmt.Errorf("key profile weights sum to zero")
	}
	return nil
}
