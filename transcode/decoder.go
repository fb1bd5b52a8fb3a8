package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tillrd/lufalyze/engine"
	"github.com/tillrd/lufalyze/logging"
)

// ErrUnsupportedFormat is returned when neither the WAV reader nor ffmpeg can
// decode a file.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// DecoderConfig holds decoder configuration. Audio is always delivered at its
// native sample rate and channel count; resampling or normalising before
// measurement would change the loudness being measured.
type DecoderConfig struct {
	FFmpegPath  string        `json:"ffmpeg_path"`
	FFprobePath string        `json:"ffprobe_path"`
	Timeout     time.Duration `json:"timeout"`
	// MaxDuration truncates long inputs; 0 decodes everything.
	MaxDuration time.Duration `json:"max_duration"`
	// DisableFFmpeg restricts decoding to PCM WAV.
	DisableFFmpeg bool `json:"disable_ffmpeg"`
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		Timeout:     2 * time.Minute,
	}
}

// Decoder turns audio files into interleaved float PCM for the engine.
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{"component": "audio_decoder"}),
	}
}

// DecodeFile reads PCM WAV natively and hands everything else to ffmpeg.
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*engine.PCMBuffer, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function": "DecodeFile",
		"filename": filename,
	})
	logger.Debug("Starting audio file decode")

	start := time.Now()
	pcm, err := d.decodeWAVFile(filename)
	if errors.Is(err, errNotPCMWAV) {
		if d.config.DisableFFmpeg {
			return nil, fmt.Errorf("%s: %w", filepath.Base(filename), ErrUnsupportedFormat)
		}
		logger.Debug("Not a PCM WAV file, falling back to ffmpeg")
		pcm, err = d.decodeWithFFmpeg(ctx, filename)
	}
	if err != nil {
		logger.Error(err, "Decode failed")
		return nil, err
	}

	pcm = d.truncate(pcm)
	logger.Debug("Decode completed", logging.Fields{
		"sample_rate": pcm.SampleRate,
		"channels":    pcm.Channels,
		"duration":    pcm.Duration().Seconds(),
		"decode_time": time.Since(start).Seconds(),
	})
	return pcm, nil
}

func (d *Decoder) truncate(pcm *engine.PCMBuffer) *engine.PCMBuffer {
	if d.config.MaxDuration <= 0 || pcm.Duration() <= d.config.MaxDuration {
		return pcm
	}
	frames := int(d.config.MaxDuration.Seconds() * float64(pcm.SampleRate))
	pcm.Samples = pcm.Samples[:frames*int(pcm.Channels)]
	return pcm
}

// IsAudioFile reports whether filename has an extension the decoder is
// expected to handle. Watch mode uses it to ignore unrelated files.
func (d *Decoder) IsAudioFile(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, f := range d.SupportedFormats() {
		if f == ext {
			return true
		}
	}
	return false
}

// SupportedFormats lists file extensions by decoding path.
func (d *Decoder) SupportedFormats() []string {
	if d.config.DisableFFmpeg {
		return []string{"wav", "wave"}
	}
	return []string{"wav", "wave", "aac", "mp3", "flac", "ogg", "opus", "m4a", "aiff", "aif"}
}

// ValidateConfig checks the configured ffmpeg binaries when the fallback is
// enabled.
func (d *Decoder) ValidateConfig() error {
	if d.config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %v", d.config.Timeout)
	}
	if d.config.DisableFFmpeg {
		return nil
	}
	return d.checkFFmpegAvailability()
}

func fileSize(name string) int64 {
	if fi, err := os.Stat(name); err == nil {
		return fi.Size()
	}
	return 0
}
