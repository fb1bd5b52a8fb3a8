package transcode

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/tillrd/lufalyze/engine"
	"github.com/tillrd/lufalyze/logging"
)

// AudioMetadata holds detected audio properties from FFprobe
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
	Format     string  `json:"format"`
}

// Probe runs ffprobe on the first audio stream of filename.
func (d *Decoder) Probe(ctx context.Context, filename string) (*AudioMetadata, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0",
		filename,
	}

	ctx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, d.config.FFprobePath, args...).Output()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseFFprobeOutput(output)
}

// parseFFprobeOutput parses ffprobe JSON to extract audio metadata
func parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType     string `json:"codec_type"`
			CodecName     string `json:"codec_name"`
			SampleRate    string `json:"sample_rate"`
			Channels      int    `json:"channels"`
			Duration      string `json:"duration"`
			BitRate       string `json:"bit_rate"`
			CodecLongName string `json:"codec_long_name"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no audio streams found: %w", ErrUnsupportedFormat)
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}

	// The rate is measured against, so there is no fallback.
	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %q", stream.SampleRate)
	}
	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	duration, _ := strconv.ParseFloat(stream.Duration, 64)
	bitrate, _ := strconv.Atoi(stream.BitRate)

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
		Format:     stream.CodecLongName,
	}, nil
}

func (d *Decoder) decodeWithFFmpeg(ctx context.Context, filename string) (*engine.PCMBuffer, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function": "decodeWithFFmpeg",
		"filename": filename,
	})

	meta, err := d.Probe(ctx, filename)
	if err != nil {
		return nil, err
	}
	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": meta.SampleRate,
		"input_channels":    meta.Channels,
		"input_codec":       meta.Codec,
		"input_duration":    meta.Duration,
		"file_bytes":        fileSize(filename),
	})

	args := buildFFmpegArgs(filename, meta, d.config.MaxDuration.Seconds())

	ctx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	logger.Debug("Running ffmpeg command", logging.Fields{
		"args": strings.Join(args, " "),
	})

	output, err := exec.CommandContext(ctx, d.config.FFmpegPath, args...).Output()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			logger.Error(err, "Ffmpeg decode failed", logging.Fields{
				"stderr": string(exitError.Stderr),
			})
		}
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	samples := bytesToFloat32(output)
	samples = samples[:len(samples)-len(samples)%meta.Channels]
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio samples decoded")
	}
	return engine.NewPCMBuffer(samples, uint32(meta.SampleRate), uint16(meta.Channels)), nil
}

// buildFFmpegArgs keeps the native rate and layout and emits raw f32le.
func buildFFmpegArgs(filename string, meta *AudioMetadata, maxSeconds float64) []string {
	args := []string{"-v", "error", "-i", filename, "-map", "0:a:0", "-vn"}
	if maxSeconds > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", maxSeconds))
	}
	return append(args,
		"-f", "f32le",
		"-ac", strconv.Itoa(meta.Channels),
		"-ar", strconv.Itoa(meta.SampleRate),
		"pipe:1",
	)
}

// bytesToFloat32 converts raw little-endian float32 bytes, dropping a
// trailing partial sample.
func bytesToFloat32(data []byte) []float32 {
	n := len(data) / 4
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return samples
}

// checkFFmpegAvailability checks if ffmpeg and ffprobe are available
func (d *Decoder) checkFFmpegAvailability() error {
	if err := exec.Command(d.config.FFmpegPath, "-version").Run(); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", d.config.FFmpegPath, err)
	}
	if err := exec.Command(d.config.FFprobePath, "-version").Run(); err != nil {
		return fmt.Errorf("ffprobe not found at %s: %w", d.config.FFprobePath, err)
	}
	return nil
}
