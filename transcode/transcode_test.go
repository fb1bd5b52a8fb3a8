package transcode

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeWAV(t *testing.T, path string, sampleRate, bitDepth, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDecodeWAV16Stereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	// Left half scale, right negative quarter scale.
	data := make([]int, 2*1000)
	for i := 0; i < len(data); i += 2 {
		data[i] = 16384
		data[i+1] = -8192
	}
	writeWAV(t, path, 48000, 16, 2, data)

	pcm, err := NewDecoder(&DecoderConfig{DisableFFmpeg: true, Timeout: time.Second}).DecodeFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if pcm.SampleRate != 48000 || pcm.Channels != 2 || pcm.Frames() != 1000 {
		t.Fatalf("format: %d Hz, %d ch, %d frames", pcm.SampleRate, pcm.Channels, pcm.Frames())
	}
	if pcm.Samples[0] != 0.5 || pcm.Samples[1] != -0.25 {
		t.Errorf("samples: got %v %v, want 0.5 -0.25", pcm.Samples[0], pcm.Samples[1])
	}
	if err := pcm.Validate(); err != nil {
		t.Error(err)
	}
}

func TestDecodeWAV24Bit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono24.wav")
	data := []int{1 << 22, -(1 << 22), 0, (1 << 23) - 1}
	writeWAV(t, path, 44100, 24, 1, data)

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	pcm, err := DecodeWAV(f)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0.5, -0.5, 0, 1}
	for i, w := range want {
		if math.Abs(float64(pcm.Samples[i])-w) > 1e-6 {
			t.Errorf("sample %d: got %v, want %v", i, pcm.Samples[i], w)
		}
	}
}

func TestDecodeTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "long.wav")
	writeWAV(t, path, 8000, 16, 1, make([]int, 8000*3))

	cfg := &DecoderConfig{DisableFFmpeg: true, Timeout: time.Second, MaxDuration: time.Second}
	pcm, err := NewDecoder(cfg).DecodeFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if pcm.Frames() != 8000 {
		t.Errorf("frames: got %d, want 8000", pcm.Frames())
	}
}

func TestDecodeRejectsNonWAVWithoutFFmpeg(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.mp3")
	if err := os.WriteFile(path, []byte("not audio at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewDecoder(&DecoderConfig{DisableFFmpeg: true, Timeout: time.Second}).DecodeFile(context.Background(), path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("got %v, want ErrUnsupportedFormat", err)
	}
}

func TestDecodeMissingFile(t *testing.T) {
	_, err := NewDecoder(nil).DecodeFile(context.Background(), filepath.Join(t.TempDir(), "absent.wav"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got %v, want not-exist", err)
	}
}

func TestParseFFprobeOutput(t *testing.T) {
	out := []byte(`{"streams":[{"codec_type":"audio","codec_name":"flac","sample_rate":"96000","channels":2,"duration":"12.5","bit_rate":"1411200"}]}`)
	meta, err := parseFFprobeOutput(out)
	if err != nil {
		t.Fatal(err)
	}
	if meta.SampleRate != 96000 || meta.Channels != 2 || meta.Codec != "flac" || meta.Duration != 12.5 {
		t.Errorf("metadata: %+v", meta)
	}

	args := buildFFmpegArgs("in.flac", meta, 0)
	if args[len(args)-1] != "pipe:1" || args[len(args)-2] != "96000" {
		t.Errorf("args: %v", args)
	}

	if _, err := parseFFprobeOutput([]byte(`{"streams":[]}`)); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("empty streams: got %v", err)
	}
	if _, err := parseFFprobeOutput([]byte(`{"streams":[{"codec_type":"audio","sample_rate":"","channels":2}]}`)); err == nil {
		t.Error("expected error for missing sample rate")
	}
}

func TestBytesToFloat32(t *testing.T) {
	// 1.0f and -0.5f little-endian plus a stray byte.
	data := []byte{0, 0, 0x80, 0x3f, 0, 0, 0, 0xbf, 7}
	got := bytesToFloat32(data)
	if len(got) != 2 || got[0] != 1 || got[1] != -0.5 {
		t.Errorf("got %v", got)
	}
}

func TestIsAudioFile(t *testing.T) {
	d := NewDecoder(nil)
	if !d.IsAudioFile("/tmp/Mix.WAV") || !d.IsAudioFile("a.flac") || d.IsAudioFile("notes.txt") {
		t.Error("extension matching wrong")
	}
	wavOnly := NewDecoder(&DecoderConfig{DisableFFmpeg: true})
	if wavOnly.IsAudioFile("a.mp3") {
		t.Error("mp3 accepted without ffmpeg")
	}
}
