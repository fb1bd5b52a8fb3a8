package transcode

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"

	"github.com/tillrd/lufalyze/engine"
)

var errNotPCMWAV = errors.New("not a PCM WAV file")

const wavFormatPCM = 1

func (d *Decoder) decodeWAVFile(filename string) (*engine.PCMBuffer, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()
	return DecodeWAV(f)
}

// DecodeWAV reads an integer PCM WAV stream of 16, 24 or 32 bits. Other
// encodings return an error wrapping errNotPCMWAV so callers can try
// another decoder.
func DecodeWAV(r io.ReadSeeker) (*engine.PCMBuffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errNotPCMWAV
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: format tag %d", errNotPCMWAV, dec.WavAudioFormat)
	}
	switch dec.BitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d-bit samples", errNotPCMWAV, dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read wav samples: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("wav file has no channel information")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}
	scale := 1 / float64(int64(1)<<(bitDepth-1))

	samples := make([]float32, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = float32(float64(s) * scale)
	}

	// A truncated final frame would fail validation.
	ch := buf.Format.NumChannels
	samples = samples[:len(samples)-len(samples)%ch]

	return engine.NewPCMBuffer(samples, uint32(buf.Format.SampleRate), uint16(ch)), nil
}
