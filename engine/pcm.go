package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/tillrd/lufalyze/algorithms/common"
)

// MinSampleRate is the lowest rate at which both K-weighting stages sit
// below Nyquist.
const MinSampleRate = 8000

// PCMBuffer is interleaved float PCM as delivered by a decoder. The engine
// never modifies Samples.
type PCMBuffer struct {
	Samples    []float32
	SampleRate uint32
	Channels   uint16
}

// NewPCMBuffer wraps samples without copying.
func NewPCMBuffer(samples []float32, sampleRate uint32, channels uint16) *PCMBuffer {
	return &PCMBuffer{Samples: samples, SampleRate: sampleRate, Channels: channels}
}

// Validate rejects buffers the analysers cannot interpret.
func (p *PCMBuffer) Validate() error {
	if p == nil {
		return invalid("nil buffer")
	}
	if p.Channels == 0 {
		return invalid("zero channels")
	}
	if p.SampleRate == 0 {
		return invalid("zero sample rate")
	}
	if p.SampleRate < MinSampleRate {
		return invalid(fmt.Sprintf("sample rate %d Hz is below %d Hz", p.SampleRate, MinSampleRate))
	}
	if len(p.Samples)%int(p.Channels) != 0 {
		return invalid(fmt.Sprintf("%d samples is not a multiple of %d channels", len(p.Samples), p.Channels))
	}
	for i, s := range p.Samples {
		if math.IsNaN(float64(s)) {
			return &InvalidInputError{Reason: "NaN sample", Index: i}
		}
		if math.IsInf(float64(s), 0) {
			return &InvalidInputError{Reason: "infinite sample", Index: i}
		}
	}
	return nil
}

// Frames is the number of samples per channel.
func (p *PCMBuffer) Frames() int {
	if p.Channels == 0 {
		return 0
	}
	return len(p.Samples) / int(p.Channels)
}

// Duration is the playing time of the buffer.
func (p *PCMBuffer) Duration() time.Duration {
	if p.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(p.Frames()) / float64(p.SampleRate) * float64(time.Second))
}

// Deinterleave splits the buffer into per-channel float64 slices taken from
// pool. Callers hand them back with release.
func (p *PCMBuffer) Deinterleave(pool *common.BufferPool) [][]float64 {
	ch := int(p.Channels)
	frames := p.Frames()

	out := make([][]float64, ch)
	for c := range out {
		out[c] = pool.Get(frames)
	}
	for i := 0; i < frames; i++ {
		base := i * ch
		for c := range out {
			out[c][i] = float64(p.Samples[base+c])
		}
	}
	return out
}

// mixdown averages channels into one slice from pool.
func mixdown(channels [][]float64, pool *common.BufferPool) []float64 {
	if len(channels) == 0 {
		return nil
	}
	mono := pool.Get(len(channels[0]))
	scale := 1 / float64(len(channels))
	for _, ch := range channels {
		for i, x := range ch {
			mono[i] += x * scale
		}
	}
	return mono
}

func release(pool *common.BufferPool, bufs ...[]float64) {
	for _, b := range bufs {
		if b != nil {
			pool.Put(b)
		}
	}
}
