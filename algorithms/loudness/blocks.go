package loudness

import (
	"math"
)

// GatingBlock is the channel-weighted mean-square energy of one analysis
// window of K-weighted audio.
type GatingBlock struct {
	Energy      float64 `json:"energy"`
	StartSample int     `json:"start_sample"`
}

// Standard BS.1770-4 block shapes.
const (
	MomentaryWindow  = 0.4
	MomentaryOverlap = 0.75
	ShortTermWindow  = 3.0
	ShortTermOverlap = 0.9 // 300 ms hop
)

// ChannelGains returns the BS.1770-4 weights for a channel layout.
// Five- and six-channel layouts are taken as L R C Ls Rs and
// L R C LFE Ls Rs; surround channels get 1.41 and the LFE is excluded.
func ChannelGains(channels int) []float64 {
	gains := make([]float64, channels)
	for i := range gains {
		gains[i] = 1.0
	}

	switch channels {
	case 5:
		gains[3], gains[4] = 1.41, 1.41
	case 6:
		gains[3] = 0
		gains[4], gains[5] = 1.41, 1.41
	}
	return gains
}

// BlockGeometry converts a window length in seconds and an overlap ratio to
// window and hop sizes in samples.
func BlockGeometry(sampleRate, windowSec, overlap float64) (window, hop int) {
	window = int(math.Round(windowSec * sampleRate))
	hop = int(math.Round((1 - overlap) * float64(window)))
	return window, max(hop, 1)
}

// ComputeBlocks windows the K-weighted channels into overlapping blocks and
// returns them in time order. Each block's energy is Σ gain_c · mean(x_c²).
// Channels shorter than one window yield no blocks.
//
// Squares are summed once per gcd(window, hop) segment and blocks are built
// from whole segments, so the cost does not grow with the overlap.
func ComputeBlocks(filtered [][]float64, sampleRate, windowSec, overlap float64, gains []float64) []GatingBlock {
	if len(filtered) == 0 {
		return nil
	}

	frames := len(filtered[0])
	for _, ch := range filtered[1:] {
		frames = min(frames, len(ch))
	}

	window, hop := BlockGeometry(sampleRate, windowSec, overlap)
	if window <= 0 || frames < window {
		return nil
	}

	seg := gcd(window, hop)
	numSegments := frames / seg
	segEnergy := make([]float64, numSegments)

	for c, ch := range filtered {
		gain := 1.0
		if c < len(gains) {
			gain = gains[c]
		}
		if gain == 0 {
			continue
		}
		for s := 0; s < numSegments; s++ {
			sum := 0.0
			for _, x := range ch[s*seg : (s+1)*seg] {
				sum += x * x
			}
			segEnergy[s] += gain * sum
		}
	}

	perWindow := window / seg
	perHop := hop / seg
	numBlocks := (frames-window)/hop + 1

	blocks := make([]GatingBlock, 0, numBlocks)
	for b := 0; b < numBlocks; b++ {
		first := b * perHop
		sum := 0.0
		for _, e := range segEnergy[first : first+perWindow] {
			sum += e
		}
		blocks = append(blocks, GatingBlock{
			Energy:      sum / float64(window),
			StartSample: b * hop,
		})
	}
	return blocks
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
