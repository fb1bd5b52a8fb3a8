package loudness

import (
	"math"
	"testing"
)

func sine(freq, amplitude, sampleRate, seconds float64) []float64 {
	n := int(sampleRate * seconds)
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return out
}

func TestChannelGains(t *testing.T) {
	tests := []struct {
		channels int
		want     []float64
	}{
		{1, []float64{1}},
		{2, []float64{1, 1}},
		{5, []float64{1, 1, 1, 1.41, 1.41}},
		{6, []float64{1, 1, 1, 0, 1.41, 1.41}},
	}
	for _, tt := range tests {
		got := ChannelGains(tt.channels)
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("ChannelGains(%d) = %v, want %v", tt.channels, got, tt.want)
				break
			}
		}
	}
}

func TestComputeBlocksGeometry(t *testing.T) {
	const fs = 44100.0
	signal := make([]float64, int(fs)) // 1 s
	for i := range signal {
		signal[i] = 0.5
	}

	blocks := ComputeBlocks([][]float64{signal}, fs, MomentaryWindow, MomentaryOverlap, []float64{1})
	// 400 ms window, 100 ms hop over 1 s: 7 blocks.
	if len(blocks) != 7 {
		t.Fatalf("blocks: got %d, want 7", len(blocks))
	}
	for i, b := range blocks {
		if b.StartSample != i*4410 {
			t.Errorf("block %d start: got %d, want %d", i, b.StartSample, i*4410)
		}
		if math.Abs(b.Energy-0.25) > 1e-12 {
			t.Errorf("block %d energy: got %v, want 0.25", i, b.Energy)
		}
	}

	window, hop := BlockGeometry(48000, ShortTermWindow, ShortTermOverlap)
	if window != 144000 || hop != 14400 {
		t.Errorf("short-term geometry: got %d/%d, want 144000/14400", window, hop)
	}
}

func TestComputeBlocksTooShort(t *testing.T) {
	short := make([]float64, 4410) // 100 ms at 44.1 kHz
	if blocks := ComputeBlocks([][]float64{short}, 44100, MomentaryWindow, MomentaryOverlap, []float64{1}); len(blocks) != 0 {
		t.Errorf("got %d blocks, want 0", len(blocks))
	}
}

func TestComputeBlocksChannelWeighting(t *testing.T) {
	const fs = 48000.0
	ones := make([]float64, int(fs))
	for i := range ones {
		ones[i] = 1
	}
	channels := [][]float64{ones, ones, ones, ones, ones, ones}

	blocks := ComputeBlocks(channels, fs, MomentaryWindow, MomentaryOverlap, ChannelGains(6))
	// L R C contribute 1 each, LFE 0, Ls Rs 1.41 each.
	want := 3 + 2*1.41
	if math.Abs(blocks[0].Energy-want) > 1e-9 {
		t.Errorf("energy: got %v, want %v", blocks[0].Energy, want)
	}
}

func TestGateSilence(t *testing.T) {
	blocks := []GatingBlock{{Energy: 0}, {Energy: 0}, {Energy: 1e-12}}
	if got := NewGate().Integrate(blocks); !math.IsInf(got, -1) {
		t.Errorf("got %v, want -Inf", got)
	}
	if got := NewGate().Integrate(nil); !math.IsInf(got, -1) {
		t.Errorf("no blocks: got %v, want -Inf", got)
	}
	if got := MaxLoudness(nil); !math.IsInf(got, -1) {
		t.Errorf("MaxLoudness(nil): got %v, want -Inf", got)
	}
}

func TestGateRelativeStage(t *testing.T) {
	loud := math.Pow(10, (-20-LoudnessOffset)/10)  // -20 LUFS
	quiet := math.Pow(10, (-40-LoudnessOffset)/10) // -40 LUFS, under the relative gate

	blocks := make([]GatingBlock, 0, 20)
	for i := 0; i < 10; i++ {
		blocks = append(blocks, GatingBlock{Energy: loud}, GatingBlock{Energy: quiet})
	}

	got := NewGate().Integrate(blocks)
	if math.Abs(got+20) > 1e-9 {
		t.Errorf("got %v, want -20", got)
	}
}

func TestMeterEBUStereoReference(t *testing.T) {
	// EBU Tech 3341 case 1: stereo 1 kHz sine at -23 dBFS per channel
	// measures -23.0 LUFS.
	amp := math.Pow(10, -23.0/20)
	ch := sine(1000, amp, 48000, 20)

	res := NewMeter(NewGate(), nil, nil).Measure([][]float64{ch, ch}, 48000)
	if math.Abs(res.Integrated-(-23)) > 0.1 {
		t.Errorf("integrated: got %.3f, want -23.0 ±0.1", res.Integrated)
	}
	if math.Abs(res.MomentaryMax-(-23)) > 0.1 || math.Abs(res.ShortTermMax-(-23)) > 0.1 {
		t.Errorf("max values: momentary %.3f, short-term %.3f", res.MomentaryMax, res.ShortTermMax)
	}
	if res.LoudnessRange > 0.1 {
		t.Errorf("LRA of steady tone: got %.3f, want ~0", res.LoudnessRange)
	}
}

func TestMeterMonoSineMinus20(t *testing.T) {
	// RMS -20 dBFS mono 1 kHz sine at 44.1 kHz for 5 s.
	ch := sine(1000, 0.1*math.Sqrt2, 44100, 5)

	res := NewMeter(NewGate(), NoCalibration{}, nil).Measure([][]float64{ch}, 44100)
	if math.Abs(res.Integrated-(-20)) > 0.1 {
		t.Errorf("uncalibrated integrated: got %.3f, want -20.0 ±0.1", res.Integrated)
	}

	// Non-normative calibration: (-22, -15] gets +0.29 LU.
	cal := NewMeter(NewGate(), DefaultVolumeCalibration(), nil).Measure([][]float64{ch}, 44100)
	if math.Abs(cal.Integrated-(cal.IntegratedUncalibrated+0.29)) > 1e-12 {
		t.Errorf("calibrated: got %.3f from %.3f", cal.Integrated, cal.IntegratedUncalibrated)
	}
	if cal.MomentaryMax != res.MomentaryMax {
		t.Error("calibration leaked into momentary max")
	}
}

func TestMeterSilenceAndShortInput(t *testing.T) {
	m := NewMeter(NewGate(), DefaultVolumeCalibration(), nil)

	silent := m.Measure([][]float64{make([]float64, 44100*4)}, 44100)
	for name, v := range map[string]float64{
		"integrated": silent.Integrated,
		"momentary":  silent.MomentaryMax,
		"short-term": silent.ShortTermMax,
	} {
		if !math.IsInf(v, -1) {
			t.Errorf("silence %s: got %v, want -Inf", name, v)
		}
	}

	short := m.Measure([][]float64{sine(1000, 0.5, 44100, 0.1)}, 44100)
	if !math.IsInf(short.Integrated, -1) || short.MomentaryBlocks != 0 {
		t.Errorf("100 ms input: integrated %v, blocks %d", short.Integrated, short.MomentaryBlocks)
	}
}

func TestMeterIdempotent(t *testing.T) {
	ch := sine(440, 0.3, 44100, 4)
	m := NewMeter(NewGate(), DefaultVolumeCalibration(), nil)

	a := m.Measure([][]float64{ch, ch}, 44100)
	b := m.Measure([][]float64{ch, ch}, 44100)
	if *a != *b {
		t.Errorf("results differ:\n%+v\n%+v", a, b)
	}
}

func TestVolumeCalibrationBands(t *testing.T) {
	vc := DefaultVolumeCalibration()
	tests := []struct{ in, want float64 }{
		{-10, -9.23},
		{-15, -14.71},
		{-20, -19.71},
		{-22, -20.42},
		{-30, -28.42},
	}
	for _, tt := range tests {
		if got := vc.Apply(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Apply(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := vc.Apply(math.Inf(-1)); !math.IsInf(got, -1) {
		t.Errorf("Apply(-Inf) = %v", got)
	}
}

func TestLoudnessRange(t *testing.T) {
	toEnergy := func(l float64) float64 { return math.Pow(10, (l-LoudnessOffset)/10) }

	var blocks []GatingBlock
	for i := 0; i < 100; i++ {
		// Alternate -20 and -30 LUFS; both survive the -20 LU relative gate.
		l := -20.0
		if i%2 == 1 {
			l = -30
		}
		blocks = append(blocks, GatingBlock{Energy: toEnergy(l)})
	}
	if got := LoudnessRange(blocks); math.Abs(got-10) > 1e-9 {
		t.Errorf("got %v, want 10", got)
	}
	if got := LoudnessRange(blocks[:1]); got != 0 {
		t.Errorf("single block: got %v, want 0", got)
	}
}
