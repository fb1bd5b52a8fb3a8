package loudness

import (
	"math"
	"sort"
)

// Gating constants from BS.1770-4 and EBU Tech 3342.
const (
	LoudnessOffset     = -0.691
	AbsoluteGateLUFS   = -70.0
	RelativeGateLU     = -10.0
	RangeRelativeGate  = -20.0
	RangeLowPercentile = 0.10
	RangeHiPercentile  = 0.95
)

// EnergyToLUFS maps a block energy to loudness; zero or negative energy is
// -Inf.
func EnergyToLUFS(energy float64) float64 {
	if energy <= 0 {
		return math.Inf(-1)
	}
	return LoudnessOffset + 10*math.Log10(energy)
}

// Gate implements the two-stage integrated loudness gate.
type Gate struct {
	AbsoluteLUFS float64
	RelativeLU   float64
}

// NewGate returns a gate with the BS.1770-4 thresholds.
func NewGate() Gate {
	return Gate{AbsoluteLUFS: AbsoluteGateLUFS, RelativeLU: RelativeGateLU}
}

// Integrate returns the gated integrated loudness in LUFS, or -Inf when no
// block survives either gate.
func (g Gate) Integrate(blocks []GatingBlock) float64 {
	sum, count := 0.0, 0
	for _, b := range blocks {
		if EnergyToLUFS(b.Energy) > g.AbsoluteLUFS {
			sum += b.Energy
			count++
		}
	}
	if count == 0 {
		return math.Inf(-1)
	}

	relative := EnergyToLUFS(sum/float64(count)) + g.RelativeLU

	sum, count = 0, 0
	for _, b := range blocks {
		l := EnergyToLUFS(b.Energy)
		if l > g.AbsoluteLUFS && l >= relative {
			sum += b.Energy
			count++
		}
	}
	if count == 0 {
		return math.Inf(-1)
	}
	return EnergyToLUFS(sum / float64(count))
}

// MaxLoudness is the loudest single block, ungated; -Inf for no blocks.
func MaxLoudness(blocks []GatingBlock) float64 {
	maxEnergy := 0.0
	for _, b := range blocks {
		maxEnergy = max(maxEnergy, b.Energy)
	}
	return EnergyToLUFS(maxEnergy)
}

// LoudnessRange computes LRA (EBU Tech 3342) from short-term blocks: absolute
// gate at -70 LUFS, relative gate 20 LU under the power mean, then the spread
// between the 10th and 95th percentile of the survivors. Fewer than two
// survivors give 0.
func LoudnessRange(shortTerm []GatingBlock) float64 {
	sum := 0.0
	levels := make([]float64, 0, len(shortTerm))
	energies := make([]float64, 0, len(shortTerm))
	for _, b := range shortTerm {
		l := EnergyToLUFS(b.Energy)
		if l > AbsoluteGateLUFS {
			levels = append(levels, l)
			energies = append(energies, b.Energy)
			sum += b.Energy
		}
	}
	if len(levels) < 2 {
		return 0
	}

	relative := EnergyToLUFS(sum/float64(len(energies))) + RangeRelativeGate

	gated := levels[:0]
	for _, l := range levels {
		if l >= relative {
			gated = append(gated, l)
		}
	}
	if len(gated) < 2 {
		return 0
	}

	sort.Float64s(gated)
	n := float64(len(gated))
	low := gated[int(n*RangeLowPercentile)]
	high := gated[min(int(n*RangeHiPercentile), len(gated)-1)]
	return high - low
}
