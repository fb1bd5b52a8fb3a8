package tonal

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tillrd/lufalyze/algorithms/chroma"
)

// ScalePattern is a set of semitone offsets from the tonic.
type ScalePattern struct {
	Name      string `json:"name"`
	Intervals []int  `json:"intervals"`
}

// DefaultScalePatterns returns the scales tested at every root.
func DefaultScalePatterns() []ScalePattern {
	return []ScalePattern{
		{"Major", []int{0, 2, 4, 5, 7, 9, 11}},
		{"Natural Minor", []int{0, 2, 3, 5, 7, 8, 10}},
		{"Harmonic Minor", []int{0, 2, 3, 5, 7, 8, 11}},
		{"Dorian", []int{0, 2, 3, 5, 7, 9, 10}},
		{"Lydian", []int{0, 2, 4, 6, 7, 9, 11}},
		{"Mixolydian", []int{0, 2, 4, 5, 7, 9, 10}},
		{"Pentatonic Major", []int{0, 2, 4, 7, 9}},
		{"Pentatonic Minor", []int{0, 3, 5, 7, 10}},
		{"Blues", []int{0, 3, 5, 6, 7, 10}},
	}
}

// ScaleMatch is one (root, scale) candidate.
type ScaleMatch struct {
	Name     string  `json:"name"`
	Root     string  `json:"root"`
	Scale    string  `json:"scale"`
	Strength float64 `json:"strength"`
	Category string  `json:"category"`
}

// ScaleAnalyzer scores how well a chroma vector fits each scale at each root.
type ScaleAnalyzer struct {
	Patterns   []ScalePattern
	Threshold  float64
	MaxResults int
}

// NewScaleAnalyzer keeps fits above 0.10 and returns at most eight.
func NewScaleAnalyzer() *ScaleAnalyzer {
	return &ScaleAnalyzer{
		Patterns:   DefaultScalePatterns(),
		Threshold:  0.10,
		MaxResults: 8,
	}
}

// Analyze returns matches sorted by descending strength. Equal strengths keep
// pattern order, then root order. The chroma is scaled to unit sum first so
// the out-of-scale penalty does not depend on signal level.
func (sa *ScaleAnalyzer) Analyze(c chroma.Vector) []ScaleMatch {
	if c.IsZero() {
		return nil
	}
	c = c.Normalized()

	var matches []ScaleMatch
	for _, p := range sa.Patterns {
		for root := 0; root < 12; root++ {
			fit := ScaleFit(c, p.Intervals, root)
			if fit <= sa.Threshold {
				continue
			}
			name := fmt.Sprintf("%s %s", chroma.PitchClassName(root), p.Name)
			matches = append(matches, ScaleMatch{
				Name:     name,
				Root:     chroma.PitchClassName(root),
				Scale:    p.Name,
				Strength: fit,
				Category: ScaleCategory(p.Name),
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Strength > matches[j].Strength
	})
	if sa.MaxResults > 0 && len(matches) > sa.MaxResults {
		matches = matches[:sa.MaxResults]
	}
	return matches
}

// intervalWeight ranks scale degrees: tonic, then thirds and fifth, then
// second and sixth, then fourth and minor seventh.
func intervalWeight(interval int) float64 {
	switch interval {
	case 0:
		return 3.0
	case 3, 4, 7:
		return 2.0
	case 2, 9:
		return 1.5
	case 5, 10:
		return 1.3
	default:
		return 1.0
	}
}

// ScaleFit scores chroma against a scale rooted at root, in [0, 1].
// Out-of-scale energy counts double and also scales down the result.
func ScaleFit(c chroma.Vector, intervals []int, root int) float64 {
	inScale := make(map[int]bool, len(intervals))
	for _, iv := range intervals {
		inScale[iv] = true
	}

	var in, out, weights float64
	for i, e := range c {
		interval := chroma.Wrap(i - root)
		if inScale[interval] {
			w := intervalWeight(interval)
			in += e * w
			weights += w
		} else {
			out += e * 2
		}
	}

	if weights == 0 || len(inScale) >= 12 {
		return 0
	}
	nin := in / weights
	nout := out / float64(12-len(inScale))
	if nin+nout == 0 {
		return 0
	}

	ratio := nin / (nin + nout)
	penalty := 1 / (1 + 3*nout)
	return math.Pow(ratio*penalty, 0.8)
}

// ScaleCategory groups a scale name into a family. Rules are checked in
// order, so "Pentatonic Major" is a Major Family scale.
func ScaleCategory(name string) string {
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(name, w) {
				return true
			}
		}
		return false
	}

	switch {
	case has("Major", "Lydian", "Mixolydian"):
		return "Major Family"
	case has("Minor", "Dorian", "Phrygian", "Aeolian"):
		return "Minor Family"
	case has("Pentatonic"):
		return "Pentatonic"
	case has("Blues"):
		return "Blues"
	case has("Diminished", "Locrian"):
		return "Diminished"
	case has("Arabic", "Persian", "Hungarian", "Spanish"):
		return "World/Exotic"
	default:
		return "Other"
	}
}
