package tonal

import (
	"math"

	"github.com/tillrd/lufalyze/algorithms/chroma"
	"github.com/tillrd/lufalyze/algorithms/common"
)

// Unknown is reported as the key when the chroma vector carries no energy.
const Unknown = "Unknown"

// Bounds on a determinate estimate's confidence.
const (
	minConfidence = 0.05
	maxConfidence = 0.95

	// Coefficient of variation below which a chroma counts as nearly flat.
	flatSpread = 0.05
)

// ProfileVote records which key a single profile preferred.
type ProfileVote struct {
	Profile  string  `json:"profile"`
	Key      string  `json:"key"`
	Strength float64 `json:"strength"`
	Weight   float64 `json:"weight"`
}

// KeyEstimate is the outcome of matching a chroma vector against the key
// profiles.
type KeyEstimate struct {
	Key                string            `json:"key"`
	RootNote           string            `json:"root_note"`
	IsMajor            bool              `json:"is_major"`
	Confidence         float64           `json:"confidence"`
	TonalClarity       float64           `json:"tonal_clarity"`
	HarmonicComplexity float64           `json:"harmonic_complexity"`
	ProfileAgreement   float64           `json:"profile_agreement"`
	Chroma             chroma.Vector     `json:"chroma"`
	Scales             []ScaleMatch      `json:"scales"`
	Relationships      *KeyRelationships `json:"relationships,omitempty"`
	Votes              []ProfileVote     `json:"votes,omitempty"`

	// Indeterminate is set for silent or too-short input. Key is Unknown and
	// every score is zero.
	Indeterminate bool `json:"indeterminate"`

	// Winner is the estimated key; meaningless when Indeterminate.
	Winner Key `json:"-"`
}

// KeyProfileMatcher picks a key by weighted voting across several key profiles.
//
// Each profile correlates the chroma vector with its 24 rotated templates and
// votes for its best match with weight × strength, where strength maps the
// Pearson correlation from [-1, 1] to [0, 1]. The key with the most votes
// wins; confidence is its share of all votes.
type KeyProfileMatcher struct {
	profiles []KeyProfile
	scales   *ScaleAnalyzer
}

// NewKeyProfileMatcher uses the given profiles; nil selects DefaultKeyProfiles.
func NewKeyProfileMatcher(profiles []KeyProfile) *KeyProfileMatcher {
	if len(profiles) == 0 {
		profiles = DefaultKeyProfiles()
	}
	return &KeyProfileMatcher{profiles: profiles, scales: NewScaleAnalyzer()}
}

// Profiles returns the profiles in use.
func (m *KeyProfileMatcher) Profiles() []KeyProfile {
	return m.profiles
}

// Match matches c against every profile.
func (m *KeyProfileMatcher) Match(c chroma.Vector) KeyEstimate {
	if c.IsZero() || !finite(c) {
		return KeyEstimate{Key: Unknown, RootNote: Unknown, Chroma: c, Indeterminate: true}
	}

	var votes, full [24]float64
	ballots := make([]ProfileVote, 0, len(m.profiles))
	picks := make([]scoredKey, 0, len(m.profiles))

	for _, p := range m.profiles {
		best, bestStrength := 0, -1.0
		for pair := 0; pair < 24; pair++ {
			k := KeyFromIndex(pair)
			template := p.Major
			if k.Mode == Minor {
				template = p.Minor
			}
			s := (rotatedCorrelation(c, template, k.Root) + 1) / 2
			full[pair] += p.Weight * s
			if s > bestStrength {
				best, bestStrength = pair, s
			}
		}

		votes[best] += p.Weight * bestStrength
		picks = append(picks, scoredKey{key: KeyFromIndex(best), strength: bestStrength})
		ballots = append(ballots, ProfileVote{
			Profile:  p.Name,
			Key:      KeyFromIndex(best).Name(),
			Strength: bestStrength,
			Weight:   p.Weight,
		})
	}

	// Majors come first in index order, so a strict comparison settles ties
	// on major, then on the lower root.
	winner, total := 0, 0.0
	for pair, v := range votes {
		total += v
		if v > votes[winner] {
			winner = pair
		}
	}

	// The vote share alone says nothing about how well the profiles fit, so
	// it is scaled by how much the individual picks agree. Correlation
	// ignores scale, so a chroma that barely departs from flat is damped too.
	agreement := profileAgreement(picks)
	confidence := 0.0
	if total > 0 {
		confidence = votes[winner] / total * agreement
		if spread := chromaSpread(c); spread < flatSpread {
			confidence *= spread / flatSpread
		}
		confidence = common.Clamp(confidence, minConfidence, maxConfidence)
	}

	k := KeyFromIndex(winner)
	rel := k.Relationships()
	return KeyEstimate{
		Key:                k.Name(),
		RootNote:           chroma.PitchClassName(k.Root),
		IsMajor:            k.Mode == Major,
		Confidence:         confidence,
		TonalClarity:       tonalClarity(full, winner),
		HarmonicComplexity: HarmonicComplexity(c),
		ProfileAgreement:   agreement,
		Chroma:             c,
		Scales:             m.scales.Analyze(c),
		Relationships:      &rel,
		Votes:              ballots,
		Winner:             k,
	}
}

// rotatedCorrelation is the Pearson correlation between chroma rotated to
// root and a C-rooted template. A flat input correlates with nothing.
func rotatedCorrelation(c chroma.Vector, template [12]float64, root int) float64 {
	x := c.Rotate(root)
	return common.Pearson(x[:], template[:])
}

// chromaSpread is the coefficient of variation of c; 0 for a flat vector.
func chromaSpread(c chroma.Vector) float64 {
	mean := common.Mean(c[:])
	if mean <= 0 {
		return 0
	}
	return math.Sqrt(common.PopulationVariance(c[:])) / mean
}

// tonalClarity is how far the winner's full consensus score stands above
// the mean of all 24, clamped to [0, 1].
func tonalClarity(full [24]float64, winner int) float64 {
	mean := 0.0
	for _, v := range full {
		mean += v
	}
	mean /= 24
	if mean <= 0 {
		return 0
	}
	return common.Clamp(full[winner]/mean-1, 0, 1)
}

// HarmonicComplexity is 0 for a single pitch class and 1 for a flat
// distribution, from the variance of the unit-sum chroma.
func HarmonicComplexity(c chroma.Vector) float64 {
	if c.IsZero() {
		return 0
	}
	p := c.Normalized()
	// Variance of a one-hot 12-vector.
	const maxVariance = 11.0 / 144.0
	return 1 - common.Clamp(common.PopulationVariance(p[:])/maxVariance, 0, 1)
}

type scoredKey struct {
	key      Key
	strength float64
}

// profileAgreement averages pairwise agreement between the profiles' picks,
// each pair weighted by the geometric mean of their strengths. Same key
// scores 1, same root 0.7, relative 0.6, a fifth apart 0.4. The result is
// floored at 0.3.
func profileAgreement(picks []scoredKey) float64 {
	if len(picks) < 2 {
		return 1
	}

	total, pairs := 0.0, 0
	for i := range picks {
		for j := i + 1; j < len(picks); j++ {
			a, b := picks[i].key, picks[j].key
			var score float64
			switch {
			case a == b:
				score = 1
			case a.Root == b.Root:
				score = 0.7
			case chroma.Wrap(a.Root+3) == b.Root || chroma.Wrap(b.Root+3) == a.Root:
				score = 0.6
			case chroma.Wrap(a.Root+7) == b.Root || chroma.Wrap(b.Root+7) == a.Root:
				score = 0.4
			}
			total += score * math.Sqrt(picks[i].strength*picks[j].strength)
			pairs++
		}
	}
	return max(total/float64(pairs), 0.3)
}

func finite(c chroma.Vector) bool {
	for _, v := range c {
		if !common.IsFinite(v) || v < 0 {
			return false
		}
	}
	return true
}
