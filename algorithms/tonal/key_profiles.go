package tonal

// KeyProfile is a pair of major and minor pitch-class templates, rooted at C,
// with the weight its vote carries in the consensus.
type KeyProfile struct {
	Name   string      `json:"name"`
	Weight float64     `json:"weight"`
	Major  [12]float64 `json:"major"`
	Minor  [12]float64 `json:"minor"`
}

// DefaultKeyProfiles returns the consensus set, heaviest first. The weights
// sum to 1.
func DefaultKeyProfiles() []KeyProfile {
	return []KeyProfile{
		{
			// Electronic dance music corpus.
			Name:   "EDMA",
			Weight: 0.35,
			Major:  [12]float64{17.7661, 0.145624, 14.9265, 0.160186, 19.8049, 11.3587, 0.291248, 22.062, 0.145624, 8.15494, 0.232998, 4.95122},
			Minor:  [12]float64{18.2648, 0.737619, 14.0499, 16.8599, 0.702494, 14.4362, 0.702494, 18.6161, 4.56621, 1.93186, 7.37619, 1.75623},
		},
		{
			Name:   "Hybrid",
			Weight: 0.25,
			Major:  [12]float64{16.8, 0.86, 12.95, 1.41, 13.49, 11.93, 1.25, 20.28, 1.80, 8.04, 0.62, 10.57},
			Minor:  [12]float64{18.16, 0.69, 12.99, 13.34, 1.07, 11.15, 1.38, 21.07, 7.49, 1.53, 6.24, 1.61},
		},
		{
			// Krumhansl-Kessler probe-tone ratings.
			Name:   "Krumhansl",
			Weight: 0.20,
			Major:  [12]float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88},
			Minor:  [12]float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17},
		},
		{
			Name:   "Temperley",
			Weight: 0.15,
			Major:  [12]float64{5.0, 2.0, 3.5, 2.0, 4.5, 4.0, 2.0, 4.5, 2.0, 3.5, 1.5, 4.0},
			Minor:  [12]float64{5.0, 2.0, 3.5, 4.5, 2.0, 4.0, 2.0, 4.5, 3.5, 2.0, 1.5, 4.0},
		},
		{
			Name:   "Shaath",
			Weight: 0.05,
			Major:  [12]float64{6.6, 2.0, 3.5, 2.3, 4.6, 4.0, 2.5, 5.2, 2.4, 3.7, 2.3, 3.4},
			Minor:  [12]float64{6.5, 2.7, 3.5, 5.4, 2.6, 3.5, 2.5, 4.7, 4.0, 2.7, 3.4, 3.2},
		},
	}
}
