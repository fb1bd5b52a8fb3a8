package chroma

import "math"

// PitchClassNames lists the twelve pitch classes starting at C, sharps only.
var PitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchClassName returns the name of pitch class pc, wrapping out-of-range
// values.
func PitchClassName(pc int) string {
	return PitchClassNames[Wrap(pc)]
}

// Wrap folds any integer into [0, 12).
func Wrap(pc int) int {
	pc %= 12
	if pc < 0 {
		pc += 12
	}
	return pc
}

// FrequencyToMIDI converts a frequency to a fractional MIDI note number
// relative to the given A4 tuning.
func FrequencyToMIDI(frequency, tuning float64) float64 {
	if frequency <= 0 {
		return 0
	}
	return 69 + 12*math.Log2(frequency/tuning)
}

// FrequencyToPitchClass rounds frequency to the nearest equal-tempered note
// and returns its pitch class.
func FrequencyToPitchClass(frequency, tuning float64) int {
	return Wrap(int(math.Round(FrequencyToMIDI(frequency, tuning))))
}
