package analyzers

import (
	"encoding/json"
	"math"
)

// Level is a dB or LUFS value. Silence legitimately produces -Inf, which JSON
// cannot carry, so non-finite levels encode as null.
type Level float64

func (l Level) MarshalJSON() ([]byte, error) {
	f := float64(l)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// UnmarshalJSON maps null back to -Inf.
func (l *Level) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = Level(math.Inf(-1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*l = Level(f)
	return nil
}

// Finite reports whether the level is a real number.
func (l Level) Finite() bool {
	f := float64(l)
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
