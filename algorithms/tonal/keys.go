package tonal

import (
	"fmt"

	"github.com/tillrd/lufalyze/algorithms/chroma"
)

// Mode is major or minor.
type Mode int

const (
	Major Mode = iota
	Minor
)

func (m Mode) String() string {
	if m == Minor {
		return "Minor"
	}
	return "Major"
}

// Key is a tonic pitch class and a mode.
type Key struct {
	Root int
	Mode Mode
}

// KeyFromIndex maps 0..11 to the major keys and 12..23 to the minor keys.
func KeyFromIndex(i int) Key {
	if i >= 12 {
		return Key{Root: chroma.Wrap(i - 12), Mode: Minor}
	}
	return Key{Root: chroma.Wrap(i), Mode: Major}
}

// Index is the inverse of KeyFromIndex.
func (k Key) Index() int {
	if k.Mode == Minor {
		return 12 + k.Root
	}
	return k.Root
}

// Name renders the key as "C Major" or "A Minor".
func (k Key) Name() string {
	return fmt.Sprintf("%s %s", chroma.PitchClassName(k.Root), k.Mode)
}

// Relative shares the key signature: the minor a minor third below a major
// key, the major a minor third above a minor key.
func (k Key) Relative() Key {
	if k.Mode == Major {
		return Key{Root: chroma.Wrap(k.Root - 3), Mode: Minor}
	}
	return Key{Root: chroma.Wrap(k.Root + 3), Mode: Major}
}

// Parallel keeps the tonic and swaps the mode.
func (k Key) Parallel() Key {
	if k.Mode == Major {
		return Key{Root: k.Root, Mode: Minor}
	}
	return Key{Root: k.Root, Mode: Major}
}

// Dominant is a fifth above, same mode.
func (k Key) Dominant() Key {
	return Key{Root: chroma.Wrap(k.Root + 7), Mode: k.Mode}
}

// Subdominant is a fifth below, same mode.
func (k Key) Subdominant() Key {
	return Key{Root: chroma.Wrap(k.Root - 7), Mode: k.Mode}
}

// KeyRelationships lists the closely related keys of an estimate.
type KeyRelationships struct {
	Relative    string `json:"relative"`
	Parallel    string `json:"parallel"`
	Dominant    string `json:"dominant"`
	Subdominant string `json:"subdominant"`
}

// Relationships collects the named neighbours of k.
func (k Key) Relationships() KeyRelationships {
	return KeyRelationships{
		Relative:    k.Relative().Name(),
		Parallel:    k.Parallel().Name(),
		Dominant:    k.Dominant().Name(),
		Subdominant: k.Subdominant().Name(),
	}
}
