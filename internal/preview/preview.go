// Package preview normalizes the raw entry dumps engines produce for
// collection introspection.
package preview

import (
	"fmt"

	"github.com/cryguy/zero/internal/core"
)

// Pair is one key/value entry of a keyed collection.
type Pair[T any] struct {
	Key   T
	Value T
}

// Entries is a normalized entry dump. Exactly one of Values and Pairs is
// meaningful, depending on Keyed.
type Entries[T any] struct {
	Keyed  bool
	Values []T
	Pairs  []Pair[T]
}

// Len returns the number of logical entries.
func (e Entries[T]) Len() int {
	if e.Keyed {
		return len(e.Pairs)
	}
	return len(e.Values)
}

// Normalize turns a raw (flat, keyed) dump into entries. An unkeyed dump is
// returned unchanged; a keyed one is read as consecutive key/value slots.
func Normalize[T any](flat []T, keyed bool) (Entries[T], error) {
	if !keyed {
		return Entries[T]{Values: flat}, nil
	}
	if len(flat)%2 != 0 {
		return Entries[T]{}, fmt.Errorf("keyed entry dump has odd length %d: %w", len(flat), core.ErrInvalidInput)
	}
	pairs := make([]Pair[T], len(flat)/2)
	for i := range pairs {
		pairs[i] = Pair[T]{Key: flat[2*i], Value: flat[2*i+1]}
	}
	return Entries[T]{Keyed: true, Pairs: pairs}, nil
}

// Layout returns, for a dump of n raw slots, the slot indices each
// normalized entry is built from: one index per entry when unkeyed, a
// key/value index pair when keyed. Engines that cannot move their values
// into Go use it to rebuild entries on their side.
func Layout(n int, keyed bool) ([][]int, error) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	entries, err := Normalize(idx, keyed)
	if err != nil {
		return nil, err
	}
	out := make([][]int, 0, entries.Len())
	if !entries.Keyed {
		for _, v := range entries.Values {
			out = append(out, []int{v})
		}
		return out, nil
	}
	for _, p := range entries.Pairs {
		out = append(out, []int{p.Key, p.Value})
	}
	return out, nil
}
