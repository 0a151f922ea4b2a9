// Package dominoes implements the double-six dominoes rules engine, covering
// the classic variant and the four-seat, two-team Boricua variant.
//
// Every operation takes the current State by value and returns the next
// State or an error; a failed operation never partially mutates its input.
package dominoes

import (
	"fmt"
	"math/rand"
)

// Tile is one domino: an unordered pip pair. Orientation on the board is
// normalized at placement time so the matched pip sits adjacent to the
// existing end.
type Tile struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

func (t Tile) String() string { return fmt.Sprintf("[%d|%d]", t.Left, t.Right) }

// Matches reports whether either pip equals v.
func (t Tile) Matches(v int) bool { return t.Left == v || t.Right == v }

// IsDouble reports whether both pips are equal.
func (t Tile) IsDouble() bool { return t.Left == t.Right }

// PipTotal is the sum of both pips.
func (t Tile) PipTotal() int { return t.Left + t.Right }

func (t Tile) flipped() Tile { return Tile{Left: t.Right, Right: t.Left} }

// Same reports tile identity regardless of orientation.
func (t Tile) Same(o Tile) bool { return t == o || t == o.flipped() }

// newSet builds the shuffled 28-tile double-six set. The top of the boneyard
// is the last element.
func newSet(rng *rand.Rand) []Tile {
	set := make([]Tile, 0, 28)
	for lo := 0; lo <= 6; lo++ {
		for hi := lo; hi <= 6; hi++ {
			set = append(set, Tile{Left: lo, Right: hi})
		}
	}
	rng.Shuffle(len(set), func(i, j int) {
		set[i], set[j] = set[j], set[i]
	})
	return set
}
