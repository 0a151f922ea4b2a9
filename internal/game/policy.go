package game

import (
	"github.com/ncruz/tablero/internal/blackjack"
	"github.com/ncruz/tablero/internal/dominoes"
)

// blackjackPolicy mirrors the dealer heuristic: hit below 17, stand otherwise.
func blackjackPolicy(s blackjack.State, seat string) blackjack.Move {
	if s.Hands[seat].Value < 17 {
		return blackjack.Move{Action: blackjack.ActionHit}
	}
	return blackjack.Move{Action: blackjack.ActionStand}
}

// dominoesPolicy plays greedily: on an empty board lead the highest-pip tile,
// otherwise place the first tile that fits the left end, then the right end.
// With nothing playable it draws while the boneyard holds tiles, then passes.
func dominoesPolicy(s dominoes.State, seat string) dominoes.Move {
	hand := s.Hands[seat]
	if len(s.Board) == 0 {
		best := 0
		for i, t := range hand {
			if t.PipTotal() > hand[best].PipTotal() {
				best = i
			}
		}
		t := hand[best]
		return dominoes.Move{Action: dominoes.ActionPlay, Tile: &t, Side: dominoes.SideRight}
	}
	left, right := dominoes.LeftEnd(s), dominoes.RightEnd(s)
	for _, t := range hand {
		if t.Matches(left) {
			t := t
			return dominoes.Move{Action: dominoes.ActionPlay, Tile: &t, Side: dominoes.SideLeft}
		}
	}
	for _, t := range hand {
		if t.Matches(right) {
			t := t
			return dominoes.Move{Action: dominoes.ActionPlay, Tile: &t, Side: dominoes.SideRight}
		}
	}
	if len(s.Boneyard) > 0 {
		return dominoes.Move{Action: dominoes.ActionDraw}
	}
	return dominoes.Move{Action: dominoes.ActionPass}
}
