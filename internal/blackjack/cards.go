// Package blackjack implements the blackjack variant rules engine.
//
// Every operation takes the current State by value and returns the next
// State or an error; the caller owns persistence of the returned value.
// A failed operation never partially mutates its input.
package blackjack

import (
	"fmt"
	"math/rand"
)

// Card is a playing card. Rank uses "A", "2".."10", "J", "Q", "K".
type Card struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

// FaceDown is the masked placeholder substituted for the dealer's hole card
// in sanitized projections.
var FaceDown = Card{Suit: "?", Rank: "?"}

func (c Card) String() string {
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}

var (
	suits = []string{"hearts", "diamonds", "clubs", "spades"}
	ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
)

// newDeck builds a standard 52-card deck and shuffles it with rng.
// The top of the deck is the last element.
func newDeck(rng *rand.Rand) []Card {
	deck := make([]Card, 0, 52)
	for _, s := range suits {
		for _, r := range ranks {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// rankValue returns the high value of a rank: ace counts 11 until demoted
// by HandValue, face cards count 10. The masked rank counts 0.
func rankValue(rank string) int {
	switch rank {
	case "A":
		return 11
	case "K", "Q", "J", "10":
		return 10
	case "9":
		return 9
	case "8":
		return 8
	case "7":
		return 7
	case "6":
		return 6
	case "5":
		return 5
	case "4":
		return 4
	case "3":
		return 3
	case "2":
		return 2
	}
	return 0
}

// HandValue computes the soft/hard value of a hand. Aces start at 11 and are
// demoted to 1 one at a time while the total exceeds 21.
func HandValue(cards []Card) int {
	total := 0
	aces := 0
	for _, c := range cards {
		total += rankValue(c.Rank)
		if c.Rank == "A" {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}
