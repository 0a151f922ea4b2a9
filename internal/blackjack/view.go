package blackjack

import "github.com/ncruz/tablero/internal/models"

// Sanitize derives the projection of the state safe to push to the given
// viewing seat: every other seat's hand and the deck become count-only
// placeholders, and while the round is in progress the dealer's hole card is
// masked and the dealer's visible value covers only the up card.
//
// Sanitize operates on an independent copy and is idempotent: sanitizing an
// already sanitized projection for the same seat yields the same result.
func Sanitize(s State, viewer string) State {
	out := s.clone()

	if out.Deck != nil {
		out.DeckCount = len(out.Deck)
		out.Deck = nil
	}

	for seat, h := range out.Hands {
		if seat == viewer {
			continue
		}
		if h.Cards != nil {
			h.Count = len(h.Cards)
			h.Cards = nil
		}
		h.Value = 0
		out.Hands[seat] = h
	}

	if out.Status == models.StatusInProgress && len(out.Dealer.Cards) > 1 {
		for i := 1; i < len(out.Dealer.Cards); i++ {
			out.Dealer.Cards[i] = FaceDown
		}
		out.Dealer.Value = HandValue(out.Dealer.Cards[:1])
	}
	return out
}
