package blackjack

import (
	"fmt"
	"math/rand"

	"github.com/ncruz/tablero/internal/models"
)

// Game modes. An unrecognized mode falls back to the best-of-5 threshold
// rather than failing creation.
const (
	ModeBestOf5  = "best_of_5"
	ModeBestOf10 = "best_of_10"
)

// SeatStatus is the per-seat resolution state within a round.
type SeatStatus string

const (
	SeatPlaying SeatStatus = "playing"
	SeatStood   SeatStatus = "stood"
	SeatBusted  SeatStatus = "busted"
)

// Dealer draws until reaching this value.
const dealerStand = 17

// DefaultBet is the flat bet recorded per seat each round.
const DefaultBet = 10

// Hand is one seat's (or the dealer's) hand record.
// Count is populated only in sanitized projections, where Cards is dropped.
type Hand struct {
	Cards  []Card     `json:"cards,omitempty"`
	Count  int        `json:"count,omitempty"`
	Value  int        `json:"value"`
	Status SeatStatus `json:"status,omitempty"`
	Bet    int        `json:"bet,omitempty"`
}

// State is the authoritative blackjack game state. It is persisted as an
// opaque document by the orchestrator and mutated only through New, Apply,
// MarkReady and NextRound.
type State struct {
	Mode       string          `json:"mode"`
	Seats      []string        `json:"seats"`
	Hands      map[string]Hand `json:"hands"`
	Dealer     Hand            `json:"dealer"`
	Deck       []Card          `json:"deck,omitempty"`
	DeckCount  int             `json:"deckCount,omitempty"`
	Turn       int             `json:"turn"`
	Scores     map[string]int  `json:"scores"`
	HandWins   map[string]int  `json:"handWins"`
	Round      int             `json:"round"`
	WinsNeeded int             `json:"winsNeeded"`
	Status     models.Status   `json:"status"`
	Winner     string          `json:"winner,omitempty"`
	Ready      map[string]bool `json:"ready,omitempty"`
	Log        []string        `json:"log"`
}

// Move is a blackjack move payload. Unknown actions are rejected.
type Move struct {
	Action string `json:"action"`
}

const (
	ActionHit   = "hit"
	ActionStand = "stand"
)

func winsNeeded(mode string) int {
	switch mode {
	case ModeBestOf10:
		return 5
	default: // ModeBestOf5 and anything unrecognized
		return 3
	}
}

// New creates a blackjack round for the given seats: builds and shuffles a
// 52-card deck, deals two cards per seat and two to the dealer, and marks any
// seat dealt exactly 21 as stood. If every seat is already resolved the dealer
// turn runs and winners are resolved before returning.
func New(seats []string, mode string, seed int64) (State, error) {
	s, err := deal(seats, mode, seed)
	if err != nil {
		return State{}, err
	}
	if s.Turn >= len(s.Seats) {
		s.finishRound()
	}
	return s, nil
}

// deal builds the shuffled deck and initial hands without resolving the round.
func deal(seats []string, mode string, seed int64) (State, error) {
	if len(seats) < 1 || len(seats) > 4 {
		return State{}, fmt.Errorf("blackjack needs 1-4 seats, got %d: %w", len(seats), models.ErrInvalidConfig)
	}
	rng := rand.New(rand.NewSource(seed))

	s := State{
		Mode:       mode,
		Seats:      append([]string(nil), seats...),
		Hands:      make(map[string]Hand, len(seats)),
		Deck:       newDeck(rng),
		Scores:     make(map[string]int, len(seats)),
		HandWins:   make(map[string]int, len(seats)),
		Round:      1,
		WinsNeeded: winsNeeded(mode),
		Status:     models.StatusInProgress,
		Ready:      make(map[string]bool),
	}

	for _, seat := range seats {
		h := Hand{Status: SeatPlaying, Bet: DefaultBet}
		h.Cards = append(h.Cards, s.draw(), s.draw())
		h.Value = HandValue(h.Cards)
		if h.Value == 21 {
			h.Status = SeatStood
			s.logf("%s is dealt 21 and stands", seat)
		}
		s.Hands[seat] = h
		s.Scores[seat] = 0
		s.HandWins[seat] = 0
	}
	s.Dealer.Cards = append(s.Dealer.Cards, s.draw(), s.draw())
	s.Dealer.Value = HandValue(s.Dealer.Cards)
	s.logf("fresh hands dealt to %d seats", len(seats))

	s.advancePastResolved()
	return s, nil
}

// Apply validates and applies one move by the given seat, returning the next
// state. The input state is never mutated.
func Apply(s State, seat string, mv Move) (State, error) {
	if s.Status != models.StatusInProgress {
		return s, fmt.Errorf("round is not in progress: %w", models.ErrInvalidState)
	}
	if s.Turn >= len(s.Seats) || s.Seats[s.Turn] != seat {
		return s, fmt.Errorf("seat %s: %w", seat, models.ErrInvalidTurn)
	}
	hand, ok := s.Hands[seat]
	if !ok || hand.Status != SeatPlaying {
		return s, fmt.Errorf("seat %s is not playing: %w", seat, models.ErrInvalidState)
	}

	next := s.clone()
	switch mv.Action {
	case ActionHit:
		card := next.draw()
		hand = next.Hands[seat]
		hand.Cards = append(hand.Cards, card)
		hand.Value = HandValue(hand.Cards)
		next.logf("%s hits and draws %s", seat, card)
		if hand.Value > 21 {
			hand.Status = SeatBusted
			next.logf("%s busts at %d", seat, hand.Value)
		}
		next.Hands[seat] = hand
	case ActionStand:
		hand = next.Hands[seat]
		hand.Status = SeatStood
		next.Hands[seat] = hand
		next.logf("%s stands at %d", seat, hand.Value)
	default:
		return s, fmt.Errorf("unknown blackjack action %q: %w", mv.Action, models.ErrInvalidAction)
	}

	if next.Hands[seat].Status != SeatPlaying {
		next.Turn++
		next.advancePastResolved()
	}
	if next.Turn >= len(next.Seats) {
		next.finishRound()
	}
	return next, nil
}

// MarkReady records a seat's acknowledgment to start the next round.
func MarkReady(s State, seat string) (State, error) {
	if s.Status != models.StatusRoundFinished {
		return s, fmt.Errorf("round is not finished: %w", models.ErrInvalidState)
	}
	if _, ok := s.Hands[seat]; !ok {
		return s, fmt.Errorf("seat %s: %w", seat, models.ErrNotFound)
	}
	next := s.clone()
	next.Ready[seat] = true
	return next, nil
}

// AllReady reports whether every seat has acknowledged the next round.
// Keyed by seat code, so double acknowledgment cannot inflate the count.
func AllReady(s State) bool {
	return len(s.Ready) >= len(s.Seats)
}

// NextRound deals fresh hands for the same seats and mode while carrying
// forward the match-level score and hand-win counters.
func NextRound(s State, seed int64) (State, error) {
	if s.Status != models.StatusRoundFinished {
		return s, fmt.Errorf("round is not finished: %w", models.ErrInvalidState)
	}
	next, err := deal(s.Seats, s.Mode, seed)
	if err != nil {
		return s, err
	}
	next.Round = s.Round + 1
	for seat, pts := range s.Scores {
		next.Scores[seat] = pts
	}
	for seat, wins := range s.HandWins {
		next.HandWins[seat] = wins
	}
	// Splice before resolving so a fully dealt-out round feeds the carried
	// counters into the match threshold check.
	if next.Turn >= len(next.Seats) {
		next.finishRound()
	}
	return next, nil
}

// CurrentSeat returns the seat at the turn pointer, or "" when every seat is
// resolved or the round is over.
func CurrentSeat(s State) string {
	if s.Status != models.StatusInProgress || s.Turn >= len(s.Seats) {
		return ""
	}
	return s.Seats[s.Turn]
}

// draw pops the top card off the deck. A card removed never returns.
func (s *State) draw() Card {
	card := s.Deck[len(s.Deck)-1]
	s.Deck = s.Deck[:len(s.Deck)-1]
	return card
}

// advancePastResolved moves the turn pointer forward until it rests on a seat
// still playing or past the end of the seat list.
func (s *State) advancePastResolved() {
	for s.Turn < len(s.Seats) && s.Hands[s.Seats[s.Turn]].Status != SeatPlaying {
		s.Turn++
	}
}

// finishRound runs the dealer turn and resolves winners for the round.
func (s *State) finishRound() {
	for HandValue(s.Dealer.Cards) < dealerStand {
		card := s.draw()
		s.Dealer.Cards = append(s.Dealer.Cards, card)
		s.logf("dealer draws %s", card)
	}
	s.Dealer.Value = HandValue(s.Dealer.Cards)
	dealerBust := s.Dealer.Value > 21
	if dealerBust {
		s.logf("dealer busts at %d", s.Dealer.Value)
	} else {
		s.logf("dealer stands at %d", s.Dealer.Value)
	}

	bestSeat := ""
	bestPts, bestValue := 0, 0
	for _, seat := range s.Seats {
		h := s.Hands[seat]
		switch {
		case h.Status == SeatBusted:
			s.logf("%s loses (busted)", seat)
		case dealerBust || h.Value > s.Dealer.Value:
			pts := winPoints(h, s.Dealer.Value, dealerBust)
			s.Scores[seat] += pts
			s.logf("%s wins %d points with %d", seat, pts, h.Value)
			if pts > bestPts || (pts == bestPts && h.Value > bestValue) {
				bestSeat, bestPts, bestValue = seat, pts, h.Value
			}
		case h.Value == s.Dealer.Value:
			s.Scores[seat] += 2
			s.logf("%s pushes at %d", seat, h.Value)
		default:
			s.logf("%s loses with %d against dealer %d", seat, h.Value, s.Dealer.Value)
		}
	}

	if bestSeat != "" {
		s.HandWins[bestSeat]++
		s.logf("%s takes the hand (%d of %d)", bestSeat, s.HandWins[bestSeat], s.WinsNeeded)
		if s.HandWins[bestSeat] >= s.WinsNeeded {
			s.Status = models.StatusFinished
			s.Winner = bestSeat
			s.logf("%s wins the match", bestSeat)
			return
		}
	}
	s.Status = models.StatusRoundFinished
	s.Ready = make(map[string]bool)
}

// winPoints is the schedule for a winning hand: a tier by hand value, with a
// natural two-card 21 on top, plus a flat margin bonus when the dealer stood
// rather than busted.
func winPoints(h Hand, dealerValue int, dealerBust bool) int {
	var pts int
	switch {
	case h.Value == 21 && len(h.Cards) == 2:
		pts = 15
	case h.Value >= 20:
		pts = 10
	case h.Value >= 18:
		pts = 7
	default:
		pts = 5
	}
	if !dealerBust {
		pts += 3
	}
	return pts
}

func (s *State) logf(format string, args ...interface{}) {
	s.Log = append(s.Log, fmt.Sprintf(format, args...))
}

// clone deep-copies the state so operations never alias the caller's value.
func (s State) clone() State {
	next := s
	next.Deck = append([]Card(nil), s.Deck...)
	next.Seats = append([]string(nil), s.Seats...)
	next.Log = append([]string(nil), s.Log...)
	next.Dealer.Cards = append([]Card(nil), s.Dealer.Cards...)
	next.Hands = make(map[string]Hand, len(s.Hands))
	for seat, h := range s.Hands {
		h.Cards = append([]Card(nil), h.Cards...)
		next.Hands[seat] = h
	}
	next.Scores = make(map[string]int, len(s.Scores))
	for k, v := range s.Scores {
		next.Scores[k] = v
	}
	next.HandWins = make(map[string]int, len(s.HandWins))
	for k, v := range s.HandWins {
		next.HandWins[k] = v
	}
	next.Ready = make(map[string]bool, len(s.Ready))
	for k, v := range s.Ready {
		next.Ready[k] = v
	}
	return next
}
