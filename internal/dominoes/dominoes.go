package dominoes

import (
	"fmt"
	"math/rand"

	"github.com/ncruz/tablero/internal/models"
)

// Game modes.
const (
	ModeClassic = "classic"
	ModeBoricua = "boricua"
)

// Team labels used in the Boricua variant. Partners alternate around the
// table: seats 0 and 2 against seats 1 and 3.
const (
	Team1 = "team1"
	Team2 = "team2"
)

// WinnerBlocked is the sentinel winner recorded when a game ends blocked.
const WinnerBlocked = "blocked"

const (
	classicHandWinsNeeded = 3
	boricuaMatchTarget    = 500
	doubleZeroBonus       = 100
)

// boricuaAwards is the tiered point award by hand number (1-indexed,
// later hands use the last entry).
var boricuaAwards = []int{100, 75, 50, 25, 25}

// Move is a dominoes move payload. Tile and Side are required for "play".
type Move struct {
	Action string `json:"action"`
	Tile   *Tile  `json:"tile,omitempty"`
	Side   string `json:"side,omitempty"`
}

const (
	ActionPlay = "play"
	ActionDraw = "draw"
	ActionPass = "pass"

	SideLeft  = "left"
	SideRight = "right"
)

// State is the authoritative dominoes game state. Every tile lives in exactly
// one of board, a hand, or the boneyard; the union is the fixed 28-tile set.
type State struct {
	Mode          string              `json:"mode"`
	Seats         []string            `json:"seats"`
	Hands         map[string][]Tile   `json:"hands"`
	HandCounts    map[string]int      `json:"handCounts,omitempty"`
	Board         []Tile              `json:"board"`
	Boneyard      []Tile              `json:"boneyard,omitempty"`
	BoneyardCount int                 `json:"boneyardCount,omitempty"`
	Turn          int                 `json:"turn"`
	Passes        int                 `json:"passesInARow"`
	HandNum       int                 `json:"handNum"`
	Scores        map[string]int      `json:"scores"`
	HandWins      map[string]int      `json:"handWins"`
	Teams         map[string][]string `json:"teams,omitempty"`
	TeamScores    map[string]int      `json:"teamScores,omitempty"`
	HandStarter   string              `json:"handStarter"`
	NextStarter   string              `json:"nextStarter,omitempty"`
	Status        models.Status       `json:"status"`
	Winner        string              `json:"winner,omitempty"`
	Ready         map[string]bool     `json:"ready,omitempty"`
	Log           []string            `json:"log"`
}

// New creates a dominoes hand: shuffles the 28-tile set, deals 7 tiles per
// seat, and determines the opening seat. The highest double present in any
// hand is auto-played onto the empty board and the turn advances; with no
// double in play, the seat holding the highest-pip tile simply goes first.
func New(seats []string, mode string, seed int64) (State, error) {
	if len(seats) < 2 || len(seats) > 4 {
		return State{}, fmt.Errorf("dominoes needs 2-4 seats, got %d: %w", len(seats), models.ErrInvalidConfig)
	}
	if mode != ModeClassic && mode != ModeBoricua {
		return State{}, fmt.Errorf("unknown dominoes mode %q: %w", mode, models.ErrInvalidConfig)
	}
	if mode == ModeBoricua && len(seats) != 4 {
		return State{}, fmt.Errorf("boricua needs exactly 4 seats, got %d: %w", len(seats), models.ErrInvalidConfig)
	}

	s := deal(seats, mode, seed)
	s.openHand("")
	return s, nil
}

// deal shuffles and distributes tiles without choosing an opener.
func deal(seats []string, mode string, seed int64) State {
	rng := rand.New(rand.NewSource(seed))
	s := State{
		Mode:     mode,
		Seats:    append([]string(nil), seats...),
		Hands:    make(map[string][]Tile, len(seats)),
		Boneyard: newSet(rng),
		HandNum:  1,
		Scores:   make(map[string]int, len(seats)),
		HandWins: make(map[string]int, len(seats)),
		Status:   models.StatusInProgress,
		Ready:    make(map[string]bool),
	}
	for _, seat := range seats {
		hand := make([]Tile, 0, 7)
		for len(hand) < 7 && len(s.Boneyard) > 0 {
			hand = append(hand, s.popBoneyard())
		}
		s.Hands[seat] = hand
		s.Scores[seat] = 0
		s.HandWins[seat] = 0
	}
	if mode == ModeBoricua {
		s.Teams = map[string][]string{
			Team1: {seats[0], seats[2]},
			Team2: {seats[1], seats[3]},
		}
		s.TeamScores = map[string]int{Team1: 0, Team2: 0}
	}
	return s
}

// openHand picks the opening seat and auto-plays the opening double when one
// exists. A non-empty forced seat (Boricua tie-break carryover) constrains the
// search to that seat's hand.
func (s *State) openHand(forced string) {
	if forced != "" {
		s.HandStarter = forced
		s.Turn = s.seatIndex(forced)
		for pip := 6; pip >= 0; pip-- {
			double := Tile{Left: pip, Right: pip}
			if s.removeFromHand(forced, double) {
				s.Board = append(s.Board, double)
				s.logf("%s opens with %s", forced, double)
				s.Turn = (s.seatIndex(forced) + 1) % len(s.Seats)
				return
			}
		}
		s.logf("%s starts the hand", forced)
		return
	}

	// Highest double present in any hand opens.
	for pip := 6; pip >= 0; pip-- {
		double := Tile{Left: pip, Right: pip}
		for _, seat := range s.Seats {
			if s.removeFromHand(seat, double) {
				s.Board = append(s.Board, double)
				s.HandStarter = seat
				s.logf("%s opens with %s", seat, double)
				s.Turn = (s.seatIndex(seat) + 1) % len(s.Seats)
				return
			}
		}
	}

	// No double anywhere: the holder of the highest-pip tile goes first
	// without a forced play.
	best, bestSeat := -1, ""
	for _, seat := range s.Seats {
		for _, t := range s.Hands[seat] {
			if t.PipTotal() > best {
				best, bestSeat = t.PipTotal(), seat
			}
		}
	}
	s.HandStarter = bestSeat
	s.Turn = s.seatIndex(bestSeat)
	s.logf("%s starts the hand", bestSeat)
}

// Apply validates and applies one move by the given seat.
func Apply(s State, seat string, mv Move) (State, error) {
	if s.Status != models.StatusInProgress {
		return s, fmt.Errorf("hand is not in progress: %w", models.ErrInvalidState)
	}
	if s.Turn >= len(s.Seats) || s.Seats[s.Turn] != seat {
		return s, fmt.Errorf("seat %s: %w", seat, models.ErrInvalidTurn)
	}

	switch mv.Action {
	case ActionPass:
		return applyPass(s, seat)
	case ActionDraw:
		return applyDraw(s, seat)
	case ActionPlay:
		return applyPlay(s, seat, mv)
	default:
		return s, fmt.Errorf("unknown dominoes action %q: %w", mv.Action, models.ErrInvalidAction)
	}
}

// applyPass records a pass. Passing is only legal once the boneyard is empty;
// the turn stays with the actor, and when the consecutive-pass counter reaches
// the seat count the game is blocked. Since only a successful play moves the
// turn pointer, the blocked state is reached by the stuck seat passing
// seat-count times, not by a pass rotating around the table.
func applyPass(s State, seat string) (State, error) {
	if len(s.Boneyard) > 0 {
		return s, fmt.Errorf("cannot pass while the boneyard has tiles: %w", models.ErrInvalidAction)
	}
	next := s.clone()
	next.Passes++
	next.logf("%s passes", seat)
	if next.Passes >= len(next.Seats) {
		next.resolveBlocked()
	}
	return next, nil
}

// applyDraw moves one tile from the boneyard to the acting seat's hand.
// Drawing does not advance the turn.
func applyDraw(s State, seat string) (State, error) {
	if len(s.Boneyard) == 0 {
		return s, fmt.Errorf("boneyard is empty: %w", models.ErrInvalidAction)
	}
	next := s.clone()
	tile := next.popBoneyard()
	next.Hands[seat] = append(next.Hands[seat], tile)
	next.logf("%s draws from the boneyard", seat)
	return next, nil
}

// applyPlay places a held tile onto one end of the board, normalizing its
// orientation so the matched pip touches the existing end. Emptying the hand
// ends the current hand.
func applyPlay(s State, seat string, mv Move) (State, error) {
	if mv.Tile == nil {
		return s, fmt.Errorf("play requires a tile: %w", models.ErrInvalidMove)
	}
	tile, held := findInHand(s.Hands[seat], *mv.Tile)
	if !held {
		return s, fmt.Errorf("tile %s is not in hand: %w", mv.Tile, models.ErrInvalidMove)
	}

	next := s.clone()
	if len(next.Board) == 0 {
		// First tile on an empty board always succeeds regardless of side.
		next.Board = append(next.Board, tile)
	} else {
		switch mv.Side {
		case SideLeft:
			end := next.leftEnd()
			if !tile.Matches(end) {
				return s, fmt.Errorf("tile %s does not match left end %d: %w", tile, end, models.ErrInvalidMove)
			}
			if tile.Right != end {
				tile = tile.flipped()
			}
			next.Board = append([]Tile{tile}, next.Board...)
		case SideRight:
			end := next.rightEnd()
			if !tile.Matches(end) {
				return s, fmt.Errorf("tile %s does not match right end %d: %w", tile, end, models.ErrInvalidMove)
			}
			if tile.Left != end {
				tile = tile.flipped()
			}
			next.Board = append(next.Board, tile)
		default:
			return s, fmt.Errorf("unknown side %q: %w", mv.Side, models.ErrInvalidMove)
		}
	}

	next.removeFromHand(seat, tile)
	next.Passes = 0
	next.logf("%s plays %s", seat, tile)

	if len(next.Hands[seat]) == 0 {
		next.finishHand(seat, tile)
		return next, nil
	}
	next.Turn = (next.Turn + 1) % len(next.Seats)
	return next, nil
}

// finishHand credits the seat that went out and closes the hand or the match.
func (s *State) finishHand(seat string, lastTile Tile) {
	s.HandWins[seat]++
	s.logf("%s dominoes out with %s", seat, lastTile)

	if s.Mode == ModeClassic {
		if s.HandWins[seat] >= classicHandWinsNeeded {
			s.Status = models.StatusFinished
			s.Winner = seat
			s.logf("%s wins the match", seat)
			return
		}
		s.Status = models.StatusHandFinished
		s.Ready = make(map[string]bool)
		return
	}

	// Boricua: tiered award by hand number, double-zero bonus, capicú flavor.
	award := boricuaAwards[len(boricuaAwards)-1]
	if s.HandNum <= len(boricuaAwards) {
		award = boricuaAwards[s.HandNum-1]
	}
	if lastTile.Same(Tile{Left: 0, Right: 0}) {
		award += doubleZeroBonus
		s.logf("%s closes with the double zero for a %d bonus", seat, doubleZeroBonus)
	}
	if lastTile.Matches(s.leftEnd()) && lastTile.Matches(s.rightEnd()) {
		s.logf("capicú! %s matches both ends", seat)
	}

	team := s.teamOf(seat)
	s.TeamScores[team] += award
	s.logf("%s scores %d for %s (total %d)", seat, award, team, s.TeamScores[team])
	s.endBoricuaHand(team)
}

// endBoricuaHand closes the hand, finishing the match when the winning team
// crossed the match target.
func (s *State) endBoricuaHand(team string) {
	if s.TeamScores[team] >= boricuaMatchTarget {
		s.Status = models.StatusFinished
		s.Winner = team
		s.logf("%s wins the match with %d points", team, s.TeamScores[team])
		return
	}
	s.Status = models.StatusHandFinished
	s.Ready = make(map[string]bool)
}

// resolveBlocked handles the consecutive-pass deadlock. Classic games end
// immediately. Boricua checks the 5-5 deadlock shape and settles it by team
// pip count; any other blocked shape also ends the game.
func (s *State) resolveBlocked() {
	if s.Mode == ModeBoricua && s.isFiveFiveDeadlock() {
		t1, t2 := s.teamPips(Team1), s.teamPips(Team2)
		combined := t1 + t2
		s.logf("5-5 deadlock: %s holds %d pips, %s holds %d", Team1, t1, Team2, t2)
		switch {
		case t1 < t2:
			s.TeamScores[Team1] += combined
			s.logf("%s takes %d points on the deadlock", Team1, combined)
			s.endBoricuaHand(Team1)
		case t2 < t1:
			s.TeamScores[Team2] += combined
			s.logf("%s takes %d points on the deadlock", Team2, combined)
			s.endBoricuaHand(Team2)
		default:
			// Strict tie: no score change; the team that started this hand
			// starts the next one.
			s.NextStarter = s.HandStarter
			s.logf("deadlock tie: no score, %s will start the next hand", s.HandStarter)
			s.Status = models.StatusHandFinished
			s.Ready = make(map[string]bool)
		}
		return
	}

	s.Status = models.StatusFinished
	s.Winner = WinnerBlocked
	s.logf("game is blocked after %d passes", s.Passes)
}

// isFiveFiveDeadlock reports the specific Boricua deadlock shape: both open
// ends are fives and exactly seven placed tiles contain a five.
func (s *State) isFiveFiveDeadlock() bool {
	if len(s.Board) == 0 || s.leftEnd() != 5 || s.rightEnd() != 5 {
		return false
	}
	fives := 0
	for _, t := range s.Board {
		if t.Matches(5) {
			fives++
		}
	}
	return fives == 7
}

// MarkReady records a seat's acknowledgment to start the next hand.
func MarkReady(s State, seat string) (State, error) {
	if s.Status != models.StatusHandFinished {
		return s, fmt.Errorf("hand is not finished: %w", models.ErrInvalidState)
	}
	if _, ok := s.Hands[seat]; !ok {
		return s, fmt.Errorf("seat %s: %w", seat, models.ErrNotFound)
	}
	next := s.clone()
	next.Ready[seat] = true
	return next, nil
}

// AllReady reports whether every seat has acknowledged the next hand.
func AllReady(s State) bool {
	return len(s.Ready) >= len(s.Seats)
}

// NextHand deals a fresh hand for the same seats and mode, carrying forward
// the match counters and honoring a recorded forced starter.
func NextHand(s State, seed int64) (State, error) {
	if s.Status != models.StatusHandFinished {
		return s, fmt.Errorf("hand is not finished: %w", models.ErrInvalidState)
	}
	next := deal(s.Seats, s.Mode, seed)
	next.HandNum = s.HandNum + 1
	for seat, pts := range s.Scores {
		next.Scores[seat] = pts
	}
	for seat, wins := range s.HandWins {
		next.HandWins[seat] = wins
	}
	if s.Mode == ModeBoricua {
		next.Teams = map[string][]string{
			Team1: append([]string(nil), s.Teams[Team1]...),
			Team2: append([]string(nil), s.Teams[Team2]...),
		}
		next.TeamScores = map[string]int{
			Team1: s.TeamScores[Team1],
			Team2: s.TeamScores[Team2],
		}
	}
	next.openHand(s.NextStarter)
	return next, nil
}

// CurrentSeat returns the seat at the turn pointer, or "" when the hand is
// not in progress.
func CurrentSeat(s State) string {
	if s.Status != models.StatusInProgress || s.Turn >= len(s.Seats) {
		return ""
	}
	return s.Seats[s.Turn]
}

// LeftEnd and RightEnd expose the open board ends for move selection.
func LeftEnd(s State) int  { return s.leftEnd() }
func RightEnd(s State) int { return s.rightEnd() }

func (s *State) leftEnd() int {
	if len(s.Board) == 0 {
		return -1
	}
	return s.Board[0].Left
}

func (s *State) rightEnd() int {
	if len(s.Board) == 0 {
		return -1
	}
	return s.Board[len(s.Board)-1].Right
}

func (s *State) popBoneyard() Tile {
	t := s.Boneyard[len(s.Boneyard)-1]
	s.Boneyard = s.Boneyard[:len(s.Boneyard)-1]
	return t
}

// removeFromHand removes one instance of the tile (either orientation) from
// the seat's hand. Returns false if the tile is not held.
func (s *State) removeFromHand(seat string, tile Tile) bool {
	hand := s.Hands[seat]
	for i, t := range hand {
		if t.Same(tile) {
			s.Hands[seat] = append(hand[:i], hand[i+1:]...)
			return true
		}
	}
	return false
}

// findInHand resolves the held orientation of a tile reference.
func findInHand(hand []Tile, tile Tile) (Tile, bool) {
	for _, t := range hand {
		if t.Same(tile) {
			return t, true
		}
	}
	return Tile{}, false
}

func (s *State) seatIndex(seat string) int {
	for i, id := range s.Seats {
		if id == seat {
			return i
		}
	}
	return 0
}

// teamOf returns the team label owning a seat (Boricua only).
func (s *State) teamOf(seat string) string {
	for _, id := range s.Teams[Team1] {
		if id == seat {
			return Team1
		}
	}
	return Team2
}

// teamPips sums the pips remaining in a team's hands.
func (s *State) teamPips(team string) int {
	total := 0
	for _, seat := range s.Teams[team] {
		for _, t := range s.Hands[seat] {
			total += t.PipTotal()
		}
	}
	return total
}

func (s *State) logf(format string, args ...interface{}) {
	s.Log = append(s.Log, fmt.Sprintf(format, args...))
}

// clone deep-copies the state so operations never alias the caller's value.
func (s State) clone() State {
	next := s
	next.Seats = append([]string(nil), s.Seats...)
	next.Board = append([]Tile(nil), s.Board...)
	next.Boneyard = append([]Tile(nil), s.Boneyard...)
	next.Log = append([]string(nil), s.Log...)
	next.Hands = make(map[string][]Tile, len(s.Hands))
	for seat, hand := range s.Hands {
		next.Hands[seat] = append([]Tile(nil), hand...)
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
	if s.HandCounts != nil {
		next.HandCounts = make(map[string]int, len(s.HandCounts))
		for k, v := range s.HandCounts {
			next.HandCounts[k] = v
		}
	}
	if s.Teams != nil {
		next.Teams = map[string][]string{
			Team1: append([]string(nil), s.Teams[Team1]...),
			Team2: append([]string(nil), s.Teams[Team2]...),
		}
		next.TeamScores = make(map[string]int, len(s.TeamScores))
		for k, v := range s.TeamScores {
			next.TeamScores[k] = v
		}
	}
	return next
}
