package dominoes

import (
	"errors"
	"testing"

	"github.com/ncruz/tablero/internal/models"
)

// checkConservation asserts the multiset union of board, hands and boneyard
// is the fixed 28-tile double-six set with no tile in two places.
func checkConservation(t *testing.T, s State) {
	t.Helper()
	seen := make(map[Tile]bool, 28)
	add := func(where string, tiles []Tile) {
		for _, tile := range tiles {
			key := tile
			if key.Left > key.Right {
				key = key.flipped()
			}
			if seen[key] {
				t.Fatalf("tile %s appears twice (last seen in %s)", tile, where)
			}
			seen[key] = true
		}
	}
	add("board", s.Board)
	add("boneyard", s.Boneyard)
	for seat, hand := range s.Hands {
		add("hand "+seat, hand)
	}
	if len(seen) != 28 {
		t.Fatalf("tiles in play = %d, want 28", len(seen))
	}
}

func TestNewSetHas28UniqueTiles(t *testing.T) {
	s, err := New([]string{"p1", "p2"}, ModeClassic, 3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	checkConservation(t, s)
}

func TestNewRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name  string
		seats []string
		mode  string
	}{
		{"one seat", []string{"a"}, ModeClassic},
		{"five seats", []string{"a", "b", "c", "d", "e"}, ModeClassic},
		{"boricua three seats", []string{"a", "b", "c"}, ModeBoricua},
		{"boricua two seats", []string{"a", "b"}, ModeBoricua},
		{"unknown mode", []string{"a", "b"}, "cutthroat"},
	}
	for _, tc := range cases {
		if _, err := New(tc.seats, tc.mode, 1); !errors.Is(err, models.ErrInvalidConfig) {
			t.Errorf("%s: err = %v, want ErrInvalidConfig", tc.name, err)
		}
	}
}

func TestNewDealCounts(t *testing.T) {
	s, err := New([]string{"p1", "p2"}, ModeClassic, 11)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dealt := 0
	for _, hand := range s.Hands {
		dealt += len(hand)
	}
	// 14 dealt minus a possible auto-played opening double.
	if dealt+len(s.Board) != 14 {
		t.Errorf("dealt+board = %d, want 14", dealt+len(s.Board))
	}
	if len(s.Boneyard) != 14 {
		t.Errorf("boneyard = %d, want 14", len(s.Boneyard))
	}

	four, err := New([]string{"a", "b", "c", "d"}, ModeBoricua, 11)
	if err != nil {
		t.Fatalf("New boricua: %v", err)
	}
	if len(four.Boneyard) != 0 {
		t.Errorf("four-seat boneyard = %d, want 0", len(four.Boneyard))
	}
	if four.Teams[Team1][0] != "a" || four.Teams[Team1][1] != "c" {
		t.Errorf("team1 = %v, want [a c]", four.Teams[Team1])
	}
	if four.Teams[Team2][0] != "b" || four.Teams[Team2][1] != "d" {
		t.Errorf("team2 = %v, want [b d]", four.Teams[Team2])
	}
}

// TestOpeningSeat checks, across seeds, that an opening double is auto-played
// and the turn advances past the starter, or that with no double anywhere the
// highest-pip holder simply goes first.
func TestOpeningSeat(t *testing.T) {
	for seed := int64(0); seed < 40; seed++ {
		s, err := New([]string{"p1", "p2", "p3"}, ModeClassic, seed)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		checkConservation(t, s)
		if len(s.Board) == 1 {
			opener := s.Board[0]
			if !opener.IsDouble() {
				t.Fatalf("seed %d: opening tile %s is not a double", seed, opener)
			}
			for seat, hand := range s.Hands {
				for _, tile := range hand {
					if tile.IsDouble() && tile.Left > opener.Left {
						t.Errorf("seed %d: %s still holds higher double %s", seed, seat, tile)
					}
				}
			}
			want := (s.seatIndex(s.HandStarter) + 1) % len(s.Seats)
			if s.Turn != want {
				t.Errorf("seed %d: turn = %d, want %d (after starter)", seed, s.Turn, want)
			}
		} else if len(s.Board) == 0 {
			if s.Seats[s.Turn] != s.HandStarter {
				t.Errorf("seed %d: empty board but turn not on starter", seed)
			}
		} else {
			t.Fatalf("seed %d: board has %d tiles after deal", seed, len(s.Board))
		}
	}
}

// fourSeatHand returns a hand-built Boricua state with full tile control.
func fourSeatHand() State {
	return State{
		Mode:  ModeBoricua,
		Seats: []string{"s0", "s1", "s2", "s3"},
		Hands: map[string][]Tile{
			"s0": {{0, 0}, {0, 2}},
			"s1": {{6, 6}, {3, 6}},
			"s2": {{0, 3}, {0, 4}},
			"s3": {{4, 4}, {2, 6}},
		},
		Board: []Tile{
			{5, 0}, {0, 1}, {1, 5}, {5, 5}, {5, 2},
			{2, 3}, {3, 5}, {5, 4}, {4, 6}, {6, 5},
		},
		Turn:        0,
		HandNum:     1,
		Scores:      map[string]int{"s0": 0, "s1": 0, "s2": 0, "s3": 0},
		HandWins:    map[string]int{"s0": 0, "s1": 0, "s2": 0, "s3": 0},
		Teams:       map[string][]string{Team1: {"s0", "s2"}, Team2: {"s1", "s3"}},
		TeamScores:  map[string]int{Team1: 0, Team2: 0},
		HandStarter: "s0",
		Status:      models.StatusInProgress,
		Ready:       map[string]bool{},
	}
}

// twoSeatHand returns a simple classic state with a known board.
func twoSeatHand() State {
	return State{
		Mode:  ModeClassic,
		Seats: []string{"p1", "p2"},
		Hands: map[string][]Tile{
			"p1": {{3, 5}, {1, 1}},
			"p2": {{6, 6}, {0, 4}},
		},
		Board:       []Tile{{2, 5}},
		Boneyard:    []Tile{{4, 4}, {6, 1}},
		Turn:        0,
		HandNum:     1,
		Scores:      map[string]int{"p1": 0, "p2": 0},
		HandWins:    map[string]int{"p1": 0, "p2": 0},
		HandStarter: "p1",
		Status:      models.StatusInProgress,
		Ready:       map[string]bool{},
	}
}

func TestApplyRejectsOutOfTurn(t *testing.T) {
	s := twoSeatHand()
	if _, err := Apply(s, "p2", Move{Action: ActionDraw}); !errors.Is(err, models.ErrInvalidTurn) {
		t.Errorf("out-of-turn draw: err = %v, want ErrInvalidTurn", err)
	}
}

func TestPassRequiresEmptyBoneyard(t *testing.T) {
	s := twoSeatHand()
	_, err := Apply(s, "p1", Move{Action: ActionPass})
	if !errors.Is(err, models.ErrInvalidAction) {
		t.Fatalf("pass with stocked boneyard: err = %v, want ErrInvalidAction", err)
	}
	if s.Passes != 0 {
		t.Errorf("passes changed to %d on failed pass", s.Passes)
	}
}

func TestDrawMovesTileAndKeepsTurn(t *testing.T) {
	s := twoSeatHand()
	next, err := Apply(s, "p1", Move{Action: ActionDraw})
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if len(next.Hands["p1"]) != 3 {
		t.Errorf("hand = %d tiles, want 3", len(next.Hands["p1"]))
	}
	if len(next.Boneyard) != 1 {
		t.Errorf("boneyard = %d tiles, want 1", len(next.Boneyard))
	}
	if CurrentSeat(next) != "p1" {
		t.Errorf("turn moved to %q on draw, want p1", CurrentSeat(next))
	}
	// Top of the boneyard (last element) was drawn.
	if next.Hands["p1"][2] != (Tile{6, 1}) {
		t.Errorf("drew %s, want [6|1]", next.Hands["p1"][2])
	}
}

func TestDrawFromEmptyBoneyardFails(t *testing.T) {
	s := twoSeatHand()
	s.Boneyard = nil
	if _, err := Apply(s, "p1", Move{Action: ActionDraw}); !errors.Is(err, models.ErrInvalidAction) {
		t.Errorf("draw from empty boneyard: err = %v, want ErrInvalidAction", err)
	}
}

func TestPlayNormalizesOrientation(t *testing.T) {
	s := twoSeatHand()
	next, err := Apply(s, "p1", Move{Action: ActionPlay, Tile: &Tile{3, 5}, Side: SideRight})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	// Board [2|5] + [3|5] on the right: tile flips so the 5 touches the end.
	if got := next.Board[len(next.Board)-1]; got != (Tile{5, 3}) {
		t.Errorf("placed tile = %s, want [5|3]", got)
	}
	if RightEnd(next) != 3 {
		t.Errorf("right end = %d, want 3", RightEnd(next))
	}
	if CurrentSeat(next) != "p2" {
		t.Errorf("turn = %q after play, want p2", CurrentSeat(next))
	}
	if next.Passes != 0 {
		t.Errorf("passes = %d after play, want 0", next.Passes)
	}
}

func TestPlayLeftSide(t *testing.T) {
	s := twoSeatHand()
	s.Hands["p1"] = []Tile{{2, 6}, {1, 1}}
	next, err := Apply(s, "p1", Move{Action: ActionPlay, Tile: &Tile{2, 6}, Side: SideLeft})
	if err != nil {
		t.Fatalf("play left: %v", err)
	}
	// Board [2|5]: the 2 must sit adjacent, so the tile lands as [6|2].
	if got := next.Board[0]; got != (Tile{6, 2}) {
		t.Errorf("left tile = %s, want [6|2]", got)
	}
	if LeftEnd(next) != 6 {
		t.Errorf("left end = %d, want 6", LeftEnd(next))
	}
}

func TestPlayRejections(t *testing.T) {
	s := twoSeatHand()
	// Tile not held.
	if _, err := Apply(s, "p1", Move{Action: ActionPlay, Tile: &Tile{6, 6}, Side: SideRight}); !errors.Is(err, models.ErrInvalidMove) {
		t.Errorf("unheld tile: err = %v, want ErrInvalidMove", err)
	}
	// Pip mismatch: [1|1] fits neither end of [2|5].
	if _, err := Apply(s, "p1", Move{Action: ActionPlay, Tile: &Tile{1, 1}, Side: SideRight}); !errors.Is(err, models.ErrInvalidMove) {
		t.Errorf("mismatched tile: err = %v, want ErrInvalidMove", err)
	}
	// Bad side.
	if _, err := Apply(s, "p1", Move{Action: ActionPlay, Tile: &Tile{3, 5}, Side: "top"}); !errors.Is(err, models.ErrInvalidMove) {
		t.Errorf("bad side: err = %v, want ErrInvalidMove", err)
	}
	// Missing tile.
	if _, err := Apply(s, "p1", Move{Action: ActionPlay, Side: SideRight}); !errors.Is(err, models.ErrInvalidMove) {
		t.Errorf("missing tile: err = %v, want ErrInvalidMove", err)
	}
	// Unknown action tag.
	if _, err := Apply(s, "p1", Move{Action: "knock"}); !errors.Is(err, models.ErrInvalidAction) {
		t.Errorf("unknown action: err = %v, want ErrInvalidAction", err)
	}
}

func TestPlayOnEmptyBoardAlwaysSucceeds(t *testing.T) {
	s := twoSeatHand()
	s.Board = nil
	next, err := Apply(s, "p1", Move{Action: ActionPlay, Tile: &Tile{1, 1}})
	if err != nil {
		t.Fatalf("first play: %v", err)
	}
	if len(next.Board) != 1 {
		t.Fatalf("board = %d tiles, want 1", len(next.Board))
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	s := twoSeatHand()
	if _, err := Apply(s, "p1", Move{Action: ActionPlay, Tile: &Tile{3, 5}, Side: SideRight}); err != nil {
		t.Fatalf("play: %v", err)
	}
	if len(s.Hands["p1"]) != 2 {
		t.Error("Apply mutated the input hand")
	}
	if len(s.Board) != 1 {
		t.Error("Apply mutated the input board")
	}
}

func TestEmptyingHandWinsClassicHand(t *testing.T) {
	s := twoSeatHand()
	s.Hands["p1"] = []Tile{{3, 5}}
	next, err := Apply(s, "p1", Move{Action: ActionPlay, Tile: &Tile{3, 5}, Side: SideRight})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if next.Status != models.StatusHandFinished {
		t.Fatalf("status = %s, want hand_finished", next.Status)
	}
	if next.HandWins["p1"] != 1 {
		t.Errorf("p1 hand wins = %d, want 1", next.HandWins["p1"])
	}
}

func TestClassicMatchThreshold(t *testing.T) {
	s := twoSeatHand()
	s.Hands["p1"] = []Tile{{3, 5}}
	s.HandWins["p1"] = 2
	next, err := Apply(s, "p1", Move{Action: ActionPlay, Tile: &Tile{3, 5}, Side: SideRight})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if next.Status != models.StatusFinished || next.Winner != "p1" {
		t.Errorf("status=%s winner=%q, want finished/p1", next.Status, next.Winner)
	}
}

func TestClassicBlockEndsGame(t *testing.T) {
	s := twoSeatHand()
	s.Boneyard = nil
	var err error
	s, err = Apply(s, "p1", Move{Action: ActionPass})
	if err != nil {
		t.Fatalf("pass 1: %v", err)
	}
	if s.Status != models.StatusInProgress {
		t.Fatalf("blocked after a single pass")
	}
	s, err = Apply(s, CurrentSeat(s), Move{Action: ActionPass})
	if err != nil {
		t.Fatalf("pass 2: %v", err)
	}
	if s.Status != models.StatusFinished {
		t.Fatalf("status = %s, want finished", s.Status)
	}
	if s.Winner != WinnerBlocked {
		t.Errorf("winner = %q, want %q", s.Winner, WinnerBlocked)
	}
}

func TestBoricuaHandAwardTiers(t *testing.T) {
	cases := []struct {
		handNum int
		want    int
	}{
		{1, 100}, {2, 75}, {3, 50}, {4, 25}, {5, 25}, {9, 25},
	}
	for _, tc := range cases {
		s := fourSeatHand()
		s.HandNum = tc.handNum
		s.Board = []Tile{{2, 5}} // right end 5
		s.Hands["s0"] = []Tile{{5, 6}}
		next, err := Apply(s, "s0", Move{Action: ActionPlay, Tile: &Tile{5, 6}, Side: SideRight})
		if err != nil {
			t.Fatalf("hand %d play: %v", tc.handNum, err)
		}
		if got := next.TeamScores[Team1]; got != tc.want {
			t.Errorf("hand %d: team1 score = %d, want %d", tc.handNum, got, tc.want)
		}
		if next.Status != models.StatusHandFinished {
			t.Errorf("hand %d: status = %s, want hand_finished", tc.handNum, next.Status)
		}
	}
}

func TestBoricuaDoubleZeroBonus(t *testing.T) {
	s := fourSeatHand()
	// Rebuild the board so an end is 0 for the double-zero closeout.
	s.Board = []Tile{{3, 0}}
	s.Hands["s0"] = []Tile{{0, 0}}
	next, err := Apply(s, "s0", Move{Action: ActionPlay, Tile: &Tile{0, 0}, Side: SideRight})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if got := next.TeamScores[Team1]; got != 200 { // 100 tier + 100 bonus
		t.Errorf("team1 score = %d, want 200", got)
	}
}

func TestBoricuaFiveFiveDeadlock(t *testing.T) {
	s := fourSeatHand()
	s.Passes = 3
	next, err := Apply(s, "s0", Move{Action: ActionPass})
	if err != nil {
		t.Fatalf("final pass: %v", err)
	}
	// team1 holds 0+2+3+4 = 9 pips, team2 holds 12+9+8+8 = 37; combined 46
	// goes to the lower-total team.
	if got := next.TeamScores[Team1]; got != 46 {
		t.Errorf("team1 score = %d, want 46", got)
	}
	if got := next.TeamScores[Team2]; got != 0 {
		t.Errorf("team2 score = %d, want 0", got)
	}
	if next.Status != models.StatusHandFinished {
		t.Errorf("status = %s, want hand_finished", next.Status)
	}
}

func TestBoricuaDeadlockCrossesMatchTarget(t *testing.T) {
	s := fourSeatHand()
	s.Passes = 3
	s.TeamScores[Team1] = 460
	next, err := Apply(s, "s0", Move{Action: ActionPass})
	if err != nil {
		t.Fatalf("final pass: %v", err)
	}
	if next.Status != models.StatusFinished || next.Winner != Team1 {
		t.Errorf("status=%s winner=%q, want finished/team1", next.Status, next.Winner)
	}
}

func TestBoricuaDeadlockTieRecordsStarter(t *testing.T) {
	s := fourSeatHand()
	// Balance the pips so team1 = s0(30) + s2(7) = 37 = team2.
	s.Hands["s0"] = []Tile{{0, 0}, {0, 2}, {1, 6}, {3, 4}, {3, 3}, {2, 4}, {1, 1}}
	s.Passes = 3
	next, err := Apply(s, "s0", Move{Action: ActionPass})
	if err != nil {
		t.Fatalf("final pass: %v", err)
	}
	if next.TeamScores[Team1] != 0 || next.TeamScores[Team2] != 0 {
		t.Errorf("scores changed on a strict tie: %v", next.TeamScores)
	}
	if next.NextStarter != "s0" {
		t.Errorf("next starter = %q, want s0 (hand starter)", next.NextStarter)
	}
	if next.Status != models.StatusHandFinished {
		t.Errorf("status = %s, want hand_finished", next.Status)
	}
}

func TestBoricuaBlockOutsideDeadlockShape(t *testing.T) {
	s := fourSeatHand()
	s.Board = []Tile{{6, 6}} // ends are not fives
	s.Passes = 3
	next, err := Apply(s, "s0", Move{Action: ActionPass})
	if err != nil {
		t.Fatalf("final pass: %v", err)
	}
	if next.Status != models.StatusFinished || next.Winner != WinnerBlocked {
		t.Errorf("status=%s winner=%q, want finished/blocked", next.Status, next.Winner)
	}
}

func TestReadyGateAndNextHand(t *testing.T) {
	s := fourSeatHand()
	s.Status = models.StatusHandFinished
	s.TeamScores[Team1] = 100
	s.HandWins["s0"] = 1

	var err error
	for _, seat := range s.Seats {
		s, err = MarkReady(s, seat)
		if err != nil {
			t.Fatalf("ready %s: %v", seat, err)
		}
	}
	if !AllReady(s) {
		t.Fatal("not AllReady after every seat acknowledged")
	}

	next, err := NextHand(s, 21)
	if err != nil {
		t.Fatalf("NextHand: %v", err)
	}
	checkConservation(t, next)
	if next.HandNum != 2 {
		t.Errorf("hand number = %d, want 2", next.HandNum)
	}
	if next.TeamScores[Team1] != 100 {
		t.Errorf("carried team score = %d, want 100", next.TeamScores[Team1])
	}
	if next.HandWins["s0"] != 1 {
		t.Errorf("carried hand wins = %d, want 1", next.HandWins["s0"])
	}
	if next.Status != models.StatusInProgress {
		t.Errorf("status = %s, want in_progress", next.Status)
	}
}

func TestNextHandHonorsForcedStarter(t *testing.T) {
	s := fourSeatHand()
	s.Status = models.StatusHandFinished
	s.NextStarter = "s3"
	next, err := NextHand(s, 5)
	if err != nil {
		t.Fatalf("NextHand: %v", err)
	}
	if next.HandStarter != "s3" {
		t.Fatalf("hand starter = %q, want s3", next.HandStarter)
	}
	if len(next.Board) == 1 {
		if !next.Board[0].IsDouble() {
			t.Errorf("forced opening tile %s is not a double", next.Board[0])
		}
		if want := (next.seatIndex("s3") + 1) % 4; next.Turn != want {
			t.Errorf("turn = %d, want %d", next.Turn, want)
		}
	} else if CurrentSeat(next) != "s3" {
		t.Errorf("turn not on forced starter without an opening double")
	}
}

// TestPlayoutTerminates drives full classic games with a naive policy and
// asserts tile conservation after every move and bounded termination.
func TestPlayoutTerminates(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		s, err := New([]string{"a", "b", "c", "d"}, ModeClassic, seed)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		for step := 0; step < 300 && s.Status == models.StatusInProgress; step++ {
			seat := CurrentSeat(s)
			next, ok := tryAnyPlay(t, s, seat)
			if !ok {
				if len(s.Boneyard) > 0 {
					next, err = Apply(s, seat, Move{Action: ActionDraw})
				} else {
					next, err = Apply(s, seat, Move{Action: ActionPass})
				}
				if err != nil {
					t.Fatalf("seed %d step %d: %v", seed, step, err)
				}
			}
			s = next
			checkConservation(t, s)
		}
		if s.Status == models.StatusInProgress {
			t.Errorf("seed %d: game did not terminate within 300 moves", seed)
		}
	}
}

func tryAnyPlay(t *testing.T, s State, seat string) (State, bool) {
	t.Helper()
	for _, tile := range s.Hands[seat] {
		tile := tile
		for _, side := range []string{SideLeft, SideRight} {
			next, err := Apply(s, seat, Move{Action: ActionPlay, Tile: &tile, Side: side})
			if err == nil {
				return next, true
			}
			if !errors.Is(err, models.ErrInvalidMove) {
				t.Fatalf("unexpected play failure: %v", err)
			}
		}
	}
	return s, false
}
