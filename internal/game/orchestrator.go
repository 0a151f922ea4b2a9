// Package game is the session orchestrator: the only writer of session
// documents. It owns the lifecycle (create, join, start, move, ready),
// drives automated seats, and produces per-viewer sanitized state.
package game

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ncruz/tablero/internal/blackjack"
	"github.com/ncruz/tablero/internal/cache"
	"github.com/ncruz/tablero/internal/dominoes"
	"github.com/ncruz/tablero/internal/models"
	"github.com/ncruz/tablero/internal/store"
)

const (
	codeLen = 6
	seatLen = 8

	// automatedTurnCap bounds one automated run so a policy bug can never
	// spin forever; the gateway re-triggers the loop on the next event.
	automatedTurnCap = 20
)

// seatTarget is how many seats a kind needs before the engine can start.
// Open seats are filled with automated players at start time.
func seatTarget(kind models.GameKind, have int) int {
	switch kind {
	case models.KindDominoes:
		return 4
	default:
		if have > 2 {
			return have
		}
		return 2
	}
}

// Orchestrator serializes all mutations of a session behind a per-session
// lock, applies engine transitions, and persists the result document.
type Orchestrator struct {
	store store.SessionStore
	log   *logrus.Logger
	audit *cache.Publisher
	auto  *AutoRegistry

	seed      func() int64
	moveDelay time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	rng   *rand.Rand
}

// Option tweaks orchestrator construction, mainly for tests.
type Option func(*Orchestrator)

// WithSeed replaces the engine seed source.
func WithSeed(fn func() int64) Option {
	return func(o *Orchestrator) { o.seed = fn }
}

// WithMoveDelay sets the pause between automated moves.
func WithMoveDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.moveDelay = d }
}

func NewOrchestrator(st store.SessionStore, log *logrus.Logger, audit *cache.Publisher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     st,
		log:       log,
		audit:     audit,
		auto:      NewAutoRegistry(),
		seed:      func() int64 { return time.Now().UnixNano() },
		moveDelay: 750 * time.Millisecond,
		locks:     make(map[string]*sync.Mutex),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// sessionLock returns the mutex guarding one session's read-modify-write.
func (o *Orchestrator) sessionLock(code string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[code]
	if !ok {
		l = &sync.Mutex{}
		o.locks[code] = l
	}
	return l
}

func (o *Orchestrator) newCode(n int) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return models.NewCode(n, o.rng)
}

// IsAutomated reports whether a seat is policy-driven.
func (o *Orchestrator) IsAutomated(code, seat string) bool {
	return o.auto.IsAutomated(code, seat)
}

// CreateSession mints a new waiting session. The caller becomes the host and
// occupies the first seat; the returned session carries both codes.
func (o *Orchestrator) CreateSession(ctx context.Context, kind models.GameKind, mode string) (*models.Session, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown game kind %q: %w", kind, models.ErrInvalidConfig)
	}
	hostSeat := o.newCode(seatLen)
	sess := &models.Session{
		Code:      o.newCode(codeLen),
		Kind:      kind,
		Mode:      mode,
		Host:      hostSeat,
		Seats:     []string{hostSeat},
		Status:    models.StatusWaiting,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.store.Insert(ctx, sess); err != nil {
		return nil, err
	}
	o.log.WithFields(logrus.Fields{"session": sess.Code, "kind": kind, "mode": mode}).Info("session created")
	o.publish(sess.Code, hostSeat, "create", map[string]interface{}{"kind": string(kind), "mode": mode})
	return sess, nil
}

// JoinSession seats a new player in a waiting session and returns the minted
// seat code. Sessions already started or full reject the join.
func (o *Orchestrator) JoinSession(ctx context.Context, code string) (*models.Session, string, error) {
	lock := o.sessionLock(code)
	lock.Lock()
	defer lock.Unlock()

	sess, err := o.store.Find(ctx, code)
	if err != nil {
		return nil, "", err
	}
	if sess.Status != models.StatusWaiting {
		return nil, "", fmt.Errorf("session %s already started: %w", code, models.ErrInvalidState)
	}
	if len(sess.Seats) >= 4 {
		return nil, "", fmt.Errorf("session %s is full: %w", code, models.ErrInvalidState)
	}
	seat := o.newCode(seatLen)
	sess.Seats = append(sess.Seats, seat)
	if err := o.store.Update(ctx, sess); err != nil {
		return nil, "", err
	}
	o.log.WithFields(logrus.Fields{"session": code, "seat": seat}).Info("seat joined")
	o.publish(code, seat, "join", nil)
	return sess, seat, nil
}

// StartSession deals the first hand. Only the host may start; open seats are
// filled with automated players up to the kind's seat target.
func (o *Orchestrator) StartSession(ctx context.Context, code, seat string) (*models.Session, error) {
	lock := o.sessionLock(code)
	lock.Lock()
	defer lock.Unlock()

	sess, err := o.store.Find(ctx, code)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.StatusWaiting {
		return nil, fmt.Errorf("session %s already started: %w", code, models.ErrInvalidState)
	}
	if seat != sess.Host {
		return nil, fmt.Errorf("only the host may start: %w", models.ErrInvalidAction)
	}

	for len(sess.Seats) < seatTarget(sess.Kind, len(sess.Seats)) {
		cpu := "cpu-" + o.newCode(4)
		sess.Seats = append(sess.Seats, cpu)
		o.auto.MarkAutomated(code, cpu)
	}

	raw, status, err := o.dealInitial(sess)
	if err != nil {
		return nil, err
	}
	sess.State = raw
	sess.Status = status
	if err := o.store.Update(ctx, sess); err != nil {
		return nil, err
	}
	o.log.WithFields(logrus.Fields{"session": code, "seats": len(sess.Seats)}).Info("session started")
	o.publish(code, seat, "start", map[string]interface{}{"seats": len(sess.Seats)})
	return sess, nil
}

func (o *Orchestrator) dealInitial(sess *models.Session) (json.RawMessage, models.Status, error) {
	switch sess.Kind {
	case models.KindBlackjack:
		st, err := blackjack.New(sess.Seats, sess.Mode, o.seed())
		if err != nil {
			return nil, "", err
		}
		raw, err := json.Marshal(st)
		return raw, st.Status, err
	case models.KindDominoes:
		st, err := dominoes.New(sess.Seats, sess.Mode, o.seed())
		if err != nil {
			return nil, "", err
		}
		raw, err := json.Marshal(st)
		return raw, st.Status, err
	}
	return nil, "", fmt.Errorf("unknown game kind %q: %w", sess.Kind, models.ErrInvalidConfig)
}

// ApplyMove decodes and applies one move for the seat. The engine validates
// turn order and legality; on success the whole document is persisted.
func (o *Orchestrator) ApplyMove(ctx context.Context, code, seat string, raw json.RawMessage) (*models.Session, error) {
	lock := o.sessionLock(code)
	lock.Lock()
	defer lock.Unlock()
	return o.applyMoveLocked(ctx, code, seat, raw)
}

func (o *Orchestrator) applyMoveLocked(ctx context.Context, code, seat string, raw json.RawMessage) (*models.Session, error) {
	sess, err := o.store.Find(ctx, code)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.StatusInProgress {
		return nil, fmt.Errorf("session %s is not accepting moves: %w", code, models.ErrInvalidState)
	}
	if !sess.HasSeat(seat) {
		return nil, fmt.Errorf("seat %s is not in session %s: %w", seat, code, models.ErrInvalidAction)
	}

	switch sess.Kind {
	case models.KindBlackjack:
		var st blackjack.State
		if err := json.Unmarshal(sess.State, &st); err != nil {
			return nil, fmt.Errorf("decode blackjack state: %w", err)
		}
		var mv blackjack.Move
		if err := json.Unmarshal(raw, &mv); err != nil {
			return nil, fmt.Errorf("decode move: %w", models.ErrInvalidMove)
		}
		next, err := blackjack.Apply(st, seat, mv)
		if err != nil {
			return nil, err
		}
		o.ackAutomatedBlackjack(code, &next)
		if sess.State, err = json.Marshal(next); err != nil {
			return nil, err
		}
		sess.Status = next.Status
		o.publish(code, seat, "move", map[string]interface{}{"action": mv.Action})
	case models.KindDominoes:
		var st dominoes.State
		if err := json.Unmarshal(sess.State, &st); err != nil {
			return nil, fmt.Errorf("decode dominoes state: %w", err)
		}
		var mv dominoes.Move
		if err := json.Unmarshal(raw, &mv); err != nil {
			return nil, fmt.Errorf("decode move: %w", models.ErrInvalidMove)
		}
		next, err := dominoes.Apply(st, seat, mv)
		if err != nil {
			return nil, err
		}
		o.ackAutomatedDominoes(code, &next)
		if sess.State, err = json.Marshal(next); err != nil {
			return nil, err
		}
		sess.Status = next.Status
		o.publish(code, seat, "move", map[string]interface{}{"action": mv.Action})
	default:
		return nil, fmt.Errorf("unknown game kind %q: %w", sess.Kind, models.ErrInvalidConfig)
	}

	if err := o.store.Update(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// MarkReady acknowledges the end of a round or hand for one seat. Automated
// seats acknowledge implicitly; once every seat is ready the next round or
// hand is dealt in place.
func (o *Orchestrator) MarkReady(ctx context.Context, code, seat string) (*models.Session, error) {
	lock := o.sessionLock(code)
	lock.Lock()
	defer lock.Unlock()

	sess, err := o.store.Find(ctx, code)
	if err != nil {
		return nil, err
	}
	if !sess.HasSeat(seat) {
		return nil, fmt.Errorf("seat %s is not in session %s: %w", seat, code, models.ErrInvalidAction)
	}

	switch sess.Kind {
	case models.KindBlackjack:
		var st blackjack.State
		if err := json.Unmarshal(sess.State, &st); err != nil {
			return nil, fmt.Errorf("decode blackjack state: %w", err)
		}
		next, err := blackjack.MarkReady(st, seat)
		if err != nil {
			return nil, err
		}
		o.ackAutomatedBlackjack(code, &next)
		if blackjack.AllReady(next) {
			if next, err = blackjack.NextRound(next, o.seed()); err != nil {
				return nil, err
			}
		}
		if sess.State, err = json.Marshal(next); err != nil {
			return nil, err
		}
		sess.Status = next.Status
	case models.KindDominoes:
		var st dominoes.State
		if err := json.Unmarshal(sess.State, &st); err != nil {
			return nil, fmt.Errorf("decode dominoes state: %w", err)
		}
		next, err := dominoes.MarkReady(st, seat)
		if err != nil {
			return nil, err
		}
		o.ackAutomatedDominoes(code, &next)
		if dominoes.AllReady(next) {
			if next, err = dominoes.NextHand(next, o.seed()); err != nil {
				return nil, err
			}
		}
		if sess.State, err = json.Marshal(next); err != nil {
			return nil, err
		}
		sess.Status = next.Status
	default:
		return nil, fmt.Errorf("unknown game kind %q: %w", sess.Kind, models.ErrInvalidConfig)
	}

	if err := o.store.Update(ctx, sess); err != nil {
		return nil, err
	}
	o.publish(code, seat, "ready", nil)
	return sess, nil
}

// ackAutomatedBlackjack marks every automated seat ready once a round ends.
func (o *Orchestrator) ackAutomatedBlackjack(code string, st *blackjack.State) {
	if st.Status != models.StatusRoundFinished {
		return
	}
	for _, seat := range st.Seats {
		if !o.auto.IsAutomated(code, seat) {
			continue
		}
		next, err := blackjack.MarkReady(*st, seat)
		if err != nil {
			continue
		}
		*st = next
	}
}

func (o *Orchestrator) ackAutomatedDominoes(code string, st *dominoes.State) {
	if st.Status != models.StatusHandFinished {
		return
	}
	for _, seat := range st.Seats {
		if !o.auto.IsAutomated(code, seat) {
			continue
		}
		next, err := dominoes.MarkReady(*st, seat)
		if err != nil {
			continue
		}
		*st = next
	}
}

// RunAutomatedTurns plays policy moves while the current seat is automated,
// invoking onStep after each persisted step so the gateway can fan out the
// intermediate states. Bounded by automatedTurnCap per invocation.
func (o *Orchestrator) RunAutomatedTurns(ctx context.Context, code string, onStep func(*models.Session)) error {
	for i := 0; i < automatedTurnCap; i++ {
		lock := o.sessionLock(code)
		lock.Lock()
		sess, err := o.store.Find(ctx, code)
		if err != nil {
			lock.Unlock()
			return err
		}
		if sess.Status != models.StatusInProgress {
			lock.Unlock()
			return nil
		}

		seat, raw, err := o.automatedMove(code, sess)
		if err != nil {
			lock.Unlock()
			return err
		}
		if seat == "" {
			lock.Unlock()
			return nil
		}
		sess, err = o.applyMoveLocked(ctx, code, seat, raw)
		lock.Unlock()
		if err != nil {
			return fmt.Errorf("automated move for %s: %w", seat, err)
		}
		if onStep != nil {
			onStep(sess)
		}
		if o.moveDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(o.moveDelay):
			}
		}
	}
	o.log.WithField("session", code).Warn("automated turn cap reached")
	return nil
}

// automatedMove returns the policy move for the current seat, or an empty
// seat when a human holds the turn.
func (o *Orchestrator) automatedMove(code string, sess *models.Session) (string, json.RawMessage, error) {
	switch sess.Kind {
	case models.KindBlackjack:
		var st blackjack.State
		if err := json.Unmarshal(sess.State, &st); err != nil {
			return "", nil, fmt.Errorf("decode blackjack state: %w", err)
		}
		seat := blackjack.CurrentSeat(st)
		if seat == "" || !o.auto.IsAutomated(code, seat) {
			return "", nil, nil
		}
		raw, err := json.Marshal(blackjackPolicy(st, seat))
		return seat, raw, err
	case models.KindDominoes:
		var st dominoes.State
		if err := json.Unmarshal(sess.State, &st); err != nil {
			return "", nil, fmt.Errorf("decode dominoes state: %w", err)
		}
		seat := dominoes.CurrentSeat(st)
		if seat == "" || !o.auto.IsAutomated(code, seat) {
			return "", nil, nil
		}
		raw, err := json.Marshal(dominoesPolicy(st, seat))
		return seat, raw, err
	}
	return "", nil, fmt.Errorf("unknown game kind %q: %w", sess.Kind, models.ErrInvalidConfig)
}

// Find loads a session document without mutating it.
func (o *Orchestrator) Find(ctx context.Context, code string) (*models.Session, error) {
	return o.store.Find(ctx, code)
}

// SanitizedState renders the session state as seen by one viewer: hidden
// information belonging to other seats is reduced to counts.
func (o *Orchestrator) SanitizedState(sess *models.Session, viewer string) (json.RawMessage, error) {
	if len(sess.State) == 0 {
		return nil, nil
	}
	switch sess.Kind {
	case models.KindBlackjack:
		var st blackjack.State
		if err := json.Unmarshal(sess.State, &st); err != nil {
			return nil, fmt.Errorf("decode blackjack state: %w", err)
		}
		return json.Marshal(blackjack.Sanitize(st, viewer))
	case models.KindDominoes:
		var st dominoes.State
		if err := json.Unmarshal(sess.State, &st); err != nil {
			return nil, fmt.Errorf("decode dominoes state: %w", err)
		}
		return json.Marshal(dominoes.Sanitize(st, viewer))
	}
	return nil, fmt.Errorf("unknown game kind %q: %w", sess.Kind, models.ErrInvalidConfig)
}

// Roster lists the session's seats with their automation flags.
func (o *Orchestrator) Roster(sess *models.Session) []models.SeatInfo {
	roster := make([]models.SeatInfo, 0, len(sess.Seats))
	for _, seat := range sess.Seats {
		roster = append(roster, models.SeatInfo{
			ID:        seat,
			Automated: o.auto.IsAutomated(sess.Code, seat),
		})
	}
	return roster
}

func (o *Orchestrator) publish(code, seat, action string, payload map[string]interface{}) {
	o.audit.Publish(cache.ActionRecord{
		SessionCode: code,
		Seat:        seat,
		Action:      action,
		Payload:     payload,
	})
}
