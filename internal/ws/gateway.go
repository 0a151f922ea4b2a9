// Package ws is the realtime gateway: it upgrades seat connections, routes
// client actions into the orchestrator, and fans engine state back out with
// per-viewer sanitization. Every viewer gets their own projection; hidden
// zones of other seats never cross the wire.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ncruz/tablero/internal/auth"
	"github.com/ncruz/tablero/internal/game"
	"github.com/ncruz/tablero/internal/models"
)

const (
	sendBuffer   = 64
	pingInterval = 15 * time.Second
)

// client is one live connection bound to a seat. Writes go through the send
// channel so the writer goroutine owns the conn exclusively.
type client struct {
	id   uuid.UUID
	code string
	seat string
	send chan []byte
	conn *websocket.Conn
}

// Gateway tracks live connections per session and bridges them to the
// orchestrator.
type Gateway struct {
	orch   *game.Orchestrator
	log    *logrus.Logger
	secret string

	mu    sync.RWMutex
	rooms map[string]map[uuid.UUID]*client
}

func NewGateway(orch *game.Orchestrator, log *logrus.Logger, secret string) *Gateway {
	return &Gateway{
		orch:   orch,
		log:    log,
		secret: secret,
		rooms:  make(map[string]map[uuid.UUID]*client),
	}
}

// Handle upgrades GET /ws/:code/:seat. With an auth secret configured the
// request must carry a seat token matching the path.
func (g *Gateway) Handle(c *gin.Context) {
	code := c.Param("code")
	seat := c.Param("seat")

	sess, err := g.orch.Find(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if !sess.HasSeat(seat) {
		c.JSON(http.StatusForbidden, gin.H{"error": "unknown seat"})
		return
	}
	if g.secret != "" {
		token := c.Query("token")
		claims, err := auth.Verify(g.secret, token)
		if err != nil || claims.SessionCode != code || claims.Seat != seat {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid seat token"})
			return
		}
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		g.log.WithError(err).Warn("websocket accept failed")
		return
	}

	cl := &client{
		id:   uuid.New(),
		code: code,
		seat: seat,
		send: make(chan []byte, sendBuffer),
		conn: conn,
	}
	g.register(cl)
	g.log.WithFields(logrus.Fields{"session": code, "seat": seat}).Info("seat connected")

	ctx := c.Request.Context()
	go cl.writeLoop(ctx)

	g.sendWelcome(cl, sess)
	g.broadcastExcept(cl, event{Type: EventPlayerConnected, Session: code, Seat: seat})

	g.readLoop(ctx, cl)

	g.unregister(cl)
	g.broadcastExcept(cl, event{Type: EventPlayerDisconnected, Session: code, Seat: seat})
	g.log.WithFields(logrus.Fields{"session": code, "seat": seat}).Info("seat disconnected")
}

func (cl *client) writeLoop(ctx context.Context) {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		_ = cl.conn.Close(websocket.StatusNormalClosure, "bye")
	}()
	for {
		select {
		case msg, ok := <-cl.send:
			if !ok {
				return
			}
			if err := cl.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case <-ping.C:
			if err := cl.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (g *Gateway) readLoop(ctx context.Context, cl *client) {
	for {
		_, data, err := cl.conn.Read(ctx)
		if err != nil {
			return
		}
		g.handleAction(ctx, cl, data)
	}
}

// handleAction routes one inbound frame. Rule violations answer the actor
// only; successful mutations fan out to every connected seat.
func (g *Gateway) handleAction(ctx context.Context, cl *client, data []byte) {
	var act ClientAction
	if err := json.Unmarshal(data, &act); err != nil {
		g.sendEvent(cl, event{Type: EventError, Code: "bad_frame", Message: "malformed action"})
		return
	}

	switch act.Type {
	case ActionStartGame:
		sess, err := g.orch.StartSession(ctx, cl.code, cl.seat)
		if err != nil {
			g.sendError(cl, err)
			return
		}
		g.broadcast(cl.code, event{
			Type:    EventGameStarted,
			Session: cl.code,
			Kind:    sess.Kind,
			Mode:    sess.Mode,
			Roster:  g.orch.Roster(sess),
		})
		g.broadcastState(sess)
		g.runAutomated(cl.code)
	case ActionMakeMove:
		sess, err := g.orch.ApplyMove(ctx, cl.code, cl.seat, act.Move)
		if err != nil {
			g.sendError(cl, err)
			return
		}
		g.broadcastState(sess)
		g.runAutomated(cl.code)
	case ActionReadyNextRound, ActionReadyNextHand:
		sess, err := g.orch.MarkReady(ctx, cl.code, cl.seat)
		if err != nil {
			g.sendError(cl, err)
			return
		}
		g.broadcastState(sess)
		if sess.Status == models.StatusInProgress {
			g.runAutomated(cl.code)
		}
	default:
		g.sendEvent(cl, event{Type: EventError, Code: "bad_frame", Message: "unknown action type"})
	}
}

// NotifyJoined announces a seat added through the HTTP API to every
// connected viewer of the session.
func (g *Gateway) NotifyJoined(code, seat string) {
	g.broadcast(code, event{Type: EventPlayerJoined, Session: code, Seat: seat})
}

// runAutomated drains policy moves in the background, pushing each step.
func (g *Gateway) runAutomated(code string) {
	go func() {
		err := g.orch.RunAutomatedTurns(context.Background(), code, func(sess *models.Session) {
			g.broadcastState(sess)
		})
		if err != nil {
			g.log.WithError(err).WithField("session", code).Warn("automated turns aborted")
		}
	}()
}

// sendWelcome pushes the initial snapshot a reconnecting or fresh seat needs.
func (g *Gateway) sendWelcome(cl *client, sess *models.Session) {
	state, err := g.orch.SanitizedState(sess, cl.seat)
	if err != nil {
		g.sendError(cl, err)
		return
	}
	g.sendEvent(cl, event{
		Type:    EventConnectionSuccess,
		Session: cl.code,
		Seat:    cl.seat,
		Kind:    sess.Kind,
		Mode:    sess.Mode,
		Status:  sess.Status,
		State:   state,
		Roster:  g.orch.Roster(sess),
	})
}

// broadcastState fans one session snapshot out, sanitized per viewer.
func (g *Gateway) broadcastState(sess *models.Session) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, cl := range g.rooms[sess.Code] {
		state, err := g.orch.SanitizedState(sess, cl.seat)
		if err != nil {
			g.log.WithError(err).WithField("session", sess.Code).Error("sanitize state")
			continue
		}
		g.sendEvent(cl, event{
			Type:    EventStateUpdate,
			Session: sess.Code,
			Status:  sess.Status,
			State:   state,
			Roster:  g.orch.Roster(sess),
		})
	}
}

// broadcast pushes one identical event to every seat in the session.
func (g *Gateway) broadcast(code string, ev event) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, cl := range g.rooms[code] {
		g.sendEvent(cl, ev)
	}
}

// broadcastExcept pushes to every seat in the session but the origin.
func (g *Gateway) broadcastExcept(origin *client, ev event) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, cl := range g.rooms[origin.code] {
		if cl.id != origin.id {
			g.sendEvent(cl, ev)
		}
	}
}

// sendEvent queues one push without blocking; a full buffer drops the frame.
func (g *Gateway) sendEvent(cl *client, ev event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		g.log.WithError(err).Error("marshal event")
		return
	}
	select {
	case cl.send <- msg:
	default:
		g.log.WithFields(logrus.Fields{"session": cl.code, "seat": cl.seat}).
			Warn("send buffer full, frame dropped")
	}
}

func (g *Gateway) sendError(cl *client, err error) {
	g.sendEvent(cl, event{Type: EventError, Code: errorCode(err), Message: err.Error()})
}

func (g *Gateway) register(cl *client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.rooms[cl.code]
	if !ok {
		room = make(map[uuid.UUID]*client)
		g.rooms[cl.code] = room
	}
	room[cl.id] = cl
}

// unregister drops the client from the room registry. The send channel is
// never closed: a fan-out racing the disconnect may still queue a frame, and
// the writer goroutine exits through its context or a failed write instead.
func (g *Gateway) unregister(cl *client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.rooms[cl.code]
	if !ok {
		return
	}
	delete(room, cl.id)
	if len(room) == 0 {
		delete(g.rooms, cl.code)
	}
}
