// Package httpapi exposes the session lifecycle over REST. Gameplay itself
// happens on the websocket; these endpoints only create, join and inspect
// sessions.
package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ncruz/tablero/internal/auth"
	"github.com/ncruz/tablero/internal/game"
	"github.com/ncruz/tablero/internal/models"
)

// standardResponse sends a consistent JSON envelope.
func standardResponse(c *gin.Context, code int, status string, data interface{}, err string) {
	response := gin.H{"status": status}
	if data != nil {
		response["data"] = data
	}
	if err != "" {
		response["error"] = err
	}
	c.JSON(code, response)
}

// httpStatus maps the rule-violation taxonomy onto HTTP codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidAction):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidConfig), errors.Is(err, models.ErrInvalidMove):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// JoinNotifier pushes join announcements to already connected viewers.
type JoinNotifier interface {
	NotifyJoined(code, seat string)
}

// SessionHandler serves the session lifecycle endpoints.
type SessionHandler struct {
	orch     *game.Orchestrator
	log      *logrus.Logger
	notify   JoinNotifier
	secret   string
	tokenTTL time.Duration
}

func NewSessionHandler(orch *game.Orchestrator, log *logrus.Logger, notify JoinNotifier, secret string, tokenTTL time.Duration) *SessionHandler {
	return &SessionHandler{orch: orch, log: log, notify: notify, secret: secret, tokenTTL: tokenTTL}
}

// seatToken mints a token for the seat, or "" when auth is not configured.
func (h *SessionHandler) seatToken(code, seat string) string {
	if h.secret == "" {
		return ""
	}
	token, err := auth.Mint(h.secret, code, seat, h.tokenTTL)
	if err != nil {
		h.log.WithError(err).Error("mint seat token")
		return ""
	}
	return token
}

// CreateSession handles POST /api/sessions.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req struct {
		Kind string `json:"kind" binding:"required"`
		Mode string `json:"mode"`
	}
	if err := c.BindJSON(&req); err != nil {
		standardResponse(c, http.StatusBadRequest, "error", nil, "kind is required")
		return
	}

	sess, err := h.orch.CreateSession(c.Request.Context(), models.GameKind(req.Kind), req.Mode)
	if err != nil {
		standardResponse(c, httpStatus(err), "error", nil, err.Error())
		return
	}

	standardResponse(c, http.StatusCreated, "created", gin.H{
		"session": sess.Code,
		"kind":    sess.Kind,
		"mode":    sess.Mode,
		"seat":    sess.Host,
		"token":   h.seatToken(sess.Code, sess.Host),
	}, "")
}

// JoinSession handles POST /api/sessions/:code/join.
func (h *SessionHandler) JoinSession(c *gin.Context) {
	code := c.Param("code")
	sess, seat, err := h.orch.JoinSession(c.Request.Context(), code)
	if err != nil {
		standardResponse(c, httpStatus(err), "error", nil, err.Error())
		return
	}
	if h.notify != nil {
		h.notify.NotifyJoined(sess.Code, seat)
	}

	standardResponse(c, http.StatusOK, "joined", gin.H{
		"session": sess.Code,
		"kind":    sess.Kind,
		"mode":    sess.Mode,
		"seat":    seat,
		"token":   h.seatToken(sess.Code, seat),
	}, "")
}

// GetSession handles GET /api/sessions/:code. The snapshot is the spectator
// projection: every hand reduced to counts.
func (h *SessionHandler) GetSession(c *gin.Context) {
	code := c.Param("code")
	sess, err := h.orch.Find(c.Request.Context(), code)
	if err != nil {
		standardResponse(c, httpStatus(err), "error", nil, err.Error())
		return
	}
	state, err := h.orch.SanitizedState(sess, "")
	if err != nil {
		standardResponse(c, http.StatusInternalServerError, "error", nil, err.Error())
		return
	}

	standardResponse(c, http.StatusOK, "ok", gin.H{
		"session":       sess.Code,
		"kind":          sess.Kind,
		"mode":          sess.Mode,
		"sessionStatus": sess.Status,
		"roster":        h.orch.Roster(sess),
		"state":         state,
		"createdAt":     sess.CreatedAt,
	}, "")
}

// Healthz handles GET /healthz.
func (h *SessionHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
