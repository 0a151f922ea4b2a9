package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncruz/tablero/internal/auth"
	"github.com/ncruz/tablero/internal/game"
	"github.com/ncruz/tablero/internal/store"
	"github.com/ncruz/tablero/internal/ws"
)

func newTestRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)
	orch := game.NewOrchestrator(store.NewMemory(), log, nil,
		game.WithSeed(func() int64 { return 11 }),
		game.WithMoveDelay(0))
	gw := ws.NewGateway(orch, log, secret)
	h := NewSessionHandler(orch, log, gw, secret, time.Hour)
	return NewRouter(h, gw)
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	return rec, parsed
}

func TestHealthz(t *testing.T) {
	router := newTestRouter("")
	rec, body := doJSON(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestCreateSession(t *testing.T) {
	router := newTestRouter("topsecret")
	rec, body := doJSON(t, router, http.MethodPost, "/api/sessions",
		`{"kind":"blackjack","mode":"best_of_5"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	data := body["data"].(map[string]interface{})
	code := data["session"].(string)
	seat := data["seat"].(string)
	assert.Len(t, code, 6)
	assert.NotEmpty(t, seat)

	claims, err := auth.Verify("topsecret", data["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, code, claims.SessionCode)
	assert.Equal(t, seat, claims.Seat)
}

func TestCreateSessionRejectsBadKind(t *testing.T) {
	router := newTestRouter("")
	rec, body := doJSON(t, router, http.MethodPost, "/api/sessions", `{"kind":"chess"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", body["status"])

	rec, _ = doJSON(t, router, http.MethodPost, "/api/sessions", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinAndGetSession(t *testing.T) {
	router := newTestRouter("")
	_, created := doJSON(t, router, http.MethodPost, "/api/sessions",
		`{"kind":"dominoes","mode":"classic"}`)
	code := created["data"].(map[string]interface{})["session"].(string)

	rec, joined := doJSON(t, router, http.MethodPost, "/api/sessions/"+code+"/join", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, joined["data"].(map[string]interface{})["seat"])

	rec, got := doJSON(t, router, http.MethodGet, "/api/sessions/"+code, "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := got["data"].(map[string]interface{})
	assert.Equal(t, "waiting", data["sessionStatus"])
	assert.Len(t, data["roster"].([]interface{}), 2)
}

func TestJoinMissingSession(t *testing.T) {
	router := newTestRouter("")
	rec, body := doJSON(t, router, http.MethodPost, "/api/sessions/nosuch/join", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", body["status"])
}
