package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/ncruz/tablero/internal/ws"
)

// NewRouter assembles the REST routes and the websocket upgrade endpoint.
func NewRouter(h *SessionHandler, gw *ws.Gateway) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", h.Healthz)

	api := router.Group("/api")
	{
		api.POST("/sessions", h.CreateSession)
		api.POST("/sessions/:code/join", h.JoinSession)
		api.GET("/sessions/:code", h.GetSession)
	}

	router.GET("/ws/:code/:seat", gw.Handle)

	return router
}
