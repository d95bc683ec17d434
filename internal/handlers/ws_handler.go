package handlers

import (
	"log"

	"github.com/gin-gonic/gin"

	"parley/internal/realtime"
)

type WSHandler struct {
	server *realtime.WSServer
}

func NewWSHandler(server *realtime.WSServer) *WSHandler {
	return &WSHandler{server: server}
}

// Serve upgrades to a websocket bound to the authenticated caller. The
// socket speaks {"event": ..., "data": ...} frames.
func (h *WSHandler) Serve(c *gin.Context) {
	userID := getUserID(c)
	if err := h.server.Serve(c.Writer, c.Request, userID); err != nil {
		// the upgrader has already written the HTTP error
		log.Printf("[ws][upgrade][err] user=%s: %v", userID, err)
	}
}
