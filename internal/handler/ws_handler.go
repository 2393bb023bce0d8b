package handler

import (
	"net/http"

	"vaultboard/internal/auth"
	"vaultboard/internal/notify"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"
)

// WSHandler upgrades clients to a websocket and streams board-change events
// to them. Browsers cannot set an Authorization header on the websocket
// handshake, so the token travels as a query parameter.
type WSHandler struct {
	hub       *notify.Hub
	jwtSecret []byte
}

func NewWSHandler(hub *notify.Hub, jwtSecret []byte) *WSHandler {
	return &WSHandler{hub: hub, jwtSecret: jwtSecret}
}

func (h *WSHandler) Subscribe(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token is required"})
		return
	}

	if _, err := auth.ParseToken(token, h.jwtSecret); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		// The frontend is served from another origin in development.
		InsecureSkipVerify: true,
	})
	if err != nil {
		return
	}

	_ = h.hub.Subscribe(c.Request.Context(), conn)
}
