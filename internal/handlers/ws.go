package handlers

import (
	"log"

	"ripple/internal/middleware"
	"ripple/internal/realtime"

	"github.com/gin-gonic/gin"
)

type WSHandler struct {
	hub *realtime.Hub
}

func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Connect upgrades the caller's session into a live notification channel.
func (h *WSHandler) Connect(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.hub.HandleConnection(c.Writer, c.Request, user.ID); err != nil {
		log.Printf("websocket upgrade for user %d: %v", user.ID, err)
	}
}
