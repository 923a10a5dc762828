package handlers

import (
	"net/http"

	"ripple/internal/middleware"
	"ripple/internal/services"

	"github.com/gin-gonic/gin"
)

type FollowHandler struct {
	graph *services.FollowGraph
}

func NewFollowHandler(graph *services.FollowGraph) *FollowHandler {
	return &FollowHandler{graph: graph}
}

type followRequest struct {
	TargetID uint `json:"targetId" binding:"required"`
}

func (h *FollowHandler) Follow(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "targetId is required")
		return
	}

	if err := h.graph.Follow(c.Request.Context(), user, req.TargetID); err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *FollowHandler) Unfollow(c *gin.Context) {
	user := middleware.CurrentUser(c)
	targetID, ok := paramID(c, "targetId")
	if !ok {
		return
	}

	if err := h.graph.Unfollow(c.Request.Context(), user, targetID); err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *FollowHandler) Followers(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	followers, err := h.graph.Followers(c.Request.Context(), userID)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "followers": followers})
}

func (h *FollowHandler) Following(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	following, err := h.graph.Following(c.Request.Context(), userID)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "following": following})
}
