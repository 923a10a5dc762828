package handlers

import (
	"net/http"

	"ripple/internal/middleware"
	"ripple/internal/models"
	"ripple/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	ledger *services.VoteLedger
}

func NewVoteHandler(ledger *services.VoteLedger) *VoteHandler {
	return &VoteHandler{ledger: ledger}
}

func (h *VoteHandler) Upvote(c *gin.Context) {
	h.cast(c, models.VoteUp)
}

func (h *VoteHandler) Downvote(c *gin.Context) {
	h.cast(c, models.VoteDown)
}

func (h *VoteHandler) cast(c *gin.Context, value int) {
	user := middleware.CurrentUser(c)
	postID, ok := paramID(c, "postId")
	if !ok {
		return
	}

	result, err := h.ledger.CastVote(c.Request.Context(), postID, user, value)
	if err != nil {
		Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"voteCount": result.VoteCount,
		"voteState": result.Current,
	})
}
