package handlers

import (
	"net/http"

	"ripple/internal/middleware"
	"ripple/internal/services"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.Comments
}

func NewCommentHandler(comments *services.Comments) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type createCommentRequest struct {
	PostID   uint   `json:"postId" binding:"required"`
	Content  string `json:"content" binding:"required"`
	ParentID *uint  `json:"parentId"`
}

func (h *CommentHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "postId and content are required")
		return
	}

	comment, err := h.comments.Add(c.Request.Context(), user, req.PostID, req.Content, req.ParentID)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": comment})
}

type replyRequest struct {
	Content string `json:"content" binding:"required"`
}

// Reply is Create with the parent fixed by the path.
func (h *CommentHandler) Reply(c *gin.Context) {
	user := middleware.CurrentUser(c)
	parentID, ok := paramID(c, "commentId")
	if !ok {
		return
	}

	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "content is required")
		return
	}

	comment, err := h.comments.Reply(c.Request.Context(), user, parentID, req.Content)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": comment})
}

func (h *CommentHandler) Like(c *gin.Context) {
	user := middleware.CurrentUser(c)
	commentID, ok := paramID(c, "commentId")
	if !ok {
		return
	}

	liked, likes, err := h.comments.ToggleLike(c.Request.Context(), user, commentID)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "liked": liked, "likes": likes})
}

func (h *CommentHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	commentID, ok := paramID(c, "commentId")
	if !ok {
		return
	}

	if err := h.comments.Delete(c.Request.Context(), user, commentID); err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *CommentHandler) List(c *gin.Context) {
	postID, ok := paramID(c, "postId")
	if !ok {
		return
	}

	comments, err := h.comments.List(c.Request.Context(), postID)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": comments})
}
