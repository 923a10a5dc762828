package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"ripple/internal/middleware"
	"ripple/internal/models"
	"ripple/internal/services"
	"ripple/internal/store"
	"ripple/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PostHandler struct {
	store     store.Store
	ledger    *services.VoteLedger
	paginator *services.FeedPaginator
}

func NewPostHandler(st store.Store, ledger *services.VoteLedger, paginator *services.FeedPaginator) *PostHandler {
	return &PostHandler{store: st, ledger: ledger, paginator: paginator}
}

type createPostRequest struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content" binding:"required"`
	Category string `json:"category" binding:"required"`
}

func (h *PostHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "title, content and category are required")
		return
	}

	post := &models.Post{
		Pid:      uuid.NewString(),
		UserID:   user.ID,
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		Category: strings.TrimSpace(req.Category),
	}
	if err := h.store.CreatePost(c.Request.Context(), post); err != nil {
		Error(c, err)
		return
	}
	h.paginator.Invalidate()

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": post})
}

func (h *PostHandler) Get(c *gin.Context) {
	postID, ok := paramID(c, "postId")
	if !ok {
		return
	}

	post, err := h.store.GetPost(c.Request.Context(), postID)
	if err != nil {
		Error(c, err)
		return
	}
	post.ContentHTML = utils.RenderMarkdown(post.Content)

	if user := middleware.CurrentUser(c); user != nil {
		if state, err := h.ledger.GetVote(c.Request.Context(), postID, user.ID); err == nil && state != models.VoteStateNone {
			post.CallerVote = string(state)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": post})
}

// GetByPid resolves a post by its public identifier, the form shared in links.
func (h *PostHandler) GetByPid(c *gin.Context) {
	post, err := h.store.GetPostByPid(c.Request.Context(), c.Param("pid"))
	if err != nil {
		Error(c, err)
		return
	}
	post.ContentHTML = utils.RenderMarkdown(post.Content)

	if user := middleware.CurrentUser(c); user != nil {
		if state, err := h.ledger.GetVote(c.Request.Context(), post.ID, user.ID); err == nil && state != models.VoteStateNone {
			post.CallerVote = string(state)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": post})
}

func (h *PostHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	postID, ok := paramID(c, "postId")
	if !ok {
		return
	}

	post, err := h.store.GetPost(c.Request.Context(), postID)
	if err != nil {
		Error(c, err)
		return
	}
	if post.UserID != user.ID {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "not your post"})
		return
	}

	if err := h.store.DeletePost(c.Request.Context(), postID); err != nil {
		Error(c, err)
		return
	}
	h.paginator.Invalidate()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// List pages posts by category with the same keyset cursor as the feed.
func (h *PostHandler) List(c *gin.Context) {
	category := c.Query("category")
	if category == "" {
		badRequest(c, "category is required")
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	page, err := h.paginator.Page(c.Request.Context(), "recent", category, c.Query("cursor"), limit)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": page.Data, "nextCursor": page.NextCursor})
}
