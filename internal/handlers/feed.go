package handlers

import (
	"net/http"
	"strconv"

	"ripple/internal/services"

	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	paginator *services.FeedPaginator
}

func NewFeedHandler(paginator *services.FeedPaginator) *FeedHandler {
	return &FeedHandler{paginator: paginator}
}

// Feed serves one page of the global feed. Pages are cursor-chained so a
// client walking the feed never sees the same post twice even while new
// posts land between requests.
func (h *FeedHandler) Feed(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	page, err := h.paginator.Page(c.Request.Context(), c.Query("sortBy"), c.Query("category"), c.Query("cursor"), limit)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": page.Data, "nextCursor": page.NextCursor})
}
