package handlers

import (
	"net/http"
	"strconv"

	"ripple/internal/middleware"
	"ripple/internal/store"

	"github.com/gin-gonic/gin"
)

const maxNotificationPage = 50

type NotificationHandler struct {
	store store.Store
}

func NewNotificationHandler(st store.Store) *NotificationHandler {
	return &NotificationHandler{store: st}
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)

	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > maxNotificationPage {
		limit = maxNotificationPage
	}

	notes, err := h.store.ListNotifications(c.Request.Context(), user.ID, limit)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": notes})
}

func (h *NotificationHandler) Read(c *gin.Context) {
	user := middleware.CurrentUser(c)
	noteID, ok := paramID(c, "notificationId")
	if !ok {
		return
	}

	if err := h.store.MarkNotificationRead(c.Request.Context(), noteID, user.ID); err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *NotificationHandler) ReadAll(c *gin.Context) {
	user := middleware.CurrentUser(c)

	if err := h.store.MarkAllNotificationsRead(c.Request.Context(), user.ID); err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
