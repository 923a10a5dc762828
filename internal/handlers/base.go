package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"ripple/internal/store"

	"github.com/gin-gonic/gin"
)

// Error maps the store taxonomy onto HTTP statuses. Anything outside the
// taxonomy is a transient store failure: the caller may retry the same
// request because every core mutation is idempotent.
func Error(c *gin.Context, err error) {
	status := http.StatusServiceUnavailable
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrInvalidOperation):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrUnauthorized):
		status = http.StatusUnauthorized
	}
	c.JSON(status, gin.H{"success": false, "message": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}

// paramID parses a numeric path parameter, responding 400 itself on garbage.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
