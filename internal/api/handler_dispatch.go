package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type dispatchRequest struct {
	UserID string            `json:"user_id" binding:"required"`
	Title  string            `json:"title" binding:"required"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data"`
}

// PostDispatch fans a message out to every active device of one user and
// returns the aggregated result. Per-token failures are reported as counts
// only; push delivery is best-effort.
func (h *Handler) PostDispatch(c *gin.Context) {
	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.dispatcher.Dispatch(c.Request.Context(), req.UserID, req.Title, req.Body, req.Data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if len(result.InvalidTokens) > 0 {
		if _, err := h.monitor.PruneInvalid(c.Request.Context(), result.InvalidTokens); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, result)
}
