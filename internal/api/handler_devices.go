package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fellowship-backend/internal/model"
	"fellowship-backend/internal/notify"
	"fellowship-backend/internal/push"
	"fellowship-backend/internal/store"
)

type putDeviceRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Token  string `json:"token" binding:"required"`

	UserAgent    string `json:"user_agent"`
	Platform     string `json:"platform"`
	ScreenWidth  int    `json:"screen_width"`
	ScreenHeight int    `json:"screen_height"`
	Timezone     string `json:"timezone"`
	Mobile       bool   `json:"mobile"`
}

// PutDevice registers the calling device's push token, or refreshes the
// existing registration when the token is already known.
func (h *Handler) PutDevice(c *gin.Context) {
	var req putDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	device := model.DeviceInfo{
		UserAgent:    req.UserAgent,
		Platform:     req.Platform,
		ScreenWidth:  req.ScreenWidth,
		ScreenHeight: req.ScreenHeight,
		Timezone:     req.Timezone,
		Mobile:       req.Mobile,
	}

	// The browser already acquired the token on its side of the bridge; the
	// registrar consumes it through a static source.
	registrar := notify.NewRegistrar(h.store, push.StaticTokenSource(req.Token, device))
	reg, err := registrar.Register(c.Request.Context(), req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, push.ErrPermissionDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "notification permission denied"})
		case errors.Is(err, push.ErrUnsupported):
			c.JSON(http.StatusBadRequest, gin.H{"error": "push messaging not supported on this device"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	status := http.StatusOK
	if reg.Action == store.ActionRegistered {
		status = http.StatusCreated
	}
	c.JSON(status, reg)
}

type deleteDeviceRequest struct {
	Token string `json:"token" binding:"required"`
}

// DeleteDevice handles an explicit unsubscribe. The row is hard-deleted.
func (h *Handler) DeleteDevice(c *gin.Context) {
	var req deleteDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.store.DeleteToken(c.Request.Context(), req.Token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// deviceResponse lists a registration without exposing the raw token.
type deviceResponse struct {
	TokenID      string           `json:"token_id"`
	TokenPreview string           `json:"token_preview"`
	Device       model.DeviceInfo `json:"device"`
	IsActive     bool             `json:"is_active"`
	LastUsed     time.Time        `json:"last_used"`
	CreatedAt    time.Time        `json:"created_at"`
}

// GetDevices lists a user's registrations, active or not.
func (h *Handler) GetDevices(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	tokens, err := h.store.ListDeviceTokens(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	devices := make([]deviceResponse, 0, len(tokens))
	for _, t := range tokens {
		devices = append(devices, deviceResponse{
			TokenID:      t.ID,
			TokenPreview: push.Redact(t.Token),
			Device:       t.Device,
			IsActive:     t.IsActive,
			LastUsed:     t.LastUsed,
			CreatedAt:    t.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"devices": devices})
}
