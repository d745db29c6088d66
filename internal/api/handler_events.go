package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fellowship-backend/internal/model"
	"fellowship-backend/internal/notify"
)

type postEventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	CreatedBy   string    `json:"created_by" binding:"required"`
}

// PostEvent creates a calendar event and queues a notification fan-out to
// every member. The request returns as soon as the jobs are enqueued.
func (h *Handler) PostEvent(c *gin.Context) {
	var req postEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event := model.Event{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		CreatedBy:   req.CreatedBy,
	}
	if err := h.store.CreateEvent(c.Request.Context(), &event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if h.cacheStore != nil {
		h.cacheStore.Flush()
	}

	if h.pool != nil {
		ids, err := h.store.ListAccountIDs(c.Request.Context())
		if err != nil {
			// The event exists; a failed fan-out must not fail the request.
			c.JSON(http.StatusCreated, gin.H{"event": event, "notified": false})
			return
		}
		body := event.Title
		if event.Location != "" {
			body = fmt.Sprintf("%s @ %s", event.Title, event.Location)
		}
		for _, id := range ids {
			if id == event.CreatedBy {
				continue
			}
			h.pool.Enqueue(notify.Job{
				UserID: id,
				Title:  "New fellowship event",
				Body:   body,
				Data: map[string]string{
					"type":     "event_created",
					"event_id": strconv.FormatInt(event.ID, 10),
				},
			})
		}
	}

	c.JSON(http.StatusCreated, gin.H{"event": event, "notified": true})
}

// GetEvents lists upcoming events.
func (h *Handler) GetEvents(c *gin.Context) {
	events, err := h.store.ListUpcomingEvents(c.Request.Context(), time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

type putRSVPRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Status string `json:"status" binding:"required,oneof=going maybe declined"`
}

// PutRSVP records or replaces a member's answer for an event.
func (h *Handler) PutRSVP(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("event_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req putRSVPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rsvp := model.RSVP{
		EventID: eventID,
		UserID:  req.UserID,
		Status:  req.Status,
	}
	if err := h.store.UpsertRSVP(c.Request.Context(), &rsvp); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rsvp)
}
