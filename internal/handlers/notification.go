package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"coach-service/internal/models"
	"coach-service/internal/notify"
	"coach-service/internal/observability"
	"coach-service/internal/repositories"
	"coach-service/internal/telemetry"
)

// NotificationHandler exposes the fan-out entry point and the push
// subscription lifecycle.
type NotificationHandler struct {
	notifier *notify.Service
	subs     repositories.PushSubscriptionRepository
	audit    *telemetry.AuditEmitter
}

// NewNotificationHandler builds a NotificationHandler. audit may be nil.
func NewNotificationHandler(notifier *notify.Service, subs repositories.PushSubscriptionRepository, audit *telemetry.AuditEmitter) *NotificationHandler {
	return &NotificationHandler{notifier: notifier, subs: subs, audit: audit}
}

// Dispatch runs one fan-out request. Per-recipient failures come back
// inside the aggregate result, never as an HTTP error.
func (h *NotificationHandler) Dispatch(c *gin.Context) {
	var req models.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DestinatarioID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "destinatario_id is required"})
		return
	}
	if req.DisplayTitle() == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title or message is required"})
		return
	}

	result := h.notifier.Dispatch(c.Request.Context(), req)

	level := "info"
	if len(result.Errors) > 0 {
		level = "warning"
	}
	var userID *string
	if id := c.GetInt("userID"); id > 0 {
		s := strconv.Itoa(id)
		userID = &s
	}
	h.audit.Emit(c.Request.Context(), telemetry.AuditPayload{
		Level: level,
		Text:  fmt.Sprintf("notification dispatch to %s: sent %d/%d", req.DestinatarioID, result.Sent, result.Total),
	}, observability.RequestIDFromRequest(c.Request), userID)

	c.JSON(http.StatusOK, result)
}

// Subscribe registers (or refreshes) the caller's push subscription.
// The body mirrors the browser PushSubscription JSON shape.
func (h *NotificationHandler) Subscribe(c *gin.Context) {
	var req struct {
		Endpoint string `json:"endpoint" binding:"required"`
		Keys     struct {
			P256dh string `json:"p256dh" binding:"required"`
			Auth   string `json:"auth" binding:"required"`
		} `json:"keys" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub := models.PushSubscription{
		UserID:   c.GetInt("userID"),
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}
	if err := h.subs.Upsert(c.Request.Context(), sub); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store subscription"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Unsubscribe revokes the caller's push subscription.
func (h *NotificationHandler) Unsubscribe(c *gin.Context) {
	if err := h.subs.Delete(c.Request.Context(), c.GetInt("userID")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove subscription"})
		return
	}
	c.Status(http.StatusNoContent)
}
