package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"coach-service/internal/agent"
)

// AgentHandler is the HTTP surface of the offline agent for clients
// running in shells without native push support: the platform posts
// delivered payloads here and clicks are resolved into a route action.
type AgentHandler struct {
	notifier *agent.Notifier
	gateway  *agent.Gateway
}

// NewAgentHandler builds an AgentHandler.
func NewAgentHandler(notifier *agent.Notifier, gateway *agent.Gateway) *AgentHandler {
	return &AgentHandler{notifier: notifier, gateway: gateway}
}

// Push accepts a delivered payload (structured or raw text) and
// displays it.
func (h *AgentHandler) Push(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable payload"})
		return
	}
	notification := h.notifier.HandlePush(raw)
	c.JSON(http.StatusOK, notification)
}

// Click resolves an interaction with a displayed notification.
func (h *AgentHandler) Click(c *gin.Context) {
	result := h.notifier.Click(c.Param("tag"))
	c.JSON(http.StatusOK, result)
}

// Status reports the active cache generation.
func (h *AgentHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version": h.gateway.Version(),
		"active":  h.gateway.Active(),
	})
}
