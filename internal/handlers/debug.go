package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"coach-service/internal/models"
	"coach-service/internal/repositories"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, convRepo repositories.ConversationRepository, messageRepo repositories.MessageRepository, enabled bool) {
	if !enabled {
		return
	}

	// Recomputes both unread counters from the message rows so drift in
	// the denormalized columns is visible next to the stored values.
	router.GET("/debug/conversations/:conversation_id/unread", func(c *gin.Context) {
		conversationID, err := strconv.Atoi(c.Param("conversation_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
			return
		}

		conv, err := convRepo.GetConversation(c.Request.Context(), conversationID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}

		clientUnread, err := convRepo.UnreadCount(c.Request.Context(), conversationID, models.RoleClient)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "recount failed"})
			return
		}
		staffUnread, err := convRepo.UnreadCount(c.Request.Context(), conversationID, models.RoleStaff)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "recount failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"stored":     gin.H{"client_unread": conv.ClientUnread, "staff_unread": conv.StaffUnread},
			"recomputed": gin.H{"client_unread": clientUnread, "staff_unread": staffUnread},
		})
	})

	router.GET("/debug/messages/:message_id", func(c *gin.Context) {
		messageID, err := strconv.Atoi(c.Param("message_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
			return
		}

		msg, err := messageRepo.GetMessage(c.Request.Context(), messageID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, repositories.ErrMessageNotFound) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": "message not found"})
			return
		}
		c.JSON(http.StatusOK, msg)
	})
}
