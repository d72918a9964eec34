package telegram

import (
	"context"
	"log"
	"net/http"
	"strings"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/gin-gonic/gin"

	"coach-service/internal/repositories"
)

const (
	replyWelcome = "¡Hola! Soy el bot de notificaciones de tu coach.\n" +
		"Usa /vincular <email> para conectar tu cuenta y recibir avisos aquí."
	replyHelp = "Comandos disponibles:\n" +
		"/vincular <email> — conecta tu cuenta\n" +
		"/desvincular — desconecta tu cuenta\n" +
		"/help — muestra esta ayuda"
	replyLinked       = "✅ Cuenta vinculada. A partir de ahora recibirás tus notificaciones aquí."
	replyNotFound     = "❌ No se encontró ninguna cuenta con ese email."
	replyMissingEmail = "Indica tu email: /vincular tu@email.com"
	replyUnlinked     = "Cuenta desvinculada. Usa /vincular para volver a conectarla."
	replyNoLink       = "No tienes ninguna cuenta vinculada."
	replyUnknown      = "No entiendo ese comando. Usa /help para ver los disponibles."
)

// Responder sends command replies back to the chat. Satisfied by Client.
type Responder interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// WebhookHandler serves inbound bot platform updates. It always
// acknowledges with 200 so the platform never retry-storms the endpoint,
// even when a command fails internally.
type WebhookHandler struct {
	users     repositories.UserRepository
	links     repositories.BotLinkRepository
	responder Responder
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(users repositories.UserRepository, links repositories.BotLinkRepository, responder Responder) *WebhookHandler {
	return &WebhookHandler{users: users, links: links, responder: responder}
}

// Handle processes one update.
func (h *WebhookHandler) Handle(c *gin.Context) {
	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		log.Printf("telegram webhook: malformed update: %v", err)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	if update.Message != nil {
		h.handleMessage(c.Request.Context(), update.Message)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *WebhookHandler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	var reply string
	switch msg.Command() {
	case "start":
		reply = replyWelcome
	case "help":
		reply = replyHelp
	case "vincular":
		reply = h.link(ctx, chatID, strings.TrimSpace(msg.CommandArguments()))
	case "desvincular":
		reply = h.unlink(ctx, chatID)
	default:
		reply = replyUnknown
	}

	if err := h.responder.SendText(ctx, chatID, reply); err != nil {
		log.Printf("telegram webhook: reply failed chat=%d: %v", chatID, err)
	}
}

// link connects the sender's chat to the account owning the email.
func (h *WebhookHandler) link(ctx context.Context, chatID int64, email string) string {
	if email == "" {
		return replyMissingEmail
	}

	user, err := h.users.FindByEmail(ctx, email)
	if err != nil {
		if err != repositories.ErrUserNotFound {
			log.Printf("telegram webhook: lookup %q failed: %v", email, err)
		}
		return replyNotFound
	}

	if err := h.links.Link(ctx, user.ID, chatID); err != nil {
		log.Printf("telegram webhook: link user=%d chat=%d failed: %v", user.ID, chatID, err)
		return replyNotFound
	}
	return replyLinked
}

func (h *WebhookHandler) unlink(ctx context.Context, chatID int64) string {
	ok, err := h.links.DeactivateByChat(ctx, chatID)
	if err != nil {
		log.Printf("telegram webhook: unlink chat=%d failed: %v", chatID, err)
		return replyNoLink
	}
	if !ok {
		return replyNoLink
	}
	return replyUnlinked
}
