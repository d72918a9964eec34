package notify

import (
	"context"
	"fmt"
	"strconv"

	"coach-service/internal/models"
	"coach-service/internal/observability"
	"coach-service/internal/repositories"
)

// RelaySender sends one message to a chat on the bot platform.
type RelaySender interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendAudio(ctx context.Context, chatID int64, url, caption string) error
	SendVideo(ctx context.Context, chatID int64, url, caption string) error
	SendDocument(ctx context.Context, chatID int64, url, caption string) error
}

// BotChannel relays notifications to users who linked their account to
// the bot platform.
type BotChannel struct {
	links  repositories.BotLinkRepository
	sender RelaySender
}

// NewBotChannel constructs the channel.
func NewBotChannel(links repositories.BotLinkRepository, sender RelaySender) *BotChannel {
	return &BotChannel{links: links, sender: sender}
}

func (b *BotChannel) Name() string { return "bot" }

// Deliver relays to one active link, or every active link for a
// broadcast, accumulating per-recipient errors without aborting.
func (b *BotChannel) Deliver(ctx context.Context, req models.DispatchRequest) models.DispatchResult {
	result := models.DispatchResult{Errors: []string{}}

	targets, errStr := b.resolve(ctx, req)
	if errStr != "" {
		result.Errors = append(result.Errors, errStr)
		return result
	}

	for _, link := range targets {
		result.Total++
		if err := b.send(ctx, link.ChatID, req); err != nil {
			observability.IncNotifyDelivery(b.Name(), "failed")
			result.Errors = append(result.Errors, fmt.Sprintf("bot user %d: %v", link.UserID, err))
			continue
		}
		observability.IncNotifyDelivery(b.Name(), "sent")
		result.Sent++
	}
	return result
}

func (b *BotChannel) send(ctx context.Context, chatID int64, req models.DispatchRequest) error {
	caption := req.DisplayTitle()
	if req.Body != "" {
		caption = caption + "\n\n" + req.Body
	}
	switch req.Type {
	case "audio":
		return b.sender.SendAudio(ctx, chatID, req.URL, caption)
	case "video":
		return b.sender.SendVideo(ctx, chatID, req.URL, caption)
	case "document":
		return b.sender.SendDocument(ctx, chatID, req.URL, caption)
	default:
		return b.sender.SendText(ctx, chatID, caption)
	}
}

func (b *BotChannel) resolve(ctx context.Context, req models.DispatchRequest) ([]models.BotLink, string) {
	if req.Broadcast() {
		links, err := b.links.ListActive(ctx)
		if err != nil {
			return nil, fmt.Sprintf("bot: list links: %v", err)
		}
		return links, ""
	}

	userID, err := strconv.Atoi(req.DestinatarioID)
	if err != nil {
		return nil, fmt.Sprintf("bot: invalid recipient %q", req.DestinatarioID)
	}
	link, err := b.links.GetActiveByUser(ctx, userID)
	if err != nil {
		if err == repositories.ErrBotLinkNotFound {
			return nil, ""
		}
		return nil, fmt.Sprintf("bot: load link: %v", err)
	}
	return []models.BotLink{link}, ""
}
