package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"coach-service/internal/models"
	"coach-service/internal/observability"
	"coach-service/internal/repositories"
)

// WebPushSender delivers an encrypted payload to one subscription and
// returns the endpoint's HTTP status code.
type WebPushSender interface {
	Send(ctx context.Context, sub models.PushSubscription, payload []byte) (int, error)
}

// PushChannel is the browser push channel. A delivery status reporting
// the endpoint gone evicts the subscription row, which is the system's
// only self-healing mechanism against stale subscriptions.
type PushChannel struct {
	subs   repositories.PushSubscriptionRepository
	sender WebPushSender
	icon   string
	badge  string
}

// NewPushChannel constructs the channel.
func NewPushChannel(subs repositories.PushSubscriptionRepository, sender WebPushSender, icon, badge string) *PushChannel {
	return &PushChannel{subs: subs, sender: sender, icon: icon, badge: badge}
}

func (p *PushChannel) Name() string { return "push" }

// Deliver resolves the recipient's subscription (or all of them for a
// broadcast) and sends the payload to each, isolating failures.
func (p *PushChannel) Deliver(ctx context.Context, req models.DispatchRequest) models.DispatchResult {
	result := models.DispatchResult{Errors: []string{}}

	targets, errStr := p.resolve(ctx, req)
	if errStr != "" {
		result.Errors = append(result.Errors, errStr)
		return result
	}

	url := req.URL
	if url == "" {
		url = "/"
	}
	tag := req.URL
	if tag == "" {
		tag = "general"
	}
	payload, err := json.Marshal(models.PushPayload{
		Title: req.DisplayTitle(),
		Body:  req.Body,
		Icon:  p.icon,
		Badge: p.badge,
		URL:   url,
		Tag:   tag,
	})
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("push: encode payload: %v", err))
		return result
	}

	for _, sub := range targets {
		result.Total++
		status, err := p.sender.Send(ctx, sub, payload)
		switch {
		case err != nil:
			observability.IncNotifyDelivery(p.Name(), "failed")
			result.Errors = append(result.Errors, fmt.Sprintf("push user %d: %v", sub.UserID, err))
		case status == http.StatusNotFound || status == http.StatusGone:
			// Endpoint no longer exists: evict so future notifies skip it.
			if err := p.subs.Delete(ctx, sub.UserID); err != nil {
				log.Printf("push eviction failed user=%d: %v", sub.UserID, err)
			}
			observability.IncPushEviction()
			observability.IncNotifyDelivery(p.Name(), "evicted")
		case status >= http.StatusBadRequest:
			observability.IncNotifyDelivery(p.Name(), "failed")
			result.Errors = append(result.Errors, fmt.Sprintf("push user %d: endpoint status %d", sub.UserID, status))
		default:
			observability.IncNotifyDelivery(p.Name(), "sent")
			result.Sent++
		}
	}
	return result
}

func (p *PushChannel) resolve(ctx context.Context, req models.DispatchRequest) ([]models.PushSubscription, string) {
	if req.Broadcast() {
		subs, err := p.subs.ListAll(ctx)
		if err != nil {
			return nil, fmt.Sprintf("push: list subscriptions: %v", err)
		}
		return subs, ""
	}

	userID, err := strconv.Atoi(req.DestinatarioID)
	if err != nil {
		return nil, fmt.Sprintf("push: invalid recipient %q", req.DestinatarioID)
	}
	sub, err := p.subs.GetByUser(ctx, userID)
	if err != nil {
		if err == repositories.ErrSubscriptionNotFound {
			// No subscription is not an error: the user never enabled push.
			return nil, ""
		}
		return nil, fmt.Sprintf("push: load subscription: %v", err)
	}
	return []models.PushSubscription{sub}, ""
}
