// Package notify dispatches one logical notification across every
// delivery channel the recipient has an active subscription or link on.
// Channels are independent: one recipient's failure is reported in the
// aggregate result and never aborts the rest of the batch. There is no
// retry queue; a failed delivery is simply not retried here.
package notify

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"coach-service/internal/models"
)

// Channel is one delivery mechanism (browser push, bot relay).
type Channel interface {
	Name() string
	Deliver(ctx context.Context, req models.DispatchRequest) models.DispatchResult
}

// Service fans a dispatch request out across its channels.
type Service struct {
	channels []Channel
}

// NewService constructs the fan-out service.
func NewService(channels ...Channel) *Service {
	return &Service{channels: channels}
}

// Dispatch attempts delivery on every channel and aggregates the
// outcome. It never fails as a whole: channel and recipient errors are
// collected into the result.
func (s *Service) Dispatch(ctx context.Context, req models.DispatchRequest) models.DispatchResult {
	ctx, span := otel.Tracer("coach-service/notify").Start(ctx, "notify.dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("notify.recipient", req.DestinatarioID))

	var result models.DispatchResult
	result.Errors = []string{}
	for _, ch := range s.channels {
		result.Merge(ch.Deliver(ctx, req))
	}

	if len(result.Errors) > 0 {
		log.Printf("notify dispatch recipient=%s sent=%d/%d errors=%d",
			req.DestinatarioID, result.Sent, result.Total, len(result.Errors))
	}
	return result
}
