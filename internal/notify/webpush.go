package notify

import (
	"context"

	webpush "github.com/SherClockHolmes/webpush-go"

	"coach-service/internal/models"
)

// VAPIDSender signs and encrypts payloads for browser push endpoints.
type VAPIDSender struct {
	publicKey  string
	privateKey string
	subject    string
	ttl        int
}

// NewVAPIDSender constructs the production web push sender.
func NewVAPIDSender(publicKey, privateKey, subject string) *VAPIDSender {
	return &VAPIDSender{publicKey: publicKey, privateKey: privateKey, subject: subject, ttl: 60}
}

// Send delivers the payload and returns the endpoint's status code.
func (s *VAPIDSender) Send(ctx context.Context, sub models.PushSubscription, payload []byte) (int, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		TTL:             s.ttl,
		Subscriber:      s.subject,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
