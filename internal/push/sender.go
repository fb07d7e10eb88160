package push

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"carelink-go/internal/models"
	"carelink-go/internal/store"
)

const defaultTTL = 60 * 60 * 24 // seconds; a day-old care alert is still worth showing

// Transport performs one encrypted delivery. Swapped out in tests.
type Transport func(message []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)

// Store is the slice of the care store the sender needs.
type Store interface {
	store.SubscriptionStore
	store.PreferenceStore
}

// Result reports the outcome of one fan-out batch. Partial failure is never
// an error; callers log the counts and move on.
type Result struct {
	SuccessCount int              `json:"success_count"`
	FailCount    int              `json:"fail_count"`
	Details      []DeliveryDetail `json:"details,omitempty"`
}

// DeliveryDetail describes one per-subscription attempt, for the
// user-initiated test-send UI.
type DeliveryDetail struct {
	Endpoint   string `json:"endpoint"`
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
	Pruned     bool   `json:"pruned,omitempty"`
}

// Sender fans a payload out to every live device of every eligible user and
// prunes subscriptions the push service reports as gone.
type Sender struct {
	store     Store
	keys      VAPIDKeys
	transport Transport
}

func NewSender(s Store, keys VAPIDKeys) *Sender {
	return &Sender{
		store:     s,
		keys:      keys,
		transport: webpush.SendNotification,
	}
}

// PublicKey returns the application server key clients subscribe with.
func (s *Sender) PublicKey() string {
	return s.keys.Public
}

// SendToUsers delivers payload to every device of every user in userIDs.
// Users with no preferences row or push_enabled=false are skipped; a payload
// category the user opted out of is skipped too. Per-device failures never
// abort the rest of the batch.
func (s *Sender) SendToUsers(ctx context.Context, userIDs []int, payload models.PushPayload) Result {
	message, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal push payload: %v", err)
		return Result{}
	}

	var result Result
	for _, userID := range userIDs {
		prefs, err := s.store.GetPreferences(ctx, userID)
		if err != nil {
			if !errors.Is(err, store.ErrNoPreferences) {
				log.Printf("Failed to load preferences for user %d: %v", userID, err)
			}
			skippedTotal.Inc()
			continue
		}
		if !prefs.PushEnabled || !prefs.Allows(payload.Category) {
			skippedTotal.Inc()
			continue
		}

		subs, err := s.store.GetUserSubscriptions(ctx, userID)
		if err != nil {
			log.Printf("Failed to load subscriptions for user %d: %v", userID, err)
			continue
		}

		// No devices is a legitimate zero-delivery outcome.
		for _, sub := range subs {
			detail := s.deliver(ctx, sub, message)
			if detail.Success {
				result.SuccessCount++
			} else {
				result.FailCount++
			}
			result.Details = append(result.Details, detail)
		}
	}

	return result
}

// SendToSubscriptions delivers payload to an explicit subscription list,
// bypassing the preference gate. Used by the user-initiated test send.
func (s *Sender) SendToSubscriptions(ctx context.Context, subs []models.PushSubscription, payload models.PushPayload) Result {
	message, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal push payload: %v", err)
		return Result{}
	}

	var result Result
	for _, sub := range subs {
		detail := s.deliver(ctx, sub, message)
		if detail.Success {
			result.SuccessCount++
		} else {
			result.FailCount++
		}
		result.Details = append(result.Details, detail)
	}
	return result
}

func (s *Sender) deliver(ctx context.Context, sub models.PushSubscription, message []byte) DeliveryDetail {
	detail := DeliveryDetail{Endpoint: sub.Endpoint}

	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}

	resp, err := s.transport(message, target, &webpush.Options{
		Subscriber:      s.keys.Subscriber,
		VAPIDPublicKey:  s.keys.Public,
		VAPIDPrivateKey: s.keys.Private,
		TTL:             defaultTTL,
		Urgency:         webpush.UrgencyHigh,
	})
	if err != nil {
		// Transport-level failure: treat as transient, keep the row.
		log.Printf("Failed to send push to %s: %v", truncate(sub.Endpoint), err)
		failedTotal.Inc()
		detail.Error = err.Error()
		return detail
	}
	defer resp.Body.Close()

	detail.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		// The endpoint no longer exists; drop the row so dead
		// subscriptions don't accumulate.
		log.Printf("Removing stale subscription %s (status %d)", truncate(sub.Endpoint), resp.StatusCode)
		if err := s.store.DeleteSubscription(ctx, sub.ID); err != nil {
			log.Printf("Failed to delete subscription %d: %v", sub.ID, err)
		} else {
			detail.Pruned = true
			prunedTotal.Inc()
		}
		failedTotal.Inc()
		detail.Error = http.StatusText(resp.StatusCode)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		sentTotal.Inc()
		detail.Success = true
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("Unexpected status %d for %s: %s", resp.StatusCode, truncate(sub.Endpoint), body)
		failedTotal.Inc()
		detail.Error = http.StatusText(resp.StatusCode)
	}

	return detail
}

// TestPayload is the fixed diagnostic payload for the test-send endpoint.
func TestPayload() models.PushPayload {
	return models.PushPayload{
		Title:    "CareLink Test Notification",
		Body:     "Push notifications are working on this device",
		URL:      "/dashboard",
		Tag:      "carelink-test",
		Priority: models.PriorityNormal,
	}
}

func truncate(endpoint string) string {
	if len(endpoint) > 50 {
		return endpoint[:50]
	}
	return endpoint
}
