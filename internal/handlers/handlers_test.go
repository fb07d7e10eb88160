package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carelink-go/internal/models"
	"carelink-go/internal/notify"
	"carelink-go/internal/push"
	"carelink-go/internal/store"
)

type fakeFeed struct {
	mu    sync.Mutex
	added []models.Notification
}

func (f *fakeFeed) AddNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = len(f.added) + 1
	f.added = append(f.added, n)
	return n, nil
}

func (f *fakeFeed) GetNotifications(ctx context.Context, userID int) ([]models.Notification, error) {
	return nil, nil
}
func (f *fakeFeed) MarkRead(ctx context.Context, userID, notificationID int) error { return nil }
func (f *fakeFeed) ClearNotifications(ctx context.Context, userID int) error       { return nil }
func (f *fakeFeed) Subscribe(ctx context.Context, userID int) *redis.PubSub        { return nil }

type fakePushStore struct {
	mu    sync.Mutex
	prefs map[int]models.NotificationPreferences
}

func (f *fakePushStore) GetPreferences(ctx context.Context, userID int) (models.NotificationPreferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.prefs[userID]
	if !ok {
		return models.NotificationPreferences{}, store.ErrNoPreferences
	}
	return p, nil
}

func (f *fakePushStore) SavePreferences(ctx context.Context, prefs models.NotificationPreferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefs[prefs.UserID] = prefs
	return nil
}

func (f *fakePushStore) SavePushSubscription(ctx context.Context, userID int, endpoint, p256dh, auth, data string) error {
	return nil
}

func (f *fakePushStore) GetUserSubscriptions(ctx context.Context, userID int) ([]models.PushSubscription, error) {
	return nil, nil
}

func (f *fakePushStore) DeleteSubscription(ctx context.Context, id int) error { return nil }

func (f *fakePushStore) DeleteSubscriptionByEndpoint(ctx context.Context, e string) error {
	return nil
}

func newEventTestHandler(t *testing.T) (*Handler, *fakeFeed) {
	t.Helper()

	feed := &fakeFeed{}
	pushStore := &fakePushStore{prefs: map[int]models.NotificationPreferences{
		1: models.DefaultPreferences(1),
		2: models.DefaultPreferences(2),
	}}
	sender := push.NewSender(pushStore, push.VAPIDKeys{Public: "pub", Private: "priv", Subscriber: "t@carelink.example"})
	composer := notify.NewComposer(feed, pushStore, sender)

	return &Handler{FeedStore: feed, Sender: sender, Composer: composer}, feed
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestGetVAPIDKeyHandler(t *testing.T) {
	h, _ := newEventTestHandler(t)

	w := httptest.NewRecorder()
	h.GetVAPIDKeyHandler(w, httptest.NewRequest(http.MethodGet, "/api/push/key", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pub", resp["publicKey"])
}

func TestCareEventHandlerWritesFeedAndAccepts(t *testing.T) {
	h, feed := newEventTestHandler(t)

	body, _ := json.Marshal(CareEvent{
		Type:       "handoff.submitted",
		Recipients: []int{1, 2},
		ShiftName:  "night",
		Author:     "R. Alvarez",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewReader(body))

	h.CareEventHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	feed.mu.Lock()
	defer feed.mu.Unlock()
	require.Len(t, feed.added, 2)
	assert.Equal(t, models.CategoryHandoffAlerts, feed.added[0].Category)
	assert.Equal(t, models.PriorityUrgent, feed.added[0].Priority)
	assert.Equal(t, "/dashboard/after-shift-reports", feed.added[0].URL)
}

func TestCareEventHandlerRejectsBadSignature(t *testing.T) {
	t.Setenv("EVENT_SECRET", "topsecret")
	h, feed := newEventTestHandler(t)

	body, _ := json.Marshal(CareEvent{Type: "idg.reminder", Recipients: []int{1}, MeetingTime: "09:00"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewReader(body))
	req.Header.Set("X-CareLink-Signature", "deadbeef")

	h.CareEventHandler(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, feed.added)
}

func TestCareEventHandlerAcceptsValidSignature(t *testing.T) {
	t.Setenv("EVENT_SECRET", "topsecret")
	h, feed := newEventTestHandler(t)

	body, _ := json.Marshal(CareEvent{Type: "idg.reminder", Recipients: []int{1}, MeetingTime: "09:00"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewReader(body))
	req.Header.Set("X-CareLink-Signature", signBody("topsecret", body))

	h.CareEventHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	feed.mu.Lock()
	defer feed.mu.Unlock()
	require.Len(t, feed.added, 1)
	assert.Equal(t, models.CategoryIDGReminders, feed.added[0].Category)
}

func TestCareEventHandlerRejectsUnknownType(t *testing.T) {
	h, _ := newEventTestHandler(t)

	body, _ := json.Marshal(CareEvent{Type: "patient.discharged", Recipients: []int{1}})
	w := httptest.NewRecorder()
	h.CareEventHandler(w, httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCareEventHandlerRequiresRecipients(t *testing.T) {
	h, _ := newEventTestHandler(t)

	body, _ := json.Marshal(CareEvent{Type: "issue.created"})
	w := httptest.NewRecorder()
	h.CareEventHandler(w, httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCareEventHandlerSkipsInAppOptOut(t *testing.T) {
	h, feed := newEventTestHandler(t)

	// Recipient 3 has no preferences row at all: nothing lands in the feed.
	body, _ := json.Marshal(CareEvent{Type: "message.received", Recipients: []int{3}, Sender: "A", Preview: "hi"})
	w := httptest.NewRecorder()
	h.CareEventHandler(w, httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, feed.added)
}

func TestSubscribePushHandlerRequiresSession(t *testing.T) {
	h, _ := newEventTestHandler(t)

	body := []byte(`{"endpoint":"https://push.example/x","keys":{"p256dh":"k","auth":"a"}}`)
	w := httptest.NewRecorder()
	h.SubscribePushHandler(w, httptest.NewRequest(http.MethodPost, "/api/push/subscribe", bytes.NewReader(body)))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
