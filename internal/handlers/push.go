package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"carelink-go/internal/push"
)

// GetVAPIDKeyHandler returns the public application server key. The key must
// stay stable for the lifetime of every issued subscription.
func (h *Handler) GetVAPIDKeyHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"publicKey": h.Sender.PublicKey(),
	})
}

// SubscribePushHandler saves a push subscription for the current user. The
// server upserts by endpoint, so a browser re-registering the same endpoint
// refreshes its key material instead of duplicating the row.
func (h *Handler) SubscribePushHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, _, _ := GetCurrentUser(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Keep the raw body: the full serialized subscription object is stored
	// alongside the parsed fields.
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	var req struct {
		Endpoint string `json:"endpoint"`
		Keys     struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	}
	if err := json.Unmarshal(raw, &req); err != nil || req.Endpoint == "" {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.CareStore.SavePushSubscription(r.Context(), userID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth, string(raw)); err != nil {
		log.Printf("Failed to save subscription: %v", err)
		http.Error(w, "Failed to save subscription", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// UnsubscribePushHandler deletes the subscription row matching the endpoint.
func (h *Handler) UnsubscribePushHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, _, _ := GetCurrentUser(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Endpoint == "" {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.CareStore.DeleteSubscriptionByEndpoint(r.Context(), req.Endpoint); err != nil {
		log.Printf("Failed to delete subscription: %v", err)
		http.Error(w, "Failed to delete subscription", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// TestPushHandler sends a fixed diagnostic payload to the current user's own
// devices. It deliberately bypasses the preference gate: the user asked for
// it. Per-subscription detail goes back for UI display.
func (h *Handler) TestPushHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, _, _ := GetCurrentUser(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	subs, err := h.CareStore.GetUserSubscriptions(r.Context(), userID)
	if err != nil {
		log.Printf("Failed to get subscriptions: %v", err)
		http.Error(w, "Failed to get subscriptions", http.StatusInternalServerError)
		return
	}
	if len(subs) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "No push subscriptions registered for this account",
		})
		return
	}

	result := h.Sender.SendToSubscriptions(r.Context(), subs, push.TestPayload())

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       result.FailCount == 0,
		"success_count": result.SuccessCount,
		"fail_count":    result.FailCount,
		"details":       result.Details,
	})
}
