package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"carelink-go/internal/models"
)

// SSEHandler streams the current user's in-app notification feed over
// server-sent events, fed by the Redis pub/sub channel.
func (h *Handler) SSEHandler(w http.ResponseWriter, r *http.Request) {
	userID, _, _ := GetCurrentUser(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	pubsub := h.FeedStore.Subscribe(r.Context(), userID)
	defer pubsub.Close()

	ch := pubsub.Channel()

	fmt.Fprintf(w, "data: %s\n\n", "connected")
	flusher.Flush()

	for {
		select {
		case msg := <-ch:
			fmt.Fprintf(w, "data: %s\n\n", msg.Payload)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// GetNotificationsHandler returns the current user's feed, newest first.
func (h *Handler) GetNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, _, _ := GetCurrentUser(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	notifications, err := h.FeedStore.GetNotifications(r.Context(), userID)
	if err != nil {
		log.Println("Failed to get notifications:", err)
		http.Error(w, "Failed to get notifications", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// MarkReadHandler marks one feed item read: POST /api/notifications/{id}/read
func (h *Handler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, _, _ := GetCurrentUser(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/notifications/")
	idStr := strings.TrimSuffix(rest, "/read")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "Invalid notification id", http.StatusBadRequest)
		return
	}

	if err := h.FeedStore.MarkRead(r.Context(), userID, id); err != nil {
		log.Printf("Failed to mark notification %d read: %v", id, err)
		http.Error(w, "Failed to mark notification read", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ClearNotificationsHandler empties the current user's feed.
func (h *Handler) ClearNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, _, _ := GetCurrentUser(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.FeedStore.ClearNotifications(r.Context(), userID); err != nil {
		log.Println("Failed to clear notifications:", err)
		http.Error(w, "Failed to clear notifications", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GetPreferencesHandler returns the current user's notification preferences,
// falling back to the defaults when none were saved yet.
func (h *Handler) GetPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	userID, _, _ := GetCurrentUser(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	prefs, err := h.CareStore.GetPreferences(r.Context(), userID)
	if err != nil {
		prefs = models.DefaultPreferences(userID)
	}

	writeJSON(w, http.StatusOK, prefs)
}

// UpdatePreferencesHandler upserts the current user's preferences.
func (h *Handler) UpdatePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, _, _ := GetCurrentUser(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var prefs models.NotificationPreferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	prefs.UserID = userID

	if err := h.CareStore.SavePreferences(r.Context(), prefs); err != nil {
		log.Println("Failed to save preferences:", err)
		http.Error(w, "Failed to save preferences", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
