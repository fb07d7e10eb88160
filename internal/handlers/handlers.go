package handlers

import (
	"encoding/json"
	"net/http"

	"carelink-go/internal/notify"
	"carelink-go/internal/push"
	"carelink-go/internal/store"
)

type Handler struct {
	FeedStore store.FeedStore
	CareStore store.CareStore
	Sender    *push.Sender
	Composer  *notify.Composer
}

func NewHandler(feed store.FeedStore, care store.CareStore, sender *push.Sender, composer *notify.Composer) *Handler {
	return &Handler{
		FeedStore: feed,
		CareStore: care,
		Sender:    sender,
		Composer:  composer,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
