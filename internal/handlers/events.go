package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// CareEvent is the envelope the care-coordination layer (issues, patients,
// handoffs, IDG, messaging) posts to trigger notifications. The caller
// decides who is notified; composers decide the payload.
type CareEvent struct {
	Type        string `json:"type"`
	Recipients  []int  `json:"recipients"`
	IssueID     int    `json:"issue_id,omitempty"`
	PatientName string `json:"patient_name,omitempty"`
	Summary     string `json:"summary,omitempty"`
	ShiftName   string `json:"shift_name,omitempty"`
	Author      string `json:"author,omitempty"`
	MeetingTime string `json:"meeting_time,omitempty"`
	Sender      string `json:"sender,omitempty"`
	Preview     string `json:"preview,omitempty"`
}

// CareEventHandler is the seam between the record-keeping routes and the
// push pipeline. Dispatch is fire-and-forget: this endpoint acknowledges the
// event as soon as the composer accepted it, regardless of delivery outcome.
func (h *Handler) CareEventHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if !validateEventSignature(r) {
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var event CareEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if len(event.Recipients) == 0 {
		http.Error(w, "No recipients", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "issue.created":
		h.Composer.IssueCreated(event.Recipients, event.IssueID, event.PatientName, event.Summary)
	case "issue.escalated":
		h.Composer.IssueEscalated(event.Recipients, event.IssueID, event.PatientName, event.Summary)
	case "patient.updated":
		h.Composer.PatientUpdated(event.Recipients, event.PatientName, event.Summary)
	case "handoff.submitted":
		h.Composer.HandoffSubmitted(event.Recipients, event.ShiftName, event.Author)
	case "idg.reminder":
		h.Composer.IDGMeetingReminder(event.Recipients, event.MeetingTime)
	case "message.received":
		h.Composer.MessageReceived(event.Recipients, event.Sender, event.Preview)
	default:
		http.Error(w, "Unknown event type", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"accepted_at": time.Now().UTC().Format(time.RFC3339),
	})
}
