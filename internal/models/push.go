package models

import (
	"fmt"
	"time"
)

// Notification priorities. Urgent and critical keep the notification pinned
// on screen and use the long vibration pattern.
const (
	PriorityNormal   = "normal"
	PriorityUrgent   = "urgent"
	PriorityCritical = "critical"
)

// Notification categories, matched against per-category preference columns.
const (
	CategoryIssueUpdates   = "issue_updates"
	CategoryPatientUpdates = "patient_updates"
	CategoryHandoffAlerts  = "handoff_alerts"
	CategoryIDGReminders   = "idg_reminders"
	CategoryMessages       = "messages"
)

type PushSubscription struct {
	ID               int       `json:"id"`
	UserID           int       `json:"user_id"`
	Endpoint         string    `json:"endpoint"`
	P256dh           string    `json:"keys_p256dh"` // Mapped from keys.p256dh
	Auth             string    `json:"keys_auth"`   // Mapped from keys.auth
	SubscriptionData string    `json:"-"`           // Full serialized subscription object
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NotificationPreferences controls channel and category opt-in, one row per
// user. A missing row is treated the same as push_enabled=false.
type NotificationPreferences struct {
	UserID         int  `json:"user_id"`
	PushEnabled    bool `json:"push_enabled"`
	EmailEnabled   bool `json:"email_enabled"`
	InAppEnabled   bool `json:"in_app_enabled"`
	IssueUpdates   bool `json:"issue_updates"`
	PatientUpdates bool `json:"patient_updates"`
	HandoffAlerts  bool `json:"handoff_alerts"`
	IDGReminders   bool `json:"idg_reminders"`
	Messages       bool `json:"messages"`
}

// Allows reports whether the given category is opted in. An empty or unknown
// category is allowed; only an explicit opt-out suppresses it.
func (p NotificationPreferences) Allows(category string) bool {
	switch category {
	case CategoryIssueUpdates:
		return p.IssueUpdates
	case CategoryPatientUpdates:
		return p.PatientUpdates
	case CategoryHandoffAlerts:
		return p.HandoffAlerts
	case CategoryIDGReminders:
		return p.IDGReminders
	case CategoryMessages:
		return p.Messages
	default:
		return true
	}
}

// DefaultPreferences is what a user gets before touching settings: every
// channel and category on.
func DefaultPreferences(userID int) NotificationPreferences {
	return NotificationPreferences{
		UserID:         userID,
		PushEnabled:    true,
		EmailEnabled:   true,
		InAppEnabled:   true,
		IssueUpdates:   true,
		PatientUpdates: true,
		HandoffAlerts:  true,
		IDGReminders:   true,
		Messages:       true,
	}
}

// PushPayload is the transient value object delivered to the service worker.
// Not persisted.
type PushPayload struct {
	Title          string `json:"title"`
	Body           string `json:"body,omitempty"`
	Message        string `json:"message,omitempty"` // legacy alias for Body
	URL            string `json:"url,omitempty"`
	Tag            string `json:"tag,omitempty"`
	Priority       string `json:"priority,omitempty"`
	Category       string `json:"category,omitempty"`
	IssueID        int    `json:"issueId,omitempty"`
	NotificationID int    `json:"notificationId,omitempty"`
}

const defaultTitle = "Care Coordination Alert"

// DisplayTitle returns the payload title, or the generic fallback when the
// payload arrived empty or malformed.
func (p PushPayload) DisplayTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return defaultTitle
}

// DisplayBody resolves body, then the legacy message field, then a generic
// string. A malformed payload must still surface some visible text.
func (p PushPayload) DisplayBody() string {
	if p.Body != "" {
		return p.Body
	}
	if p.Message != "" {
		return p.Message
	}
	return "You have a new care coordination update"
}

// DisplayTag returns the grouping tag, or a timestamp-suffixed fallback so
// untagged notifications don't collapse into each other.
func (p PushPayload) DisplayTag(now time.Time) string {
	if p.Tag != "" {
		return p.Tag
	}
	return fmt.Sprintf("carelink-%d", now.UnixMilli())
}

// IsUrgent reports whether the priority pins the notification on screen.
func (p PushPayload) IsUrgent() bool {
	return p.Priority == PriorityUrgent || p.Priority == PriorityCritical
}
