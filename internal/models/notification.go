package models

import "time"

// Notification is one in-app feed item. The feed is ephemeral; the durable
// record is the underlying issue, handoff or message.
type Notification struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Category  string    `json:"category"`
	Priority  string    `json:"priority"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	URL       string    `json:"url,omitempty"`
	IssueID   int       `json:"issue_id,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
