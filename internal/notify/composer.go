// Package notify holds the thin composers between business events and the
// push pipeline. A composer decides the payload; the caller decides the
// recipients; the sender decides nothing but delivery. Dispatch is
// fire-and-forget: the triggering operation must succeed even if every
// delivery fails.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"carelink-go/internal/models"
	"carelink-go/internal/push"
	"carelink-go/internal/store"
)

const dispatchTimeout = 30 * time.Second

type Composer struct {
	feed   store.FeedStore
	prefs  store.PreferenceStore
	sender *push.Sender
}

func NewComposer(feed store.FeedStore, prefs store.PreferenceStore, sender *push.Sender) *Composer {
	return &Composer{feed: feed, prefs: prefs, sender: sender}
}

func (c *Composer) IssueCreated(recipients []int, issueID int, patientName, summary string) {
	c.dispatch(recipients, models.PushPayload{
		Title:    "New issue: " + patientName,
		Body:     summary,
		URL:      fmt.Sprintf("/issues/%d", issueID),
		Tag:      fmt.Sprintf("issue-%d", issueID),
		Priority: models.PriorityNormal,
		Category: models.CategoryIssueUpdates,
		IssueID:  issueID,
	})
}

func (c *Composer) IssueEscalated(recipients []int, issueID int, patientName, summary string) {
	c.dispatch(recipients, models.PushPayload{
		Title:    "Issue escalated: " + patientName,
		Body:     summary,
		URL:      fmt.Sprintf("/issues/%d", issueID),
		Tag:      fmt.Sprintf("issue-%d", issueID),
		Priority: models.PriorityUrgent,
		Category: models.CategoryIssueUpdates,
		IssueID:  issueID,
	})
}

func (c *Composer) PatientUpdated(recipients []int, patientName, summary string) {
	c.dispatch(recipients, models.PushPayload{
		Title:    "Patient update: " + patientName,
		Body:     summary,
		URL:      "/patients",
		Priority: models.PriorityNormal,
		Category: models.CategoryPatientUpdates,
	})
}

func (c *Composer) HandoffSubmitted(recipients []int, shiftName, author string) {
	c.dispatch(recipients, models.PushPayload{
		Title:    "Shift handoff submitted",
		Body:     fmt.Sprintf("%s submitted the %s handoff", author, shiftName),
		URL:      "/dashboard/after-shift-reports",
		Tag:      "handoff-" + shiftName,
		Priority: models.PriorityUrgent,
		Category: models.CategoryHandoffAlerts,
	})
}

func (c *Composer) IDGMeetingReminder(recipients []int, meetingTime string) {
	c.dispatch(recipients, models.PushPayload{
		Title:    "IDG review meeting",
		Body:     "IDG meeting starts at " + meetingTime,
		URL:      "/idg",
		Tag:      "idg-reminder",
		Priority: models.PriorityNormal,
		Category: models.CategoryIDGReminders,
	})
}

func (c *Composer) MessageReceived(recipients []int, sender, preview string) {
	c.dispatch(recipients, models.PushPayload{
		Title:    "Message from " + sender,
		Body:     preview,
		URL:      "/messages",
		Priority: models.PriorityNormal,
		Category: models.CategoryMessages,
	})
}

// dispatch writes the in-app feed item synchronously (it is cheap and feeds
// the SSE stream), then hands the push fan-out to a goroutine whose outcome
// the caller never sees.
func (c *Composer) dispatch(recipients []int, payload models.PushPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	for _, userID := range recipients {
		prefs, err := c.prefs.GetPreferences(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNoPreferences) {
				continue
			}
			log.Printf("Failed to load preferences for user %d: %v", userID, err)
			continue
		}
		if !prefs.InAppEnabled || !prefs.Allows(payload.Category) {
			continue
		}

		n := models.Notification{
			UserID:   userID,
			Category: payload.Category,
			Priority: payload.Priority,
			Title:    payload.Title,
			Body:     payload.Body,
			URL:      payload.URL,
			IssueID:  payload.IssueID,
		}
		if _, err := c.feed.AddNotification(ctx, n); err != nil {
			log.Printf("Failed to add feed notification for user %d: %v", userID, err)
		}
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		result := c.sender.SendToUsers(ctx, recipients, payload)
		if result.FailCount > 0 {
			log.Printf("Push dispatch %q: %d sent, %d failed", payload.Tag, result.SuccessCount, result.FailCount)
		}
	}()
}
