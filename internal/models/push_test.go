package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPreferencesAllows(t *testing.T) {
	prefs := DefaultPreferences(1)
	prefs.HandoffAlerts = false

	assert.False(t, prefs.Allows(CategoryHandoffAlerts))
	assert.True(t, prefs.Allows(CategoryIssueUpdates))
	// Unknown or empty categories are not suppressed.
	assert.True(t, prefs.Allows(""))
	assert.True(t, prefs.Allows("something_new"))
}

func TestPayloadDisplayDefaults(t *testing.T) {
	var p PushPayload
	assert.Equal(t, "Care Coordination Alert", p.DisplayTitle())
	assert.Equal(t, "You have a new care coordination update", p.DisplayBody())

	p = PushPayload{Message: "legacy body"}
	assert.Equal(t, "legacy body", p.DisplayBody())

	p = PushPayload{Body: "body wins", Message: "legacy"}
	assert.Equal(t, "body wins", p.DisplayBody())
}

func TestPayloadDisplayTag(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	assert.Equal(t, "issue-4", PushPayload{Tag: "issue-4"}.DisplayTag(now))
	assert.Equal(t, "carelink-1700000000000", PushPayload{}.DisplayTag(now))
}

func TestPayloadIsUrgent(t *testing.T) {
	assert.True(t, PushPayload{Priority: PriorityUrgent}.IsUrgent())
	assert.True(t, PushPayload{Priority: PriorityCritical}.IsUrgent())
	assert.False(t, PushPayload{Priority: PriorityNormal}.IsUrgent())
	assert.False(t, PushPayload{}.IsUrgent())
}
