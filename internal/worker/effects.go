package worker

// Effect is one platform operation the runtime wants performed. Handlers
// return effects as data; a thin adapter executes them. This keeps the
// defaulting, fallback and urgency logic testable without a browser.
type Effect interface {
	isEffect()
}

// SkipWaiting promotes a freshly installed worker immediately instead of
// waiting for every tab to close.
type SkipWaiting struct{}

// ClaimClients takes control of already-open pages without a reload.
type ClaimClients struct{}

// DeleteCache removes one cache-storage entry.
type DeleteCache struct {
	Name string
}

// ShowNotification displays an OS notification. If the platform rejects the
// full option set, the adapter retries once with Fallback and nothing else.
type ShowNotification struct {
	Title    string
	Options  NotificationOptions
	Fallback *ShowNotification
}

// CloseNotification closes the notification that raised the current event.
type CloseNotification struct{}

// NavigateClient navigates an existing window to URL and focuses it. If
// navigation fails the adapter falls back to focusing only.
type NavigateClient struct {
	ClientID string
	URL      string
}

// OpenWindow opens a brand-new window at URL.
type OpenWindow struct {
	URL string
}

// Resubscribe re-creates the push subscription with the given application
// server key after the platform invalidated the old one.
type Resubscribe struct {
	ApplicationServerKey string
}

// RegisterSubscription POSTs the subscription produced by the preceding
// Resubscribe effect to the server's registration endpoint.
type RegisterSubscription struct {
	URL string
}

// Log records a diagnostic line; the runtime's only observability channel.
type Log struct {
	Message string
}

func (SkipWaiting) isEffect()          {}
func (ClaimClients) isEffect()         {}
func (DeleteCache) isEffect()          {}
func (ShowNotification) isEffect()     {}
func (CloseNotification) isEffect()    {}
func (NavigateClient) isEffect()       {}
func (OpenWindow) isEffect()           {}
func (Resubscribe) isEffect()          {}
func (RegisterSubscription) isEffect() {}
func (Log) isEffect()                  {}

// NotificationOptions mirrors the platform notification option set.
type NotificationOptions struct {
	Body               string
	Icon               string
	Badge              string
	Tag                string
	RequireInteraction bool
	Silent             bool
	Vibrate            []int
	Actions            []NotificationAction
	Data               NotificationData
}

type NotificationAction struct {
	Action string
	Title  string
}

// NotificationData rides along with the notification and comes back on click.
type NotificationData struct {
	URL            string
	IssueID        int
	NotificationID int
	Timestamp      int64
}
