package worker

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"carelink-go/internal/models"
)

const (
	// CachePrefix namespaces the worker's cache-storage entries. Activation
	// deletes everything under it; the worker does no request caching.
	CachePrefix = "carelink-push-"

	// DashboardURL is where a click lands when the notification carries no
	// deep link.
	DashboardURL = "/dashboard"

	// RegisterPath is the server's subscription registration endpoint.
	RegisterPath = "/api/push/subscribe"

	fallbackTag = "carelink-fallback"

	iconURL  = "/static/icons/icon-192.png"
	badgeURL = "/static/icons/badge-72.png"
)

// Client is one open browser window known to the platform, controlled by
// this worker or not.
type Client struct {
	ID  string
	URL string
}

// Runtime is the service worker's decision core: a single-threaded event
// handler map over (event, capabilities) producing effects. Handlers never
// fail; every degraded branch returns a Log effect instead, so one bad event
// cannot poison the next.
type Runtime struct {
	caps   PlatformCapabilities
	origin string
	now    func() time.Time
}

func NewRuntime(caps PlatformCapabilities, origin string) *Runtime {
	return &Runtime{caps: caps, origin: origin, now: time.Now}
}

// Install runs on the install event. Nothing here is allowed to fail the
// transition; a worker stuck uninstalled never receives a push.
func (r *Runtime) Install() []Effect {
	return []Effect{SkipWaiting{}}
}

// Activate claims open pages and clears every push-prefixed cache left by
// earlier worker versions. Both must settle before activation completes.
// Running it against an already-clean cache set is a no-op.
func (r *Runtime) Activate(cacheNames []string) []Effect {
	effects := []Effect{ClaimClients{}}
	for _, name := range cacheNames {
		if strings.HasPrefix(name, CachePrefix) {
			effects = append(effects, DeleteCache{Name: name})
		}
	}
	return effects
}

// Push handles one delivered push message. A malformed payload still
// surfaces a visible notification; only a missing permission suppresses it.
func (r *Runtime) Push(data []byte) []Effect {
	if r.caps.NotificationPermission != PermissionGranted {
		return []Effect{Log{Message: "push received without notification permission, dropping"}}
	}

	payload, parseLog := parsePayload(data)

	tag := payload.DisplayTag(r.now())
	opts := NotificationOptions{
		Body:               payload.DisplayBody(),
		Icon:               iconURL,
		Badge:              badgeURL,
		Tag:                tag,
		RequireInteraction: payload.IsUrgent(),
		// Care alerts must audibly alert even from a background tab.
		Silent: false,
		Data: NotificationData{
			URL:            payload.URL,
			IssueID:        payload.IssueID,
			NotificationID: payload.NotificationID,
			Timestamp:      r.now().UnixMilli(),
		},
	}
	if r.caps.SupportsVibration {
		if payload.IsUrgent() {
			opts.Vibrate = []int{200, 100, 200}
		} else {
			opts.Vibrate = []int{100}
		}
	}
	if r.caps.SupportsActions {
		opts.Actions = []NotificationAction{
			{Action: "view", Title: "View"},
			{Action: "dismiss", Title: "Dismiss"},
		}
	}

	show := ShowNotification{
		Title:   payload.DisplayTitle(),
		Options: opts,
		// Minimal, maximally-compatible retry for platforms that reject
		// the full option set.
		Fallback: &ShowNotification{
			Title: payload.DisplayTitle(),
			Options: NotificationOptions{
				Body: payload.DisplayBody(),
				Icon: iconURL,
				Tag:  fallbackTag,
			},
		},
	}

	effects := []Effect{}
	if parseLog != "" {
		effects = append(effects, Log{Message: parseLog})
	}
	return append(effects, show)
}

// parsePayload decodes the push data, falling back to raw text for
// diagnostics and then to a default payload. Never fails.
func parsePayload(data []byte) (models.PushPayload, string) {
	if len(data) == 0 {
		return models.PushPayload{}, "push event carried no data, using default payload"
	}

	var payload models.PushPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		raw := string(data)
		if len(raw) > 120 {
			raw = raw[:120]
		}
		return models.PushPayload{}, fmt.Sprintf("push payload is not valid JSON (%q), using default payload", raw)
	}
	return payload, ""
}

// NotificationClick closes the notification, short-circuits on dismiss, and
// otherwise reuses a single existing same-origin window, opening a new one
// only when none exists.
func (r *Runtime) NotificationClick(action string, data NotificationData, clients []Client) []Effect {
	effects := []Effect{CloseNotification{}}

	if action == "dismiss" {
		return effects
	}

	target := r.resolveURL(data.URL)

	for _, c := range clients {
		if r.sameOrigin(c.URL) {
			return append(effects, NavigateClient{ClientID: c.ID, URL: target})
		}
	}

	return append(effects, OpenWindow{URL: target})
}

// NotificationClose is an observability hook only.
func (r *Runtime) NotificationClose(tag string) []Effect {
	return []Effect{Log{Message: "notification closed: " + tag}}
}

// SubscriptionChange re-subscribes with the prior application server key and
// re-registers the result so the server's subscription row stays current. If
// the adapter's resubscribe fails it logs and stops; the next delivery
// attempt against the stale endpoint triggers server-side cleanup.
func (r *Runtime) SubscriptionChange(oldApplicationServerKey string) []Effect {
	return []Effect{
		Resubscribe{ApplicationServerKey: oldApplicationServerKey},
		RegisterSubscription{URL: RegisterPath},
	}
}

func (r *Runtime) resolveURL(path string) string {
	if path == "" {
		path = DashboardURL
	}
	base, err := url.Parse(r.origin)
	if err != nil {
		return path
	}
	ref, err := url.Parse(path)
	if err != nil {
		return r.origin + DashboardURL
	}
	return base.ResolveReference(ref).String()
}

func (r *Runtime) sameOrigin(rawURL string) bool {
	base, err := url.Parse(r.origin)
	if err != nil {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Scheme == base.Scheme && u.Host == base.Host
}
