package worker

import "log"

// Platform is the thin adapter boundary the effects are executed against.
// The browser deployment implements it in the served worker script; tests
// implement it with fakes.
type Platform interface {
	SkipWaiting() error
	ClaimClients() error
	DeleteCache(name string) error
	ShowNotification(title string, opts NotificationOptions) error
	CloseNotification() error
	NavigateClient(clientID, url string) error
	FocusClient(clientID string) error
	OpenWindow(url string) error
	// Resubscribe returns the new serialized subscription object.
	Resubscribe(applicationServerKey string) (string, error)
	RegisterSubscription(url, subscription string) error
	Log(message string)
}

// Execute runs the effects in order. No platform failure propagates: a
// rejected full-option notification retries once with its fallback, a failed
// navigation degrades to focusing the window, and everything else is logged
// and dropped so the next event starts clean.
func Execute(p Platform, effects []Effect) {
	// Resubscribe output feeds the following RegisterSubscription.
	var pendingSubscription string
	var resubscribeFailed bool

	for _, effect := range effects {
		switch e := effect.(type) {
		case SkipWaiting:
			if err := p.SkipWaiting(); err != nil {
				p.Log("skipWaiting failed: " + err.Error())
			}
		case ClaimClients:
			if err := p.ClaimClients(); err != nil {
				p.Log("clients.claim failed: " + err.Error())
			}
		case DeleteCache:
			if err := p.DeleteCache(e.Name); err != nil {
				p.Log("cache delete failed for " + e.Name + ": " + err.Error())
			}
		case ShowNotification:
			if err := p.ShowNotification(e.Title, e.Options); err != nil {
				if e.Fallback == nil {
					p.Log("notification display failed: " + err.Error())
					continue
				}
				if err := p.ShowNotification(e.Fallback.Title, e.Fallback.Options); err != nil {
					p.Log("fallback notification display failed: " + err.Error())
				}
			}
		case CloseNotification:
			if err := p.CloseNotification(); err != nil {
				p.Log("notification close failed: " + err.Error())
			}
		case NavigateClient:
			if err := p.NavigateClient(e.ClientID, e.URL); err != nil {
				// Cross-origin navigation restrictions leave us with
				// focus as the best remaining outcome.
				if err := p.FocusClient(e.ClientID); err != nil {
					p.Log("client focus failed: " + err.Error())
				}
			}
		case OpenWindow:
			if err := p.OpenWindow(e.URL); err != nil {
				p.Log("window open failed: " + err.Error())
			}
		case Resubscribe:
			sub, err := p.Resubscribe(e.ApplicationServerKey)
			if err != nil {
				p.Log("resubscribe failed: " + err.Error())
				resubscribeFailed = true
				continue
			}
			pendingSubscription = sub
		case RegisterSubscription:
			if resubscribeFailed {
				continue
			}
			if err := p.RegisterSubscription(e.URL, pendingSubscription); err != nil {
				p.Log("subscription registration failed: " + err.Error())
			}
		case Log:
			p.Log(e.Message)
		default:
			log.Printf("unknown effect %T", effect)
		}
	}
}
