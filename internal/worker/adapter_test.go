package worker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shownCall struct {
	Title string
	Opts  NotificationOptions
}

type fakePlatform struct {
	shown            []shownCall
	showErrs         []error // popped per ShowNotification call
	closed           int
	navigated        []NavigateClient
	navigateErr      error
	focused          []string
	opened           []string
	resubscribeKeys  []string
	resubscribeSub   string
	resubscribeErr   error
	registered       [][2]string // url, subscription
	logs             []string
	deletedCaches    []string
	skipWaitingCalls int
	claimCalls       int
}

func (f *fakePlatform) SkipWaiting() error  { f.skipWaitingCalls++; return nil }
func (f *fakePlatform) ClaimClients() error { f.claimCalls++; return nil }
func (f *fakePlatform) DeleteCache(name string) error {
	f.deletedCaches = append(f.deletedCaches, name)
	return nil
}
func (f *fakePlatform) ShowNotification(title string, opts NotificationOptions) error {
	f.shown = append(f.shown, shownCall{Title: title, Opts: opts})
	if len(f.showErrs) > 0 {
		err := f.showErrs[0]
		f.showErrs = f.showErrs[1:]
		return err
	}
	return nil
}
func (f *fakePlatform) CloseNotification() error { f.closed++; return nil }
func (f *fakePlatform) NavigateClient(clientID, url string) error {
	f.navigated = append(f.navigated, NavigateClient{ClientID: clientID, URL: url})
	return f.navigateErr
}
func (f *fakePlatform) FocusClient(clientID string) error {
	f.focused = append(f.focused, clientID)
	return nil
}
func (f *fakePlatform) OpenWindow(url string) error {
	f.opened = append(f.opened, url)
	return nil
}
func (f *fakePlatform) Resubscribe(key string) (string, error) {
	f.resubscribeKeys = append(f.resubscribeKeys, key)
	return f.resubscribeSub, f.resubscribeErr
}
func (f *fakePlatform) RegisterSubscription(url, subscription string) error {
	f.registered = append(f.registered, [2]string{url, subscription})
	return nil
}
func (f *fakePlatform) Log(message string) { f.logs = append(f.logs, message) }

func TestExecuteDisplayFallback(t *testing.T) {
	r := NewRuntime(grantedCaps(), testOrigin)
	p := &fakePlatform{showErrs: []error{errors.New("actions not supported")}}

	Execute(p, r.Push([]byte(`{"title":"Handoff ready","tag":"handoff-night"}`)))

	// Exactly one retry with the minimal option set and the fallback tag.
	require.Len(t, p.shown, 2)
	assert.Equal(t, "handoff-night", p.shown[0].Opts.Tag)
	assert.Equal(t, "carelink-fallback", p.shown[1].Opts.Tag)
	assert.Empty(t, p.shown[1].Opts.Actions)
}

func TestExecuteFallbackFailureOnlyLogs(t *testing.T) {
	r := NewRuntime(grantedCaps(), testOrigin)
	p := &fakePlatform{showErrs: []error{errors.New("no"), errors.New("still no")}}

	Execute(p, r.Push([]byte(`{"title":"t"}`)))

	require.Len(t, p.shown, 2)
	assert.NotEmpty(t, p.logs)
}

func TestExecuteNavigateFallsBackToFocus(t *testing.T) {
	r := NewRuntime(grantedCaps(), testOrigin)
	p := &fakePlatform{navigateErr: errors.New("navigation refused")}

	clients := []Client{{ID: "app", URL: testOrigin + "/patients"}}
	Execute(p, r.NotificationClick("", NotificationData{URL: "/issues/3"}, clients))

	assert.Equal(t, 1, p.closed)
	require.Len(t, p.navigated, 1)
	assert.Equal(t, []string{"app"}, p.focused)
	assert.Empty(t, p.opened)
}

func TestExecuteSubscriptionChangeChain(t *testing.T) {
	r := NewRuntime(grantedCaps(), testOrigin)
	p := &fakePlatform{resubscribeSub: `{"endpoint":"https://push.example/new"}`}

	Execute(p, r.SubscriptionChange("BOldKey"))

	assert.Equal(t, []string{"BOldKey"}, p.resubscribeKeys)
	require.Len(t, p.registered, 1)
	assert.Equal(t, RegisterPath, p.registered[0][0])
	assert.Equal(t, `{"endpoint":"https://push.example/new"}`, p.registered[0][1])
}

func TestExecuteResubscribeFailureSkipsRegistration(t *testing.T) {
	r := NewRuntime(grantedCaps(), testOrigin)
	p := &fakePlatform{resubscribeErr: errors.New("push service unavailable")}

	Execute(p, r.SubscriptionChange("BOldKey"))

	assert.Empty(t, p.registered)
	assert.NotEmpty(t, p.logs)
}

func TestExecuteActivateDeletesCaches(t *testing.T) {
	r := NewRuntime(grantedCaps(), testOrigin)
	p := &fakePlatform{}

	Execute(p, r.Activate([]string{"carelink-push-v1", "app-shell"}))

	assert.Equal(t, 1, p.claimCalls)
	assert.Equal(t, []string{"carelink-push-v1"}, p.deletedCaches)
}
