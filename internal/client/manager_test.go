package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBrowser struct {
	serviceWorker bool
	pushManager   bool
	notifications bool

	permission        string
	requestedPerm     bool
	permissionOutcome string

	registeredScripts []string
	registerErr       error

	current      *Subscription
	subscribed   []string // application server keys passed to Subscribe
	subscribeErr error

	unsubscribed []string
}

func supportedBrowser() *fakeBrowser {
	return &fakeBrowser{
		serviceWorker:     true,
		pushManager:       true,
		notifications:     true,
		permission:        "default",
		permissionOutcome: "granted",
	}
}

func (f *fakeBrowser) HasServiceWorker() bool { return f.serviceWorker }
func (f *fakeBrowser) HasPushManager() bool   { return f.pushManager }
func (f *fakeBrowser) HasNotifications() bool { return f.notifications }

func (f *fakeBrowser) NotificationPermission() string { return f.permission }

func (f *fakeBrowser) RequestPermission() (string, error) {
	f.requestedPerm = true
	return f.permissionOutcome, nil
}

func (f *fakeBrowser) RegisterWorker(scriptURL string) error {
	f.registeredScripts = append(f.registeredScripts, scriptURL)
	return f.registerErr
}

func (f *fakeBrowser) CurrentSubscription() (*Subscription, error) { return f.current, nil }

func (f *fakeBrowser) Subscribe(key string) (Subscription, error) {
	f.subscribed = append(f.subscribed, key)
	if f.subscribeErr != nil {
		return Subscription{}, f.subscribeErr
	}
	sub := Subscription{Endpoint: "https://push.example/device"}
	f.current = &sub
	return sub, nil
}

func (f *fakeBrowser) Unsubscribe(sub *Subscription) error {
	f.unsubscribed = append(f.unsubscribed, sub.Endpoint)
	f.current = nil
	return nil
}

type fakeAPI struct {
	publicKey    string
	keyErr       error
	registered   []Subscription
	registerErr  error
	unregistered []string
}

func (f *fakeAPI) FetchPublicKey(ctx context.Context) (string, error) {
	return f.publicKey, f.keyErr
}

func (f *fakeAPI) Register(ctx context.Context, sub Subscription) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered = append(f.registered, sub)
	return nil
}

func (f *fakeAPI) Unregister(ctx context.Context, endpoint string) error {
	f.unregistered = append(f.unregistered, endpoint)
	return nil
}

func TestSubscribeHappyPath(t *testing.T) {
	browser := supportedBrowser()
	api := &fakeAPI{publicKey: "BServerKey"}

	err := NewManager(browser, api).Subscribe(context.Background())

	require.NoError(t, err)
	assert.True(t, browser.requestedPerm)
	assert.Equal(t, []string{WorkerScriptURL}, browser.registeredScripts)
	assert.Equal(t, []string{"BServerKey"}, browser.subscribed)
	require.Len(t, api.registered, 1)
	assert.Equal(t, "https://push.example/device", api.registered[0].Endpoint)
}

func TestSubscribeUnsupportedPlatform(t *testing.T) {
	browser := supportedBrowser()
	browser.pushManager = false
	api := &fakeAPI{publicKey: "BServerKey"}

	err := NewManager(browser, api).Subscribe(context.Background())

	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Empty(t, browser.registeredScripts)
}

func TestSubscribePermissionDeniedAbortsCleanly(t *testing.T) {
	browser := supportedBrowser()
	browser.permissionOutcome = "denied"
	api := &fakeAPI{publicKey: "BServerKey"}

	err := NewManager(browser, api).Subscribe(context.Background())

	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Empty(t, browser.registeredScripts)
	assert.Empty(t, browser.subscribed)
}

func TestSubscribeSkipsPromptWhenAlreadyGranted(t *testing.T) {
	browser := supportedBrowser()
	browser.permission = "granted"
	api := &fakeAPI{publicKey: "BServerKey"}

	err := NewManager(browser, api).Subscribe(context.Background())

	require.NoError(t, err)
	assert.False(t, browser.requestedPerm)
}

func TestSubscribeServerRegistrationFailureAborts(t *testing.T) {
	browser := supportedBrowser()
	api := &fakeAPI{publicKey: "BServerKey", registerErr: errors.New("503")}

	err := NewManager(browser, api).Subscribe(context.Background())

	require.Error(t, err)
	assert.Empty(t, api.registered)
}

func TestSubscribeRetryReusesPlatformSubscription(t *testing.T) {
	browser := supportedBrowser()
	api := &fakeAPI{publicKey: "BServerKey", registerErr: errors.New("503")}
	m := NewManager(browser, api)

	require.Error(t, m.Subscribe(context.Background()))
	require.Len(t, browser.subscribed, 1)

	// Retry after the server recovers: the existing platform subscription
	// is re-POSTed, not recreated.
	api.registerErr = nil
	require.NoError(t, m.Subscribe(context.Background()))
	assert.Len(t, browser.subscribed, 1)
	require.Len(t, api.registered, 1)
}

func TestSubscribeWorkerRegistrationFailureAborts(t *testing.T) {
	browser := supportedBrowser()
	browser.registerErr = errors.New("script 404")
	api := &fakeAPI{publicKey: "BServerKey"}

	err := NewManager(browser, api).Subscribe(context.Background())

	require.Error(t, err)
	assert.Empty(t, browser.subscribed)
}

func TestUnsubscribe(t *testing.T) {
	browser := supportedBrowser()
	browser.current = &Subscription{Endpoint: "https://push.example/device"}
	api := &fakeAPI{}

	err := NewManager(browser, api).Unsubscribe(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"https://push.example/device"}, browser.unsubscribed)
	assert.Equal(t, []string{"https://push.example/device"}, api.unregistered)
}

func TestUnsubscribeWithoutSubscriptionIsNoOp(t *testing.T) {
	browser := supportedBrowser()
	api := &fakeAPI{}

	err := NewManager(browser, api).Unsubscribe(context.Background())

	require.NoError(t, err)
	assert.Empty(t, browser.unsubscribed)
	assert.Empty(t, api.unregistered)
}
