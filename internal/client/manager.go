// Package client implements the in-page side of the push lifecycle: it
// registers the service worker, obtains permission, creates or reuses the
// platform push subscription, and keeps the server's subscription row in
// sync. Platform and server are injected so the ordering and abort semantics
// are testable without a browser.
package client

import (
	"context"
	"errors"
	"fmt"
)

// WorkerScriptURL must be served from the origin root so the registration
// scope covers the entire app.
const WorkerScriptURL = "/sw.js"

// User-visible recoverable conditions, surfaced as messages rather than
// propagated as failures.
var (
	ErrUnsupported      = errors.New("push notifications are not supported in this browser")
	ErrPermissionDenied = errors.New("notification permission was denied")
)

// Subscription is the browser-issued push credential.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// Platform abstracts the browser APIs the manager drives.
type Platform interface {
	HasServiceWorker() bool
	HasPushManager() bool
	HasNotifications() bool
	NotificationPermission() string
	RequestPermission() (string, error)
	// RegisterWorker registers (or reuses) the worker registration and
	// returns only once it is active; subscribing against a not-yet-active
	// worker is invalid.
	RegisterWorker(scriptURL string) error
	CurrentSubscription() (*Subscription, error)
	Subscribe(applicationServerKey string) (Subscription, error)
	Unsubscribe(sub *Subscription) error
}

// API is the server side of the registration contract.
type API interface {
	FetchPublicKey(ctx context.Context) (string, error)
	Register(ctx context.Context, sub Subscription) error
	Unregister(ctx context.Context, endpoint string) error
}

type Manager struct {
	platform Platform
	api      API
}

func NewManager(platform Platform, api API) *Manager {
	return &Manager{platform: platform, api: api}
}

// Subscribe establishes a push subscription end to end. Any step's failure
// aborts the whole operation; if the final server registration fails the
// subscription is not established from the app's perspective, and re-invoking
// Subscribe reuses the existing platform subscription and re-POSTs it rather
// than creating a second one.
func (m *Manager) Subscribe(ctx context.Context) error {
	if !m.platform.HasServiceWorker() || !m.platform.HasPushManager() || !m.platform.HasNotifications() {
		return ErrUnsupported
	}

	if m.platform.NotificationPermission() != "granted" {
		perm, err := m.platform.RequestPermission()
		if err != nil {
			return fmt.Errorf("permission request failed: %w", err)
		}
		if perm != "granted" {
			return ErrPermissionDenied
		}
	}

	if err := m.platform.RegisterWorker(WorkerScriptURL); err != nil {
		return fmt.Errorf("service worker registration failed: %w", err)
	}

	key, err := m.api.FetchPublicKey(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch application server key: %w", err)
	}

	sub, err := m.platform.CurrentSubscription()
	if err != nil {
		return fmt.Errorf("failed to read existing subscription: %w", err)
	}
	if sub == nil {
		created, err := m.platform.Subscribe(key)
		if err != nil {
			return fmt.Errorf("push subscription failed: %w", err)
		}
		sub = &created
	}

	if err := m.api.Register(ctx, *sub); err != nil {
		return fmt.Errorf("failed to register subscription with server: %w", err)
	}

	return nil
}

// Unsubscribe tears the subscription down at the platform level and tells
// the server to delete the matching row. No existing subscription is a
// successful no-op.
func (m *Manager) Unsubscribe(ctx context.Context) error {
	sub, err := m.platform.CurrentSubscription()
	if err != nil {
		return fmt.Errorf("failed to read existing subscription: %w", err)
	}
	if sub == nil {
		return nil
	}

	if err := m.platform.Unsubscribe(sub); err != nil {
		return fmt.Errorf("platform unsubscribe failed: %w", err)
	}

	if err := m.api.Unregister(ctx, sub.Endpoint); err != nil {
		return fmt.Errorf("failed to unregister subscription with server: %w", err)
	}

	return nil
}
