package store

import (
	"context"

	"carelink-go/internal/models"

	"github.com/redis/go-redis/v9"
)

// FeedStore handles the in-app notification feed (Redis)
type FeedStore interface {
	AddNotification(ctx context.Context, n models.Notification) (models.Notification, error)
	GetNotifications(ctx context.Context, userID int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID int) error
	ClearNotifications(ctx context.Context, userID int) error
	Subscribe(ctx context.Context, userID int) *redis.PubSub
}

// CareStore handles durable records (PostgreSQL)
type CareStore interface {
	// User methods
	CreateUser(ctx context.Context, username, fullName, password, role string) (models.User, error)
	GetUser(ctx context.Context, id int) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id int, username, fullName, role string) error
	DeleteUser(ctx context.Context, id int) error
	UpdateUserPassword(ctx context.Context, userID int, newPasswordHash string) error
	UpdateUser2FA(ctx context.Context, userID int, totpSecret string, enabled bool) error
	Disable2FA(ctx context.Context, userID int) error

	SubscriptionStore
	PreferenceStore
}

// SubscriptionStore is the contract the push sender and the registration
// endpoints share: one row per (user, device), endpoint as natural key.
type SubscriptionStore interface {
	SavePushSubscription(ctx context.Context, userID int, endpoint, p256dh, auth, subscriptionData string) error
	GetUserSubscriptions(ctx context.Context, userID int) ([]models.PushSubscription, error)
	DeleteSubscription(ctx context.Context, id int) error
	DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error
}

// PreferenceStore gates delivery per user.
type PreferenceStore interface {
	GetPreferences(ctx context.Context, userID int) (models.NotificationPreferences, error)
	SavePreferences(ctx context.Context, prefs models.NotificationPreferences) error
}
