package store

import (
	"context"
	"database/sql"

	"carelink-go/internal/models"
)

// Push subscription methods
//
// Rows are immutable per endpoint: a rotated subscription carries a new
// endpoint and becomes a new row. The upsert only refreshes key material for
// a browser re-registering the same endpoint.

func (s *PostgresStore) SavePushSubscription(ctx context.Context, userID int, endpoint, p256dh, auth, subscriptionData string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO push_subscriptions (user_id, endpoint, p256dh_key, auth_key, subscription_data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 ON CONFLICT (endpoint) DO UPDATE
		 SET user_id = EXCLUDED.user_id,
		     p256dh_key = EXCLUDED.p256dh_key,
		     auth_key = EXCLUDED.auth_key,
		     subscription_data = EXCLUDED.subscription_data,
		     updated_at = NOW()`,
		userID, endpoint, p256dh, auth, subscriptionData,
	)
	return err
}

func (s *PostgresStore) GetUserSubscriptions(ctx context.Context, userID int) ([]models.PushSubscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, endpoint, p256dh_key, auth_key, subscription_data, created_at, updated_at
		 FROM push_subscriptions WHERE user_id = $1 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.PushSubscription
	for rows.Next() {
		var sub models.PushSubscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.P256dh, &sub.Auth, &sub.SubscriptionData, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			continue
		}
		subs = append(subs, sub)
	}

	return subs, nil
}

func (s *PostgresStore) DeleteSubscription(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE endpoint = $1`, endpoint)
	return err
}

// Notification preference methods

func (s *PostgresStore) GetPreferences(ctx context.Context, userID int) (models.NotificationPreferences, error) {
	var p models.NotificationPreferences
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, push_enabled, email_enabled, in_app_enabled, issue_updates, patient_updates, handoff_alerts, idg_reminders, messages
		 FROM notification_preferences WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.PushEnabled, &p.EmailEnabled, &p.InAppEnabled, &p.IssueUpdates, &p.PatientUpdates, &p.HandoffAlerts, &p.IDGReminders, &p.Messages)

	if err == sql.ErrNoRows {
		return models.NotificationPreferences{}, ErrNoPreferences
	}
	if err != nil {
		return models.NotificationPreferences{}, err
	}

	return p, nil
}

func (s *PostgresStore) SavePreferences(ctx context.Context, prefs models.NotificationPreferences) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notification_preferences (user_id, push_enabled, email_enabled, in_app_enabled, issue_updates, patient_updates, handoff_alerts, idg_reminders, messages, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		 ON CONFLICT (user_id) DO UPDATE
		 SET push_enabled = EXCLUDED.push_enabled,
		     email_enabled = EXCLUDED.email_enabled,
		     in_app_enabled = EXCLUDED.in_app_enabled,
		     issue_updates = EXCLUDED.issue_updates,
		     patient_updates = EXCLUDED.patient_updates,
		     handoff_alerts = EXCLUDED.handoff_alerts,
		     idg_reminders = EXCLUDED.idg_reminders,
		     messages = EXCLUDED.messages,
		     updated_at = NOW()`,
		prefs.UserID, prefs.PushEnabled, prefs.EmailEnabled, prefs.InAppEnabled,
		prefs.IssueUpdates, prefs.PatientUpdates, prefs.HandoffAlerts, prefs.IDGReminders, prefs.Messages,
	)
	return err
}
