package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"carelink-go/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	notificationTTL = 30 * 24 * time.Hour // 30 days
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(opts *redis.Options) *RedisStore {
	rdb := redis.NewClient(opts)
	return &RedisStore{client: rdb}
}

func feedKey(userID int) string {
	return fmt.Sprintf("feed:user:%d", userID)
}

func notificationKey(id int) string {
	return fmt.Sprintf("notification:%d", id)
}

func eventChannel(userID int) string {
	return fmt.Sprintf("notify:user:%d", userID)
}

func (s *RedisStore) AddNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	// Generate ID
	id, err := s.client.Incr(ctx, "notification:next_id").Result()
	if err != nil {
		return models.Notification{}, err
	}

	n.ID = int(id)
	n.CreatedAt = time.Now().UTC()

	data, err := json.Marshal(n)
	if err != nil {
		return models.Notification{}, err
	}

	key := notificationKey(n.ID)

	// Store notification with TTL
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, notificationTTL)

	// Add to the user's timeline sorted set (score = timestamp)
	pipe.ZAdd(ctx, feedKey(n.UserID), redis.Z{
		Score:  float64(n.CreatedAt.Unix()),
		Member: key,
	})
	pipe.Expire(ctx, feedKey(n.UserID), notificationTTL)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return models.Notification{}, err
	}

	// Publish event for SSE
	if err := s.client.Publish(ctx, eventChannel(n.UserID), data).Err(); err != nil {
		log.Println("Failed to publish event:", err)
	}

	return n, nil
}

func (s *RedisStore) GetNotifications(ctx context.Context, userID int) ([]models.Notification, error) {
	// Get notification keys from sorted set (newest first)
	keys, err := s.client.ZRevRange(ctx, feedKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	var notifications []models.Notification
	for _, key := range keys {
		val, err := s.client.Get(ctx, key).Result()
		if err == redis.Nil {
			// Notification expired, remove from sorted set
			s.client.ZRem(ctx, feedKey(userID), key)
			continue
		} else if err != nil {
			continue
		}

		var n models.Notification
		if err := json.Unmarshal([]byte(val), &n); err == nil {
			notifications = append(notifications, n)
		}
	}
	return notifications, nil
}

func (s *RedisStore) MarkRead(ctx context.Context, userID, notificationID int) error {
	key := notificationKey(notificationID)
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}

	var n models.Notification
	if err := json.Unmarshal([]byte(val), &n); err != nil {
		return err
	}
	if n.UserID != userID {
		return fmt.Errorf("notification %d does not belong to user %d", notificationID, userID)
	}
	n.Read = true

	data, err := json.Marshal(n)
	if err != nil {
		return err
	}

	// Preserve the remaining TTL
	return s.client.Set(ctx, key, data, redis.KeepTTL).Err()
}

func (s *RedisStore) ClearNotifications(ctx context.Context, userID int) error {
	keys, err := s.client.ZRange(ctx, feedKey(userID), 0, -1).Result()
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, feedKey(userID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Subscribe(ctx context.Context, userID int) *redis.PubSub {
	return s.client.Subscribe(ctx, eventChannel(userID))
}
