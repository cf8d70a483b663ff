package notify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "notifier:session:"
	sessionIndexKey  = "notifier:sessions"
)

// RedisSessionStore persists sessions in Redis so subscribers stay logged
// in across notifier restarts.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(subscriberID int64) string {
	return sessionKeyPrefix + strconv.FormatInt(subscriberID, 10)
}

func (s *RedisSessionStore) Get(ctx context.Context, subscriberID int64) (*Session, error) {
	fields, err := s.client.HGetAll(ctx, sessionKey(subscriberID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get session %d: %w", subscriberID, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return &Session{
		SubscriberID: subscriberID,
		AccessToken:  fields["access"],
		RefreshToken: fields["refresh"],
	}, nil
}

func (s *RedisSessionStore) Put(ctx context.Context, sess *Session) error {
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, sessionKey(sess.SubscriberID), map[string]any{
		"access":  sess.AccessToken,
		"refresh": sess.RefreshToken,
	})
	pipe.SAdd(ctx, sessionIndexKey, sess.SubscriberID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put session %d: %w", sess.SubscriberID, err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, subscriberID int64) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, sessionKey(subscriberID))
	pipe.SRem(ctx, sessionIndexKey, subscriberID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete session %d: %w", subscriberID, err)
	}
	return nil
}

func (s *RedisSessionStore) All(ctx context.Context) ([]*Session, error) {
	ids, err := s.client.SMembers(ctx, sessionIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list sessions: %w", err)
	}

	out := make([]*Session, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		sess, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if sess != nil {
			out = append(out, sess)
		}
	}
	return out, nil
}
