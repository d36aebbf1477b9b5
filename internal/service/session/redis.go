package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/inkwell-apps/daily-reflection/internal/model/reflection"
)

const redisKeyPrefix = "reflect"

// RedisStore keeps sessions in Redis so the service can run more than one
// replica. Sessions live under "reflect:session:{id}" with the idle TTL
// applied natively; reflections live in a list next to their session and
// expire with it.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to the given address and verifies the connection.
func NewRedisStore(ctx context.Context, addr string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("%s:session:%s", redisKeyPrefix, sessionID)
}

func reflectionsKey(sessionID string) string {
	return fmt.Sprintf("%s:session:%s:reflections", redisKeyPrefix, sessionID)
}

// Create provisions a fresh unauthenticated session.
func (s *RedisStore) Create(ctx context.Context) (reflection.Session, error) {
	now := time.Now().UTC()
	sess := reflection.Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		LastSeenAt: now,
	}

	if err := s.write(ctx, sess); err != nil {
		return reflection.Session{}, err
	}
	return sess, nil
}

// Get retrieves a session by identifier.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (reflection.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return reflection.Session{}, ErrSessionNotFound
		}
		return reflection.Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	var sess reflection.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return reflection.Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return sess, nil
}

// Update overwrites the stored session state and refreshes its TTL.
func (s *RedisStore) Update(ctx context.Context, sess reflection.Session) error {
	exists, err := s.client.Exists(ctx, sessionKey(sess.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if exists == 0 {
		return ErrSessionNotFound
	}

	if err := s.write(ctx, sess); err != nil {
		return err
	}
	// Keep the reflections list on the same clock as its session.
	return s.client.Expire(ctx, reflectionsKey(sess.ID), s.ttl).Err()
}

// SaveReflection appends a reflection to its session's list.
func (s *RedisStore) SaveReflection(ctx context.Context, ref reflection.Reflection) (reflection.Reflection, error) {
	exists, err := s.client.Exists(ctx, sessionKey(ref.SessionID)).Result()
	if err != nil {
		return reflection.Reflection{}, fmt.Errorf("failed to check session: %w", err)
	}
	if exists == 0 {
		return reflection.Reflection{}, ErrSessionNotFound
	}

	ref.ID = uuid.NewString()
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(ref)
	if err != nil {
		return reflection.Reflection{}, fmt.Errorf("failed to encode reflection: %w", err)
	}

	key := reflectionsKey(ref.SessionID)
	if err := s.client.RPush(ctx, key, data).Err(); err != nil {
		return reflection.Reflection{}, fmt.Errorf("failed to store reflection: %w", err)
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return reflection.Reflection{}, fmt.Errorf("failed to expire reflection list: %w", err)
	}

	return ref, nil
}

// GetReflection returns one reflection scoped to its session.
func (s *RedisStore) GetReflection(ctx context.Context, sessionID, reflectionID string) (reflection.Reflection, error) {
	items, err := s.client.LRange(ctx, reflectionsKey(sessionID), 0, -1).Result()
	if err != nil {
		return reflection.Reflection{}, fmt.Errorf("failed to load reflections: %w", err)
	}

	for _, item := range items {
		var ref reflection.Reflection
		if err := json.Unmarshal([]byte(item), &ref); err != nil {
			return reflection.Reflection{}, fmt.Errorf("failed to decode reflection: %w", err)
		}
		if ref.ID == reflectionID {
			return ref, nil
		}
	}
	return reflection.Reflection{}, ErrReflectionNotFound
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) write(ctx context.Context, sess reflection.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}
