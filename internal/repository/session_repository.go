package repository

import (
	"context"
	"fmt"
	"time"
)

// SessionRepository keeps the ids of sessions ended by logout until
// their tokens would have expired anyway.
type SessionRepository interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

type sessionRepository struct {
	redis *RedisDB
}

func NewSessionRepository(redis *RedisDB) SessionRepository {
	return &sessionRepository{redis: redis}
}

func (r *sessionRepository) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.redis.Client.Set(ctx, r.key(sessionID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (r *sessionRepository) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.redis.Client.Exists(ctx, r.key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return n > 0, nil
}

func (r *sessionRepository) key(sessionID string) string {
	return "session:revoked:" + sessionID
}
