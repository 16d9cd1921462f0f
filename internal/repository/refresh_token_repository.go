package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const refreshTokenKeyPrefix = "refresh-token:"

// RefreshTokenRepository keeps the opaque refresh tokens in Redis. The TTL
// bounds the token lifetime; Consume removes the token atomically so each
// one is redeemable exactly once.
type RefreshTokenRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRefreshTokenRepository constructs a RefreshTokenRepository instance.
func NewRefreshTokenRepository(client *redis.Client, ttl time.Duration) *RefreshTokenRepository {
	return &RefreshTokenRepository{client: client, ttl: ttl}
}

// Store maps the token to its owner for the configured lifetime.
func (r *RefreshTokenRepository) Store(ctx context.Context, token, userID string) error {
	if err := r.client.Set(ctx, refreshTokenKeyPrefix+token, userID, r.ttl).Err(); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// Consume removes the token and returns its owner. A missing or expired
// token surfaces as redis.Nil.
func (r *RefreshTokenRepository) Consume(ctx context.Context, token string) (string, error) {
	userID, err := r.client.GetDel(ctx, refreshTokenKeyPrefix+token).Result()
	if err != nil {
		return "", err
	}
	return userID, nil
}

// Revoke drops the token if it is still outstanding.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, refreshTokenKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
