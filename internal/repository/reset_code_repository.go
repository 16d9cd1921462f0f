package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResetCodeRepository keeps password reset confirmation codes in Redis with a
// bounded lifetime. A code can be consumed exactly once.
type ResetCodeRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResetCodeRepository creates a new instance of ResetCodeRepository.
func NewResetCodeRepository(client *redis.Client, ttl time.Duration) *ResetCodeRepository {
	return &ResetCodeRepository{client: client, ttl: ttl}
}

func resetCodeKey(email string) string {
	return fmt.Sprintf("reset-code:%s", email)
}

// Store saves the code for the email, replacing any outstanding code.
func (r *ResetCodeRepository) Store(ctx context.Context, email, code string) error {
	if err := r.client.Set(ctx, resetCodeKey(email), code, r.ttl).Err(); err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}
	return nil
}

// Consume atomically fetches and removes the code for the email. Returns
// redis.Nil when no code is outstanding or it already expired.
func (r *ResetCodeRepository) Consume(ctx context.Context, email string) (string, error) {
	code, err := r.client.GetDel(ctx, resetCodeKey(email)).Result()
	if err != nil {
		return "", err
	}
	return code, nil
}
