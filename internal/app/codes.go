/**
 * @description
 * This file contains the Redis-backed verification code store. Codes are
 * 6-digit, emailed out-of-band, and consumed on successful verification so a
 * code can only be used once. Keeping them in Redis instead of process memory
 * means verification works across replicas.
 */

package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

// CodeStore issues and verifies short-lived verification codes.
type CodeStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCodeStore creates a code store backed by the given Redis client. ttl
// bounds how long an issued code remains valid.
func NewCodeStore(client *redis.Client, ttl time.Duration) *CodeStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CodeStore{client: client, ttl: ttl}
}

func codeKey(email string) string {
	return "otp:" + email
}

// Issue generates a fresh 6-digit code for the email, replacing any
// outstanding one, and returns it for delivery.
func (c *CodeStore) Issue(ctx context.Context, email string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())
	if err := c.client.Set(ctx, codeKey(email), code, c.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store code: %w", err)
	}
	return code, nil
}

// Verify checks the submitted code against the stored one and consumes it on
// a match. An expired, missing, or mismatched code returns ErrInvalidCode.
func (c *CodeStore) Verify(ctx context.Context, email, code string) error {
	if code == "" {
		return ErrInvalidCode
	}
	stored, err := c.client.Get(ctx, codeKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrInvalidCode
	}
	if err != nil {
		return fmt.Errorf("failed to load code: %w", err)
	}
	if stored != code {
		return ErrInvalidCode
	}
	return c.client.Del(ctx, codeKey(email)).Err()
}
