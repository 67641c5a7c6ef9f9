package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
)

// ErrMissing is returned when a key does not exist or has expired.
var ErrMissing = errors.New("cache: key missing")

const (
	otpKeyPrefix   = "otp:"
	grantKeyPrefix = "otp:grant:"
)

// OTPStore keeps one-time codes and the password-change grants issued after
// a successful verification. Both expire on their own.
type OTPStore struct {
	pool Pool
}

// NewOTPStore creates an OTPStore on top of pool.
func NewOTPStore(pool Pool) *OTPStore {
	return &OTPStore{pool: pool}
}

// SaveCode stores the hashed code for username, replacing any earlier one.
func (s *OTPStore) SaveCode(ctx context.Context, username, codeHash string, ttl time.Duration) error {
	return s.set(ctx, otpKeyPrefix+username, codeHash, ttl)
}

// Code returns the stored hash for username.
func (s *OTPStore) Code(ctx context.Context, username string) (string, error) {
	return s.get(ctx, otpKeyPrefix+username)
}

// ConsumeCode deletes the code and reports whether this call removed it.
// Of two concurrent verifications only one sees true.
func (s *OTPStore) ConsumeCode(ctx context.Context, username string) (bool, error) {
	return s.take(ctx, otpKeyPrefix+username)
}

// Grant records that username verified a code recently.
func (s *OTPStore) Grant(ctx context.Context, username string, ttl time.Duration) error {
	return s.set(ctx, grantKeyPrefix+username, "1", ttl)
}

// ConsumeGrant deletes the grant and reports whether one existed.
func (s *OTPStore) ConsumeGrant(ctx context.Context, username string) (bool, error) {
	return s.take(ctx, grantKeyPrefix+username)
}

func (s *OTPStore) set(ctx context.Context, key, value string, ttl time.Duration) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get redis connection: %w", err)
	}
	defer conn.Close()

	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	if _, err := conn.Do("SET", key, value, "EX", seconds); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *OTPStore) get(ctx context.Context, key string) (string, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get redis connection: %w", err)
	}
	defer conn.Close()

	value, err := redis.String(conn.Do("GET", key))
	if errors.Is(err, redis.ErrNil) {
		return "", ErrMissing
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

// take deletes key and reports whether it existed, using the DEL reply count.
func (s *OTPStore) take(ctx context.Context, key string) (bool, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get redis connection: %w", err)
	}
	defer conn.Close()

	n, err := redis.Int(conn.Do("DEL", key))
	if err != nil {
		return false, fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return n > 0, nil
}
