package storage

import (
	"context"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	commonerrors "github.com/vnykmshr/powerlog/pkg/common/errors"
)

// RedisConfig holds configuration for RedisTarget.
type RedisConfig struct {
	// Client is the Redis client used for all operations. Required.
	// The target does not own the client; closing the target leaves it open.
	Client redis.UniversalClient

	// KeyPrefix is prepended to the session key. Default: "powerlog:".
	KeyPrefix string

	// OpTimeout bounds each Redis round trip. Default: 5 seconds.
	OpTimeout time.Duration
}

// DefaultRedisConfig returns a default Redis target configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		KeyPrefix: "powerlog:",
		OpTimeout: 5 * time.Second,
	}
}

// RedisTarget mirrors the appended byte stream into a Redis string using
// APPEND. Opening deletes the key, giving the same truncate semantics as the
// file target, so live consumers (dashboards, tailers) can GET or GETRANGE
// the key while a recording is in progress.
type RedisTarget struct {
	config RedisConfig
	key    string
	open   bool
}

// NewRedisTarget creates a RedisTarget using the given client and defaults.
func NewRedisTarget(client redis.UniversalClient) *RedisTarget {
	config := DefaultRedisConfig()
	config.Client = client
	return NewRedisTargetWithConfig(config)
}

// NewRedisTargetWithConfig creates a RedisTarget with the specified configuration.
func NewRedisTargetWithConfig(config RedisConfig) *RedisTarget {
	if config.KeyPrefix == "" {
		config.KeyPrefix = DefaultRedisConfig().KeyPrefix
	}
	if config.OpTimeout <= 0 {
		config.OpTimeout = DefaultRedisConfig().OpTimeout
	}
	return &RedisTarget{config: config}
}

// redisKey maps a session path to the Redis key holding its byte stream.
// Only the final path element is used so file and mirror targets driven by
// the same session path agree on a stable name.
func redisKey(prefix, path string) string {
	return prefix + filepath.Base(path)
}

// Open implements Target.Open. The session key is deleted so the mirror
// starts empty, matching the file target's truncate behavior.
func (t *RedisTarget) Open(path string) error {
	if t.open {
		return ErrAlreadyOpen
	}
	if t.config.Client == nil {
		return commonerrors.NewValidationError("storage", "Client", nil, "cannot be nil").
			WithHint("provide a redis.UniversalClient")
	}

	t.key = redisKey(t.config.KeyPrefix, path)

	ctx, cancel := t.opContext()
	defer cancel()

	if err := t.config.Client.Del(ctx, t.key).Err(); err != nil {
		return commonerrors.NewOperationError("storage", "Open", err).
			WithContext("key " + t.key)
	}

	t.open = true
	return nil
}

// Write implements Target.Write by appending to the session key.
func (t *RedisTarget) Write(p []byte) (int, error) {
	if !t.open {
		return 0, ErrNotOpen
	}

	ctx, cancel := t.opContext()
	defer cancel()

	if err := t.config.Client.Append(ctx, t.key, string(p)).Err(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Sync implements Target.Sync. Appended data already lives on the server;
// durability is governed by the server's persistence policy, so there is
// nothing to force here.
func (t *RedisTarget) Sync() error {
	if !t.open {
		return ErrNotOpen
	}
	return nil
}

// Close implements Target.Close. The client is left open for the caller.
func (t *RedisTarget) Close() error {
	t.open = false
	return nil
}

// Key returns the Redis key for the current session, or empty before Open.
func (t *RedisTarget) Key() string {
	return t.key
}

func (t *RedisTarget) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), t.config.OpTimeout)
}
