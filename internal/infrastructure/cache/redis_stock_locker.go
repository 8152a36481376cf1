package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes a lock key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLockConfig configures a RedisStockLocker
type RedisLockConfig struct {
	KeyPrefix     string        // usually "lock:<tenant>:"
	TTL           time.Duration // expiry of each lock key
	WaitTimeout   time.Duration
	RetryInterval time.Duration
}

// LockClient is the part of a Redis client the locker needs
type LockClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

// RedisStockLocker serializes stock writers across processes with SET NX PX keys.
type RedisStockLocker struct {
	client  LockClient
	cfg     RedisLockConfig
	logger  *zap.Logger
	observe WaitObserver
}

// NewRedisStockLocker creates a locker on an existing client
func NewRedisStockLocker(client LockClient, cfg RedisLockConfig, logger *zap.Logger) *RedisStockLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 25 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStockLocker{client: client, cfg: cfg, logger: logger}
}

// WithWaitObserver sets the observer of lock waits
func (l *RedisStockLocker) WithWaitObserver(observe WaitObserver) *RedisStockLocker {
	l.observe = observe
	return l
}

// Acquire takes every key in sorted order, retrying until WaitTimeout or ctx is done.
func (l *RedisStockLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	start := time.Now()
	if l.cfg.WaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.WaitTimeout)
		defer cancel()
	}

	token := uuid.NewString()
	keys = lockKeys(keys)
	held := make([]string, 0, len(keys))
	for _, key := range keys {
		redisKey := l.cfg.KeyPrefix + key
		if err := l.acquireOne(ctx, redisKey, token); err != nil {
			l.release(held, token)
			l.report(ctx, start, false)
			return nil, err
		}
		held = append(held, redisKey)
	}
	l.report(ctx, start, true)

	var once sync.Once
	return func() { once.Do(func() { l.release(held, token) }) }, nil
}

func (l *RedisStockLocker) acquireOne(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(l.cfg.RetryInterval)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.cfg.TTL).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("stock lock %s: %w", key, err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrLockTimeout
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// release runs on a fresh context so that a cancelled request still frees its keys
func (l *RedisStockLocker) release(keys []string, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(keys) - 1; i >= 0; i-- {
		if err := releaseScript.Run(ctx, l.client, []string{keys[i]}, token).Err(); err != nil {
			l.logger.Warn("failed to release stock lock", zap.String("key", keys[i]), zap.Error(err))
		}
	}
}

func (l *RedisStockLocker) report(ctx context.Context, start time.Time, acquired bool) {
	if l.observe != nil {
		l.observe(ctx, time.Since(start), acquired)
	}
}
