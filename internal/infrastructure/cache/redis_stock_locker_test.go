package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLockClient keeps keys in a map and evaluates the release script natively
type fakeLockClient struct {
	mu   sync.Mutex
	keys map[string]string
}

func newFakeLockClient() *fakeLockClient {
	return &fakeLockClient{keys: make(map[string]string)}
}

func (f *fakeLockClient) SetNX(ctx context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewBoolCmd(ctx)
	if _, exists := f.keys[key]; exists {
		cmd.SetVal(false)
		return cmd
	}
	f.keys[key] = value.(string)
	cmd.SetVal(true)
	return cmd
}

func (f *fakeLockClient) release(ctx context.Context, keys []string, args []any) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewCmd(ctx)
	if f.keys[keys[0]] == args[0].(string) {
		delete(f.keys, keys[0])
		cmd.SetVal(int64(1))
		return cmd
	}
	cmd.SetVal(int64(0))
	return cmd
}

func (f *fakeLockClient) Eval(ctx context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	return f.release(ctx, keys, args)
}

func (f *fakeLockClient) EvalSha(ctx context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	return f.release(ctx, keys, args)
}

func (f *fakeLockClient) EvalRO(ctx context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	return f.release(ctx, keys, args)
}

func (f *fakeLockClient) EvalShaRO(ctx context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	return f.release(ctx, keys, args)
}

func (f *fakeLockClient) ScriptExists(ctx context.Context, _ ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceCmd(ctx)
}

func (f *fakeLockClient) ScriptLoad(ctx context.Context, _ string) *redis.StringCmd {
	return redis.NewStringCmd(ctx)
}

func (f *fakeLockClient) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

func TestRedisStockLocker(t *testing.T) {
	client := newFakeLockClient()
	locker := NewRedisStockLocker(client, RedisLockConfig{
		KeyPrefix:     "cafe:lock:downtown:",
		WaitTimeout:   30 * time.Millisecond,
		RetryInterval: 5 * time.Millisecond,
	}, nil)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "material:milk:central", "material:flour:central")
	require.NoError(t, err)
	assert.Equal(t, 2, client.size())
	assert.Contains(t, client.keys, "cafe:lock:downtown:material:milk:central")

	_, err = locker.Acquire(ctx, "material:milk:central")
	assert.ErrorIs(t, err, ErrLockTimeout)

	release()
	assert.Zero(t, client.size())

	again, err := locker.Acquire(ctx, "material:milk:central")
	require.NoError(t, err)
	again()
}

func TestRedisStockLocker_ReleaseKeepsForeignToken(t *testing.T) {
	client := newFakeLockClient()
	locker := NewRedisStockLocker(client, RedisLockConfig{KeyPrefix: "p:"}, nil)

	release, err := locker.Acquire(context.Background(), "k")
	require.NoError(t, err)

	// The key expired and another process took it
	client.keys["p:k"] = "someone-else"
	release()

	assert.Equal(t, "someone-else", client.keys["p:k"])
}

func TestRedisStockLocker_WaitsForRelease(t *testing.T) {
	client := newFakeLockClient()
	locker := NewRedisStockLocker(client, RedisLockConfig{
		WaitTimeout:   time.Second,
		RetryInterval: 2 * time.Millisecond,
	}, nil)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "k")
	require.NoError(t, err)
	go func() {
		time.Sleep(10 * time.Millisecond)
		release()
	}()

	second, err := locker.Acquire(ctx, "k")
	require.NoError(t, err)
	second()
}
