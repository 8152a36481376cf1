package cache

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

// ErrLockTimeout is returned when a stock lock could not be acquired in time
var ErrLockTimeout = errors.New("stock lock: timed out waiting for lock")

// StockLocker serializes writers of the same stock keys
type StockLocker interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

// WaitObserver is told how long every Acquire call waited and whether it succeeded
type WaitObserver func(ctx context.Context, waited time.Duration, acquired bool)

// lockKeys sorts and de-duplicates keys so that every caller takes locks in the same order
func lockKeys(keys []string) []string {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}

type keyedLock struct {
	sem  chan struct{}
	refs int
}

// MemoryStockLocker is an in-process keyed mutex. It serializes writers inside one process only.
type MemoryStockLocker struct {
	mu          sync.Mutex
	locks       map[string]*keyedLock
	waitTimeout time.Duration
	observe     WaitObserver
}

// NewMemoryStockLocker creates a locker. A zero waitTimeout waits until ctx is done.
func NewMemoryStockLocker(waitTimeout time.Duration) *MemoryStockLocker {
	return &MemoryStockLocker{
		locks:       make(map[string]*keyedLock),
		waitTimeout: waitTimeout,
	}
}

// WithWaitObserver sets the observer of lock waits
func (l *MemoryStockLocker) WithWaitObserver(observe WaitObserver) *MemoryStockLocker {
	l.observe = observe
	return l
}

// Acquire takes every key in sorted order. On failure nothing stays held.
func (l *MemoryStockLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	start := time.Now()
	if l.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.waitTimeout)
		defer cancel()
	}

	keys = lockKeys(keys)
	held := make([]string, 0, len(keys))
	for _, key := range keys {
		entry := l.ref(key)
		select {
		case entry.sem <- struct{}{}:
			held = append(held, key)
		case <-ctx.Done():
			l.unref(key)
			l.release(held)
			l.report(ctx, start, false)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrLockTimeout
			}
			return nil, ctx.Err()
		}
	}
	l.report(ctx, start, true)

	var once sync.Once
	return func() { once.Do(func() { l.release(held) }) }, nil
}

func (l *MemoryStockLocker) report(ctx context.Context, start time.Time, acquired bool) {
	if l.observe != nil {
		l.observe(ctx, time.Since(start), acquired)
	}
}

func (l *MemoryStockLocker) ref(key string) *keyedLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &keyedLock{sem: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	return entry
}

func (l *MemoryStockLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := l.locks[key]
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *MemoryStockLocker) release(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		l.mu.Lock()
		entry := l.locks[keys[i]]
		l.mu.Unlock()
		<-entry.sem
		l.unref(keys[i])
	}
}

// Size returns the number of keys currently held or waited on
func (l *MemoryStockLocker) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

var (
	_ StockLocker = (*MemoryStockLocker)(nil)
	_ StockLocker = (*RedisStockLocker)(nil)
	_ StockLocker = (*observedLocker)(nil)
)
