package cache

import (
	"context"
	"sync"
	"time"

	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
)

const idempotencySweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps idempotency keys in process memory. Keys of
// every tenant share one map; callers prefix them with the tenant code.
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time

	done   chan struct{}
	closed sync.Once
	wg     sync.WaitGroup
}

// NewInMemoryIdempotencyStore creates a store that drops expired keys every five minutes
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		expires: make(map[string]time.Time),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(idempotencySweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.cleanup()
			}
		}
	}()
	return s
}

func (s *InMemoryIdempotencyStore) held(key string) bool {
	exp, ok := s.expires[key]
	return ok && s.now().Before(exp)
}

// MarkProcessed holds key for ttl. It reports false when key is already held.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.held(key) {
		return false, nil
	}
	s.expires[key] = s.now().Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held(key), nil
}

func (s *InMemoryIdempotencyStore) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.expires, key)
	s.mu.Unlock()
	return nil
}

// Close stops the sweeper. It may be called more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closed.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.expires {
		if !s.held(key) {
			delete(s.expires, key)
		}
	}
}

// Size returns how many keys are stored, expired ones included until the next sweep
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expires)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
