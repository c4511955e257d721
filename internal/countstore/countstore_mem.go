package countstore

import (
	"context"
	"sync"
	"time"
)

type memCounter struct {
	count     int64
	expiresAt time.Time
}

// MemStore keeps counters in process memory. It is the default backend for a
// single instance deployment.
type MemStore struct {
	mu       sync.Mutex
	counters map[string]*memCounter
	now      func() time.Time

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return NewMemStoreWithClock(time.Now)
}

// NewMemStoreWithClock is used by tests to control window expiry.
func NewMemStoreWithClock(now func() time.Time) *MemStore {
	return &MemStore{
		counters: make(map[string]*memCounter),
		now:      now,
		stop:     make(chan struct{}),
	}
}

func (s *MemStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || !now.Before(c.expiresAt) {
		c = &memCounter{expiresAt: now.Add(window)}
		s.counters[key] = c
	}
	c.count++
	return c.count, nil
}

func (s *MemStore) Get(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || !now.Before(c.expiresAt) {
		return 0, nil
	}
	return c.count, nil
}

func (s *MemStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len returns the number of live keys, including expired ones not yet swept.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}

// Sweep drops expired counters and returns how many were removed.
func (s *MemStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, c := range s.counters {
		if !now.Before(c.expiresAt) {
			delete(s.counters, k)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until Close.
func (s *MemStore) StartSweeper(interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

func (s *MemStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
	return nil
}
