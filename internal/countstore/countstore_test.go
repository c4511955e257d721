package countstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-raidguard/internal/config"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestKey(t *testing.T) {
	assert.Equal(t, "rl:u1", Key(CategoryRateLimit, "u1"))
	assert.Equal(t, "anti_nuke:g1:u1", Key(CategoryAntiNuke, "g1", "u1"))
}

func TestMemStoreWindow(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	clock := newFakeClock()
	cs := NewMemStoreWithClock(clock.Now)

	key := Key(CategoryRateLimit, "u1")
	limit := config.Limit{Max: 2, WindowSec: 5}

	for i := int64(1); i <= 4; i++ {
		n, err := cs.Increment(ctx, key, limit.Window())
		assert.NoError(err)
		assert.Equal(i, n)
		assert.Equal(i > 2, limit.Exceeded(n))
		clock.Advance(time.Second)
	}

	// 4s elapsed; one more second ends the window started by the first call.
	clock.Advance(time.Second)
	n, err := cs.Get(ctx, key)
	assert.NoError(err)
	assert.Equal(int64(0), n)

	n, err = cs.Increment(ctx, key, limit.Window())
	assert.NoError(err)
	assert.Equal(int64(1), n)
}

func TestMemStoreExpiryNotExtended(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	clock := newFakeClock()
	cs := NewMemStoreWithClock(clock.Now)

	_, err := cs.Increment(ctx, "k", 3*time.Second)
	assert.NoError(err)
	clock.Advance(2 * time.Second)
	n, _ := cs.Increment(ctx, "k", 3*time.Second)
	assert.Equal(int64(2), n)

	// a later increment must not have pushed the expiry to t+5s
	clock.Advance(time.Second)
	n, _ = cs.Increment(ctx, "k", 3*time.Second)
	assert.Equal(int64(1), n)
}

func TestMemStoreSweep(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	cs := NewMemStoreWithClock(clock.Now)

	_, _ = cs.Increment(ctx, "short", time.Second)
	_, _ = cs.Increment(ctx, "long", time.Hour)
	assert.Equal(t, 2, cs.Len())

	clock.Advance(2 * time.Second)
	assert.Equal(t, 1, cs.Sweep())
	assert.Equal(t, 1, cs.Len())
	assert.NoError(t, cs.Close())
}

func TestMemStoreConcurrent(t *testing.T) {
	ctx := context.Background()
	cs := NewMemStore()
	cs.StartSweeper(time.Millisecond)
	defer cs.Close()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, err := cs.Increment(ctx, "burst:g1", time.Minute)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	n, err := cs.Get(ctx, "burst:g1")
	assert.NoError(t, err)
	assert.Equal(t, int64(400), n)
}

func TestMemStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemStore().Increment(ctx, "k", time.Second)
	assert.Error(t, err)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rs, err := NewRedisStore("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	t.Cleanup(func() { rs.Close() })
	return mr, rs
}

func TestRedisStoreWindow(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	mr, rs := newTestRedis(t)

	key := Key(CategoryAntiNuke, "g1", "u1")
	for i := int64(1); i <= 3; i++ {
		n, err := rs.Increment(ctx, key, time.Hour)
		assert.NoError(err)
		assert.Equal(i, n)
	}

	ttl := mr.TTL(redisCountPrefix + key)
	assert.True(ttl > 59*time.Minute && ttl <= time.Hour)

	mr.FastForward(30 * time.Minute)
	n, err := rs.Increment(ctx, key, time.Hour)
	assert.NoError(err)
	assert.Equal(int64(4), n)

	// the fourth increment did not reset the window
	ttl = mr.TTL(redisCountPrefix + key)
	assert.True(ttl <= 30*time.Minute)

	mr.FastForward(31 * time.Minute)
	n, err = rs.Get(ctx, key)
	assert.NoError(err)
	assert.Equal(int64(0), n)

	n, err = rs.Increment(ctx, key, time.Hour)
	assert.NoError(err)
	assert.Equal(int64(1), n)
}

func TestRedisStorePing(t *testing.T) {
	_, rs := newTestRedis(t)
	assert.NoError(t, rs.Ping(context.Background()))

	_ = rs.Client.Close()
	assert.Error(t, rs.Ping(context.Background()))
}

func TestRedisStoreFromClient(t *testing.T) {
	mr := miniredis.RunT(t)
	rs := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer rs.Close()

	n, err := rs.Increment(context.Background(), "spam:u1", 3*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.True(t, mr.Exists(redisCountPrefix+"spam:u1"))
}

func TestNewRedisStoreBadURL(t *testing.T) {
	_, err := NewRedisStore("not a url")
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	s, err := New(config.StoreConfig{Backend: config.StoreMemory, SweepIntervalSec: 1})
	require.NoError(t, err)
	assert.IsType(t, &MemStore{}, s)
	assert.NoError(t, s.Close())

	_, err = New(config.StoreConfig{Backend: "etcd"})
	assert.Error(t, err)
}
