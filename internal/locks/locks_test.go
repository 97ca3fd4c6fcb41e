package locks

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exclusive(t *testing.T, l Locker) {
	t.Helper()
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "LineageBot")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), maxInside)
}

func TestLocalLocker_Exclusive(t *testing.T) {
	exclusive(t, NewLocalLocker())
}

func TestLocalLocker_ContextCancelled(t *testing.T) {
	l := NewLocalLocker()
	release, err := l.Acquire(context.Background(), "a")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "a")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// other names are independent
	r2, err := l.Acquire(context.Background(), "b")
	require.NoError(t, err)
	r2()
}

func TestRedisLocker_Exclusive(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})

	exclusive(t, NewRedisLocker(client, "test:lock:", 5*time.Second, 5*time.Second))
	require.False(t, m.Exists("test:lock:LineageBot"))
}

func TestRedisLocker_Timeout(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	l := NewRedisLocker(client, "", 5*time.Second, 50*time.Millisecond)

	release, err := l.Acquire(context.Background(), "x")
	require.NoError(t, err)

	_, err = l.Acquire(context.Background(), "x")
	require.ErrorIs(t, err, ErrLockTimeout)

	release()
	r2, err := l.Acquire(context.Background(), "x")
	require.NoError(t, err)
	r2()
}

func TestRedisLocker_ReleaseKeepsForeignLease(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	l := NewRedisLocker(client, "", time.Second, time.Second)

	release, err := l.Acquire(context.Background(), "x")
	require.NoError(t, err)

	// lease expires and another holder takes the key
	m.FastForward(2 * time.Second)
	require.NoError(t, m.Set("lock:x", "someone-else"))

	release()
	v, err := m.Get("lock:x")
	require.NoError(t, err)
	require.Equal(t, "someone-else", v)
}
