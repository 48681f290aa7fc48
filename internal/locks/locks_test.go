package locks_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasklens/tasklens/internal/locks"
)

func TestKeyed_MutualExclusionPerKey(t *testing.T) {
	locker := locks.NewKeyed()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
	)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			release, err := locker.Lock(context.Background(), "channel:C123")
			require.NoError(t, err)
			defer release()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen, "never more than one holder per key")
}

func TestKeyed_IndependentKeysDoNotBlock(t *testing.T) {
	locker := locks.NewKeyed()

	releaseA, err := locker.Lock(context.Background(), "channel:C1")
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	releaseB, err := locker.Lock(ctx, "channel:C2")
	require.NoError(t, err, "a held key must not block other keys")
	releaseB()
}

func TestKeyed_CancelledContextWhileWaiting(t *testing.T) {
	locker := locks.NewKeyed()

	release, err := locker.Lock(context.Background(), "personal:U42")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, "personal:U42")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestKeyed_ReleaseHandsOverToWaiter(t *testing.T) {
	locker := locks.NewKeyed()

	release, err := locker.Lock(context.Background(), "channel:C1")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := locker.Lock(context.Background(), "channel:C1")
		if err == nil {
			close(acquired)
			second()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("lock acquired while still held")
	case <-time.After(10 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the released lock")
	}
}
