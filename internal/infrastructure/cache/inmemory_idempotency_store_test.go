package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResponse() shared.StoredResponse {
	return shared.StoredResponse{
		Status:      201,
		ContentType: "application/json; charset=utf-8",
		Body:        []byte(`{"success":true,"data":{"reference":"OP042"}}`),
	}
}

func TestInMemoryIdempotencyStore_SaveAndLoad(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	t.Run("unknown key", func(t *testing.T) {
		resp, ok, err := store.Load(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, resp)
	})

	t.Run("stored response is replayed", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "key-1", sampleResponse(), time.Hour))

		resp, ok, err := store.Load(ctx, "key-1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, sampleResponse(), *resp)
	})

	t.Run("loaded body is a copy", func(t *testing.T) {
		resp, _, err := store.Load(ctx, "key-1")
		require.NoError(t, err)
		resp.Body[0] = 'X'

		again, _, err := store.Load(ctx, "key-1")
		require.NoError(t, err)
		assert.Equal(t, sampleResponse().Body, again.Body)
	})
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "short", sampleResponse(), time.Minute))
	require.NoError(t, store.Save(ctx, "long", sampleResponse(), 24*time.Hour))
	assert.Equal(t, 2, store.Size())

	now = now.Add(2 * time.Minute)

	_, ok, err := store.Load(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok, "expired response is not replayed")

	require.NoError(t, store.Save(ctx, "next", sampleResponse(), time.Hour))
	assert.Equal(t, 3, store.Size(), "no sweep before the interval elapsed")

	now = now.Add(sweepInterval)
	require.NoError(t, store.Save(ctx, "later", sampleResponse(), time.Hour))
	assert.Equal(t, 3, store.Size(), "short was swept")

	_, ok, err = store.Load(ctx, "long")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryIdempotencyStore_AcquireSerialisesKey(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	release, err := store.Acquire(ctx, "key", 20*time.Millisecond)
	require.NoError(t, err)

	_, err = store.Acquire(ctx, "key", 20*time.Millisecond)
	assert.ErrorIs(t, err, shared.ErrIdempotencyKeyBusy)

	// Other keys are independent
	other, err := store.Acquire(ctx, "other", 20*time.Millisecond)
	require.NoError(t, err)
	other()

	release()
	again, err := store.Acquire(ctx, "key", 20*time.Millisecond)
	require.NoError(t, err)
	again()
}

func TestInMemoryIdempotencyStore_ConcurrentRetriesApplyOnce(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	const retries = 20
	var applied atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < retries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := store.Acquire(ctx, "credit-1", 5*time.Second)
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			if _, ok, _ := store.Load(ctx, "credit-1"); ok {
				return
			}
			applied.Add(1)
			_ = store.Save(ctx, "credit-1", sampleResponse(), time.Hour)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), applied.Load())
	assert.Equal(t, 0, store.locker.Held())
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	require.NoError(t, store.Save(context.Background(), "key", sampleResponse(), time.Hour))

	assert.NoError(t, store.Close())
	assert.Zero(t, store.Size())
	assert.NoError(t, store.Close(), "closing twice is safe")
}
