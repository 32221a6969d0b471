package projection

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentlover/platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_SetAndGet(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	err := store.Set(ctx, "k1", []byte("hello"), 0)
	require.NoError(t, err)

	val, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), val)
}

func TestInMemoryStore_KeyNotFound(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestInMemoryStore_Delete(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_ = store.Set(ctx, "k1", []byte("data"), 0)
	_ = store.Delete(ctx, "k1")

	_, err := store.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestInMemoryStore_TTLExpiry(t *testing.T) {
	store := NewInMemoryStore()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_ = store.Set(ctx, "k1", []byte("data"), time.Minute)
	_, err := store.Get(ctx, "k1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestInMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	in := []byte("abc")
	_ = store.Set(ctx, "k1", in, 0)
	in[0] = 'x'

	out, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	out[1] = 'y'

	again, _ := store.Get(ctx, "k1")
	assert.Equal(t, []byte("abc"), again)
}

func TestGetJSON_UndecodableIsMiss(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	_ = store.Set(ctx, "k1", []byte("{not json"), 0)

	var dest map[string]string
	assert.ErrorIs(t, GetJSON(ctx, store, "k1", &dest), ErrMiss)
}

func TestInMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set(ctx, "k", []byte("v"), time.Minute)
			_, _ = store.Get(ctx, "k")
			_ = store.Delete(ctx, "k")
		}()
	}
	wg.Wait()
}

func TestDirectoryProjection_RoundTrip(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	users := []domain.User{{ID: uuid.New(), Email: "a@example.com", UserType: domain.UserTypeCustomer}}
	err := PutDirectory(ctx, store, DirectoryProjection{Watermark: "3:2:100", Users: users}, time.Minute)
	require.NoError(t, err)

	got, err := GetDirectory(ctx, store, "3:2:100")
	require.NoError(t, err)
	assert.Equal(t, users[0].ID, got.Users[0].ID)
	assert.False(t, got.BuiltAt.IsZero())

	_, err = GetDirectory(ctx, store, "3:2:101")
	assert.ErrorIs(t, err, ErrMiss, "a different watermark never hits")
}

func TestDirectoryProjection_Invalidate(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_ = PutDirectory(ctx, store, DirectoryProjection{Watermark: "w1"}, time.Minute)
	require.NoError(t, InvalidateDirectory(ctx, store))

	_, err := GetDirectory(ctx, store, "w1")
	assert.ErrorIs(t, err, ErrMiss)

	assert.NoError(t, InvalidateDirectory(ctx, store), "invalidating an empty cache is fine")
}
