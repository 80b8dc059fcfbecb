package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Name    string `json:"name"`
	Balance int    `json:"balance"`
}

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func TestFetchJSONPopulatesAndServesFromCache(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	loads := 0
	loader := func(ctx context.Context) (any, error) {
		loads++
		return snapshot{Name: "primary", Balance: 42}, nil
	}

	var got snapshot
	require.NoError(t, store.FetchJSON(ctx, "snap:1", &got, time.Minute, loader))
	require.Equal(t, 42, got.Balance)
	require.Equal(t, 1, loads)

	var again snapshot
	require.NoError(t, store.FetchJSON(ctx, "snap:1", &again, time.Minute, loader))
	require.Equal(t, got, again)
	require.Equal(t, 1, loads)
}

func TestFetchJSONPropagatesLoaderError(t *testing.T) {
	store, _ := newTestStore(t)

	boom := errors.New("store down")
	var got snapshot
	err := store.FetchJSON(context.Background(), "snap:1", &got, time.Minute, func(ctx context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestFetchJSONHonorsTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	loads := 0
	loader := func(ctx context.Context) (any, error) {
		loads++
		return snapshot{Balance: loads}, nil
	}

	var got snapshot
	require.NoError(t, store.FetchJSON(ctx, "snap:1", &got, time.Minute, loader))
	mr.FastForward(2 * time.Minute)
	require.NoError(t, store.FetchJSON(ctx, "snap:1", &got, time.Minute, loader))
	require.Equal(t, 2, loads)
}

func TestBytesMissAndRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Bytes(ctx, "export:1")
	require.ErrorIs(t, err, ErrMiss)

	require.NoError(t, store.SetBytes(ctx, "export:1", []byte("csv,data"), time.Minute))
	payload, err := store.Bytes(ctx, "export:1")
	require.NoError(t, err)
	require.Equal(t, []byte("csv,data"), payload)
}

func TestDeleteByPrefix(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetBytes(ctx, "transactions:a:1", []byte("x"), 0))
	require.NoError(t, store.SetBytes(ctx, "transactions:a:2", []byte("y"), 0))
	require.NoError(t, store.SetBytes(ctx, "transactions:b:1", []byte("z"), 0))

	require.NoError(t, store.DeleteByPrefix(ctx, "transactions:a:"))

	require.False(t, mr.Exists("transactions:a:1"))
	require.False(t, mr.Exists("transactions:a:2"))
	require.True(t, mr.Exists("transactions:b:1"))
}

func TestNilStoreDegradesToLoader(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	var got snapshot
	require.NoError(t, store.FetchJSON(ctx, "snap:1", &got, time.Minute, func(ctx context.Context) (any, error) {
		return snapshot{Balance: 7}, nil
	}))
	require.Equal(t, 7, got.Balance)

	_, err := store.Bytes(ctx, "export:1")
	require.ErrorIs(t, err, ErrMiss)
	require.NoError(t, store.SetBytes(ctx, "export:1", []byte("x"), time.Minute))
	require.NoError(t, store.Delete(ctx, "snap:1"))
	require.NoError(t, store.DeleteByPrefix(ctx, "transactions:"))
}
