package loadstate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticFetch(content string) FetchFunc {
	return func(context.Context) (string, error) {
		return content, nil
	}
}

func TestStoreLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("first load fetches content", func(t *testing.T) {
		store := NewStore()
		res := store.Load(ctx, "my-skill", staticFetch("skill body text"), false)

		assert.Equal(t, StatusLoaded, res.Status)
		assert.Equal(t, "skill body text", res.Content)
		assert.Equal(t, len("skill body text")/4, res.TokenCount)
		assert.False(t, res.LoadedAt.IsZero())
		assert.True(t, store.IsLoaded("my-skill"))
	})

	t.Run("second load reports already loaded without fetching", func(t *testing.T) {
		store := NewStore()
		store.Load(ctx, "my-skill", staticFetch("original"), false)

		fetched := false
		res := store.Load(ctx, "my-skill", func(context.Context) (string, error) {
			fetched = true
			return "should not be read", nil
		}, false)

		assert.Equal(t, StatusAlreadyLoaded, res.Status)
		assert.Empty(t, res.Content)
		assert.Equal(t, len("original")/4, res.TokenCount)
		assert.False(t, res.LoadedAt.IsZero())
		assert.False(t, fetched)
	})

	t.Run("force reload re-fetches", func(t *testing.T) {
		store := NewStore()
		store.Load(ctx, "my-skill", staticFetch("old content"), false)

		res := store.Load(ctx, "my-skill", staticFetch("new content!"), true)
		assert.Equal(t, StatusLoaded, res.Status)
		assert.Equal(t, "new content!", res.Content)

		snap := store.Snapshot()
		assert.Equal(t, "new content!", snap["my-skill"].Content)
	})

	t.Run("failed fetch leaves state unchanged", func(t *testing.T) {
		store := NewStore()
		store.Load(ctx, "my-skill", staticFetch("good content"), false)

		res := store.Load(ctx, "my-skill", func(context.Context) (string, error) {
			return "", errors.New("disk exploded")
		}, true)

		assert.Equal(t, StatusError, res.Status)
		require.Error(t, res.Err)

		snap := store.Snapshot()
		assert.Equal(t, "good content", snap["my-skill"].Content)
	})
}

func TestStoreUnload(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.Load(ctx, "my-skill", staticFetch("12345678"), false)

	removed, freed := store.Unload("my-skill")
	assert.True(t, removed)
	assert.Equal(t, 2, freed)
	assert.False(t, store.IsLoaded("my-skill"))

	// Idempotent
	removed, freed = store.Unload("my-skill")
	assert.False(t, removed)
	assert.Zero(t, freed)
}

func TestStoreTotals(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.Load(ctx, "a", staticFetch("aaaaaaaa"), false)
	store.Load(ctx, "b", staticFetch("bbbb"), false)

	assert.Equal(t, 3, store.TotalTokens())
	assert.ElementsMatch(t, []string{"a", "b"}, store.LoadedNames())
}

func TestStorePrune(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.Load(ctx, "keep", staticFetch("keep"), false)
	store.Load(ctx, "drop-one", staticFetch("drop"), false)
	store.Load(ctx, "drop-two", staticFetch("drop"), false)

	removed := store.Prune(map[string]struct{}{"keep": {}})
	assert.ElementsMatch(t, []string{"drop-one", "drop-two"}, removed)
	assert.True(t, store.IsLoaded("keep"))
	assert.False(t, store.IsLoaded("drop-one"))
}

func TestStoreConcurrentLoadsSerializePerName(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	var fetches atomic.Int32
	fetch := func(context.Context) (string, error) {
		fetches.Add(1)
		return "content", nil
	}

	var wg sync.WaitGroup
	var loadedCount atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := store.Load(ctx, "contended", fetch, false)
			if res.Status == StatusLoaded {
				loadedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	// Exactly one goroutine wins the fetch; the rest see already_loaded
	assert.Equal(t, int32(1), fetches.Load())
	assert.Equal(t, int32(1), loadedCount.Load())
	assert.True(t, store.IsLoaded("contended"))
}
