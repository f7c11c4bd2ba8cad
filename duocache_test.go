package duocache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duocache/duocache/internal/disktier"
	"github.com/duocache/duocache/internal/memtier"
)

func stringCodec() Codec {
	return Codec{
		Encode: func(v any) ([]byte, error) {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("duocache test codec: not a string: %T", v)
			}
			return []byte(s), nil
		},
		Decode: func(b []byte) (any, error) {
			return string(b), nil
		},
	}
}

func openTestCache(t *testing.T, opts ...Option) *Cache {
	t.Helper()
	dir := t.TempDir()
	opts = append([]Option{
		WithDiskOptions(disktier.WithAutoTrimInterval(0)),
		WithMemoryOptions(memtier.WithAutoTrimInterval(0)),
	}, opts...)
	c, err := OpenPath(dir, stringCodec(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSetGetRoundTrip(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.Set("a", "hello", 5))
	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, "hello", v)
}

func TestWriteThroughBothTiers(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.Set("a", "hello", 5))
	require.True(t, c.mem.Contains("a"))
	require.True(t, c.disk.Contains("a"))
}

func TestPromotionFromDiskOnMemoryMiss(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.Set("a", "hello", 5))
	c.mem.Clear()
	require.False(t, c.mem.Contains("a"))

	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, "hello", v)
	require.True(t, c.mem.Contains("a"), "expected disk hit to promote into memory")
}

func TestRemoveClearsBothTiers(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.Set("x", "v", 1))
	c.Remove("x")

	require.False(t, c.Contains("x"))
	require.False(t, c.mem.Contains("x"))
	require.False(t, c.disk.Contains("x"))
}

func TestSetNilIsRemove(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.Set("x", "v", 1))
	require.NoError(t, c.Set("x", nil, 1))

	require.False(t, c.Contains("x"))
}

func TestLowMemorySignalRepopulatesFromDisk(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.Set("k", "v1", 1))
	c.OnLowMemory()
	require.False(t, c.mem.Contains("k"))

	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "v1", v)
}

func TestAsyncRoundTrip(t *testing.T) {
	c := openTestCache(t)

	setDone := make(chan error, 1)
	c.SetAsync("a", "hello", 1, func(err error) { setDone <- err })
	require.NoError(t, <-setDone)

	getDone := make(chan any, 1)
	c.GetAsync("a", func(v any, err error) {
		require.NoError(t, err)
		getDone <- v
	})
	require.Equal(t, "hello", <-getDone)
}

func TestAsyncGetMissingDeliversSentinel(t *testing.T) {
	c := openTestCache(t)

	done := make(chan error, 1)
	c.GetAsync("nope", func(v any, err error) { done <- err })
	require.ErrorIs(t, <-done, ErrNotFound)
}
