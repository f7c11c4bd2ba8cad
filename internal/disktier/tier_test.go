package disktier

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetGetInline(t *testing.T) {
	dir := t.TempDir()
	tier, err := Open(dir, WithAutoTrimInterval(0))
	require.NoError(t, err)
	defer tier.Close()

	small := []byte("hello world")
	require.NoError(t, tier.Set("a", small, nil))

	got, ok := tier.Get("a")
	require.True(t, ok)
	require.Equal(t, small, got)

	// Inline values never create a file under data/.
	entries, err := os.ReadDir(filepath.Join(dir, "data"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSetGetExternal(t *testing.T) {
	dir := t.TempDir()
	tier, err := Open(dir, WithAutoTrimInterval(0), WithInlineThreshold(16))
	require.NoError(t, err)
	defer tier.Close()

	big := make([]byte, 1024)
	for i := range big {
		big[i] = byte(i)
	}
	require.NoError(t, tier.Set("big", big, nil))

	got, ok := tier.Get("big")
	require.True(t, ok)
	require.Equal(t, big, got)

	wantFile := filenameFor("big")
	_, err = os.Stat(filepath.Join(dir, "data", wantFile))
	require.NoError(t, err, "expected external blob file named by key hash")
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	tier, err := Open(dir, WithAutoTrimInterval(0), WithInlineThreshold(4))
	require.NoError(t, err)
	defer tier.Close()

	require.NoError(t, tier.Set("x", []byte("0123456789"), nil))
	tier.Remove("x")

	require.False(t, tier.Contains("x"))
	_, ok := tier.Get("x")
	require.False(t, ok)
}

func TestRecoveryAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	tier, err := Open(dir, WithAutoTrimInterval(0))
	require.NoError(t, err)
	require.NoError(t, tier.Set("k", []byte("persisted"), nil))
	require.NoError(t, tier.Close())

	reopened, err := Open(dir, WithAutoTrimInterval(0))
	require.NoError(t, err)
	defer reopened.Close()

	got, ok := reopened.Get("k")
	require.True(t, ok)
	require.Equal(t, []byte("persisted"), got)
}

func TestOrphanFileRemovedAtStartup(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	orphan := filepath.Join(dir, "data", "deadbeefdeadbeef")
	require.NoError(t, os.WriteFile(orphan, []byte("nobody owns me"), 0o644))

	tier, err := Open(dir, WithAutoTrimInterval(0))
	require.NoError(t, err)
	defer tier.Close()

	_, err = os.Stat(orphan)
	require.True(t, os.IsNotExist(err), "expected orphan file removed at startup")
}

func TestMissingFileTreatedAsMissAndRowPurged(t *testing.T) {
	dir := t.TempDir()
	tier, err := Open(dir, WithAutoTrimInterval(0), WithInlineThreshold(4))
	require.NoError(t, err)
	defer tier.Close()

	require.NoError(t, tier.Set("x", []byte("0123456789"), nil))
	fn := filenameFor("x")
	require.NoError(t, os.Remove(filepath.Join(dir, "data", fn)))

	_, ok := tier.Get("x")
	require.False(t, ok)
	require.False(t, tier.Contains("x"))
}

func TestTrimToCount(t *testing.T) {
	dir := t.TempDir()
	tier, err := Open(dir, WithAutoTrimInterval(0))
	require.NoError(t, err)
	defer tier.Close()

	require.NoError(t, tier.Set("a", []byte("1"), nil))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, tier.Set("b", []byte("2"), nil))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, tier.Set("c", []byte("3"), nil))

	tier.TrimToCount(2)

	require.EqualValues(t, 2, tier.TotalCount())
	require.False(t, tier.Contains("a"))
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	tier, err := Open(dir, WithAutoTrimInterval(0), WithInlineThreshold(4))
	require.NoError(t, err)
	defer tier.Close()

	require.NoError(t, tier.Set("a", []byte("0123456789"), nil))
	require.NoError(t, tier.Set("b", []byte("x"), nil))
	tier.Clear()

	require.EqualValues(t, 0, tier.TotalCount())
	entries, _ := os.ReadDir(filepath.Join(dir, "data"))
	require.Empty(t, entries)
}

func TestAsyncGetSet(t *testing.T) {
	dir := t.TempDir()
	tier, err := Open(dir, WithAutoTrimInterval(0))
	require.NoError(t, err)
	defer tier.Close()

	setDone := make(chan error, 1)
	tier.SetAsync("k", []byte("v"), nil, func(err error) { setDone <- err })
	require.NoError(t, <-setDone)

	getDone := make(chan bool, 1)
	tier.GetAsync("k", func(data []byte, ok bool) {
		require.Equal(t, []byte("v"), data)
		getDone <- ok
	})
	require.True(t, <-getDone)
}
