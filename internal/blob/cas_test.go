package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCAS(t *testing.T) *LocalCAS {
	t.Helper()
	cas, err := NewLocalCAS(t.TempDir(), "http://localhost:8080/", nil, nil)
	require.NoError(t, err)
	return cas
}

func readAll(t *testing.T, cas *LocalCAS, locator string) string {
	t.Helper()
	rc, err := cas.Open(context.Background(), filepath.Base(locator))
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestPutOpen(t *testing.T) {
	cas := newTestCAS(t)
	ctx := context.Background()

	locator, err := cas.Put(ctx, strings.NewReader("meow"), "Cat.PNG")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(locator, "http://localhost:8080/static/"))
	assert.True(t, strings.HasSuffix(locator, ".png"))
	assert.Equal(t, "meow", readAll(t, cas, locator))
}

func TestPut_FirstUploadOwnsSingleRef(t *testing.T) {
	cas := newTestCAS(t)
	ctx := context.Background()

	locator, err := cas.Put(ctx, strings.NewReader("beach"), "beach.jpg")
	require.NoError(t, err)
	assert.Equal(t, 1, cas.Refs(locator))

	require.NoError(t, cas.Delete(ctx, locator))
	assert.Equal(t, 0, cas.Refs(locator))

	_, err = cas.Open(ctx, filepath.Base(locator))
	assert.True(t, IsNotFound(err))

	hash, ok := parseKey(filepath.Base(locator))
	require.True(t, ok)
	assert.NoFileExists(t, cas.chunkPath(hash))
	assert.NoFileExists(t, cas.refsPath(hash))
}

func TestPut_ChunkWithoutRefsFileCountsOneOwner(t *testing.T) {
	cas := newTestCAS(t)
	ctx := context.Background()

	locator, err := cas.Put(ctx, strings.NewReader("older"), "old.png")
	require.NoError(t, err)
	hash, ok := parseKey(filepath.Base(locator))
	require.True(t, ok)
	require.NoError(t, os.Remove(cas.refsPath(hash)))

	_, err = cas.Put(ctx, strings.NewReader("older"), "again.png")
	require.NoError(t, err)
	assert.Equal(t, 2, cas.Refs(locator))
}

func TestPut_IdenticalContentSharesChunk(t *testing.T) {
	cas := newTestCAS(t)
	ctx := context.Background()

	first, err := cas.Put(ctx, strings.NewReader("same bytes"), "a.jpg")
	require.NoError(t, err)
	second, err := cas.Put(ctx, strings.NewReader("same bytes"), "b.jpg")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, cas.Refs(first))

	// The first delete must not take the second item's content with it
	require.NoError(t, cas.Delete(ctx, first))
	assert.Equal(t, 1, cas.Refs(second))
	assert.Equal(t, "same bytes", readAll(t, cas, second))

	require.NoError(t, cas.Delete(ctx, second))
	assert.Equal(t, 0, cas.Refs(second))
	_, err = cas.Open(ctx, filepath.Base(second))
	assert.True(t, IsNotFound(err))
}

func TestDelete_UnknownLocatorIgnored(t *testing.T) {
	cas := newTestCAS(t)
	ctx := context.Background()

	assert.NoError(t, cas.Delete(ctx, "https://elsewhere.example/photo.png"))
	assert.NoError(t, cas.Delete(ctx, "http://localhost:8080/static/"+strings.Repeat("a", 64)+".png"))
}

func TestOpen_RejectsMalformedKeys(t *testing.T) {
	cas := newTestCAS(t)

	for _, key := range []string{"", "short", "../../etc/passwd", strings.Repeat("A", 64), strings.Repeat("a", 64) + "/x"} {
		_, err := cas.Open(context.Background(), key)
		assert.True(t, IsNotFound(err), "key %q", key)
	}
}

func TestChunkIsCompressedOnDisk(t *testing.T) {
	cas := newTestCAS(t)
	payload := strings.Repeat("abcdefgh", 4096)

	locator, err := cas.Put(context.Background(), strings.NewReader(payload), "big.gif")
	require.NoError(t, err)

	hash, ok := parseKey(filepath.Base(locator))
	require.True(t, ok)
	info, err := os.Stat(cas.chunkPath(hash))
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(len(payload)))
}
