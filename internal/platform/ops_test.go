package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sticky/internal/platform"
	"github.com/aretw0/sticky/pkg/adapters/fs"
	"github.com/aretw0/sticky/pkg/adapters/memory"
	"github.com/aretw0/sticky/pkg/adapters/redis"
	"github.com/aretw0/sticky/pkg/core"
)

func TestOpenStore_FS(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "sheets")

	store, err := platform.OpenStore(ctx, dir, platform.WithVersioning(false))
	require.NoError(t, err)

	fsStore, ok := store.(*fs.Store)
	require.True(t, ok)
	assert.Equal(t, dir, fsStore.Path)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	_, err = os.Stat(filepath.Join(dir, ".git"))
	assert.True(t, os.IsNotExist(err), "unversioned stores do not init git")
}

func TestOpenStore_FSMustExist(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	_, err := platform.OpenStore(context.Background(), dir,
		platform.WithAutoInit(false), platform.WithMustExist(true))
	assert.Error(t, err)
}

func TestOpenStore_Memory(t *testing.T) {
	store, err := platform.OpenStore(context.Background(), "", platform.WithAdapter("memory"))
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)
	assert.NoError(t, platform.CloseStore(store))
}

func TestOpenStore_Injected(t *testing.T) {
	injected := memory.NewStore()
	store, err := platform.OpenStore(context.Background(), "ignored",
		platform.WithAdapter("postgres"), platform.WithStore(injected))
	require.NoError(t, err)
	assert.Same(t, injected, store)
}

func TestOpenStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	store, err := platform.OpenStore(ctx, "redis://"+mr.Addr(), platform.WithAdapter("redis"))
	require.NoError(t, err)
	defer platform.CloseStore(store)
	assert.IsType(t, &redis.Store{}, store)

	require.NoError(t, store.Put(ctx, core.Record{ID: "s", Data: []byte(`{}`)}))
	assert.True(t, mr.Exists(redis.DefaultPrefix+"s"))
}

func TestOpenStore_ReadOnly(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	store, err := platform.OpenStore(ctx, "redis://"+mr.Addr(),
		platform.WithAdapter("redis"), platform.WithReadOnly(true))
	require.NoError(t, err)
	defer platform.CloseStore(store)

	assert.ErrorIs(t, store.Put(ctx, core.Record{ID: "s", Data: []byte(`{}`)}), core.ErrReadOnly)
	assert.ErrorIs(t, store.Clear(ctx), core.ErrReadOnly)
	_, ok, err := store.Get(ctx, "s")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenStore_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := platform.OpenStore(ctx, "x", platform.WithAdapter("s3"))
	assert.ErrorContains(t, err, "unknown adapter")

	_, err = platform.OpenStore(ctx, "", platform.WithAdapter("redis"))
	assert.ErrorContains(t, err, platform.EnvRedisURL)

	_, err = platform.OpenStore(ctx, "", platform.WithAdapter("postgres"))
	assert.ErrorContains(t, err, platform.EnvDatabaseURL)
}

func TestOpen_WiresBoard(t *testing.T) {
	ctx := context.Background()
	cfg := platform.DefaultConfig()
	cfg.Adapter = "memory"
	cfg.PersistDelay = 10 * time.Millisecond

	b, store, err := platform.Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Open(ctx, "wired"))
	_, err = b.AddNote(nil)
	require.NoError(t, err)
	require.NoError(t, b.Flush(ctx))

	rec, ok, err := store.Get(ctx, "wired")
	require.NoError(t, err)
	require.True(t, ok)
	notes, err := core.DecodeNotes(rec.Data)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestResolvePath(t *testing.T) {
	inTemp := filepath.Join(os.TempDir(), "sticky-test-dir")
	assert.Equal(t, inTemp, platform.ResolvePath(inTemp, true))
	assert.Equal(t, "relative", platform.ResolvePath("relative", false))
	assert.Equal(t, ".", platform.ResolvePath("", false))
	assert.Equal(t, filepath.Join(os.TempDir(), "sticky-dev", "default"), platform.ResolvePath("/", true))
}
