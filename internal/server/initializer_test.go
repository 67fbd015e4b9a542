package server

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/noot-app/fct-api/internal/config"
	"github.com/noot-app/fct-api/internal/dataset"
	"github.com/noot-app/fct-api/internal/fixture"
	"github.com/noot-app/fct-api/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInitializer(t *testing.T, dir string) (*ServerInitializer, *query.Engine) {
	t.Helper()
	logger := config.NewTestLogger(io.Discard, "debug")
	cfg := &config.Config{
		DataDir:      dir,
		MetadataPath: filepath.Join(t.TempDir(), "metadata.json"),
		Environment:  "development",
	}
	engine := query.NewEngine(query.DefaultLimits, logger)
	return NewServerInitializer(cfg, engine, logger), engine
}

func TestInitializer_Initialize(t *testing.T) {
	si, engine := newTestInitializer(t, fixture.WriteDir(t))

	require.NoError(t, si.Initialize(context.Background()))

	idx, err := engine.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, len(fixture.Foods()), idx.Len())
	assert.NotEmpty(t, idx.Fingerprint())

	meta, err := dataset.LoadMetadata(si.config.MetadataPath)
	require.NoError(t, err)
	assert.Equal(t, idx.Fingerprint(), meta.SHA256)
	assert.Equal(t, len(fixture.Foods()), meta.Foods)
	assert.Equal(t, 5, meta.Nutrients)
}

func TestInitializer_InitializeFailure(t *testing.T) {
	si, engine := newTestInitializer(t, filepath.Join(t.TempDir(), "missing"))

	err := si.Initialize(context.Background())
	require.Error(t, err)

	var loadErr *dataset.LoadError
	assert.ErrorAs(t, err, &loadErr)

	_, err = engine.Snapshot()
	assert.ErrorIs(t, err, query.ErrNotReady)
}

func TestInitializer_Reload(t *testing.T) {
	dir := fixture.WriteDir(t)
	si, engine := newTestInitializer(t, dir)
	ctx := context.Background()
	require.NoError(t, si.Initialize(ctx))

	first, err := engine.Snapshot()
	require.NoError(t, err)

	t.Run("unchanged directory is skipped", func(t *testing.T) {
		reloaded, err := si.Reload(ctx, "test")
		require.NoError(t, err)
		assert.False(t, reloaded)

		current, err := engine.Snapshot()
		require.NoError(t, err)
		assert.Same(t, first, current)
	})

	t.Run("changed directory installs a new snapshot", func(t *testing.T) {
		foods := fixture.Foods()[:3]
		require.NoError(t, os.RemoveAll(filepath.Join(dir, dataset.FoodsDir)))
		fixture.WriteFoods(t, dir, foods, fixture.Taxonomy())

		reloaded, err := si.Reload(ctx, "test")
		require.NoError(t, err)
		assert.True(t, reloaded)

		current, err := engine.Snapshot()
		require.NoError(t, err)
		assert.Equal(t, 3, current.Len())
		assert.NotEqual(t, first.Fingerprint(), current.Fingerprint())
	})

	t.Run("broken directory keeps the current snapshot", func(t *testing.T) {
		before, err := engine.Snapshot()
		require.NoError(t, err)

		fixture.WriteJSON(t, filepath.Join(dir, dataset.FoodsDir, "A001.json"), map[string]any{"id": "WRONG"})

		reloaded, err := si.Reload(ctx, "test")
		require.Error(t, err)
		assert.False(t, reloaded)
		assert.ErrorIs(t, err, dataset.ErrIDMismatch)

		current, err := engine.Snapshot()
		require.NoError(t, err)
		assert.Same(t, before, current)
	})
}

func TestInitializer_ConcurrentReloads(t *testing.T) {
	dir := fixture.WriteDir(t)
	si, engine := newTestInitializer(t, dir)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = si.Reload(ctx, "test")
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}

	idx, err := engine.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, len(fixture.Foods()), idx.Len())
}

func TestInitializer_RunReloadLoopStops(t *testing.T) {
	si, _ := newTestInitializer(t, fixture.WriteDir(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, si.RunReloadLoop(ctx))
}
