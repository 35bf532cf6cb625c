package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/kpalette/internal/colour"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleExtraction() *colour.Extraction {
	return &colour.Extraction{
		Space:      colour.SpaceRGB,
		Clusters:   2,
		Seed:       42,
		Width:      2,
		Height:     1,
		Iterations: 1,
		Converged:  true,
		Records: []colour.ColorRecord{
			{Index: 1, Count: 1, Centroid: colour.Vector{254.6, 0.3, 0.25}, RGB: colour.RGB{R: 255}, Weight: 0.5, Score: 127.5},
			{Index: 0, Count: 1, Centroid: colour.Vector{0, 0, 255}, RGB: colour.RGB{B: 255}, Weight: 0.5, Score: 127.5},
		},
	}
}

func TestSaveAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, "wall.png", sampleExtraction(), []int{1})
	require.NoError(t, err)
	assert.Positive(t, id)

	entry, err := store.Get(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "wall.png", entry.Source)
	assert.Equal(t, []int{1}, entry.Selected)
	assert.WithinDuration(t, time.Now(), entry.CreatedAt, time.Minute)

	got := entry.Result
	assert.Equal(t, colour.SpaceRGB, got.Space)
	assert.Equal(t, 2, got.Clusters)
	assert.Equal(t, int64(42), got.Seed)
	assert.True(t, got.Converged)
	require.Len(t, got.Records, 2)
	assert.Equal(t, 1, got.Records[0].Index)
	assert.Equal(t, colour.RGB{R: 255}, got.Records[0].RGB)
	assert.Equal(t, colour.Vector{254.6, 0.3, 0.25}, got.Records[0].Centroid)
	assert.InDelta(t, 127.5, got.Records[1].Score, 1e-9)
}

func TestSaveRejectsOutOfRangeSelection(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Save(context.Background(), "wall.png", sampleExtraction(), []int{2})
	require.Error(t, err)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.Save(ctx, "a.png", sampleExtraction(), nil)
	require.NoError(t, err)
	second, err := store.Save(ctx, "b.png", sampleExtraction(), nil)
	require.NoError(t, err)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, "b.png", list[0].Source)
	assert.Equal(t, first, list[1].ID)
}

func TestGetMissing(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, "a.png", sampleExtraction(), nil)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, id), ErrNotFound)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	id, err := store.Save(ctx, "a.png", sampleExtraction(), nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	entry, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a.png", entry.Source)
}

func TestGetWithoutStoredCentroidFallsBackToRGB(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, "wall.png", sampleExtraction(), nil)
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx, "UPDATE swatches SET centroid_0 = NULL, centroid_1 = NULL, centroid_2 = NULL")
	require.NoError(t, err)

	entry, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, colour.Vector{255, 0, 0}, entry.Result.Records[0].Centroid)
}

func TestMigrationsApplied(t *testing.T) {
	store := openTestStore(t)

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(1) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 2, count)
}
