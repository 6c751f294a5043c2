package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVectorStore(t *testing.T, dims int) *HNSWVectorStore {
	t.Helper()
	s, err := NewHNSWVectorStore(DefaultVectorStoreConfig(dims))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestHNSWVectorStore_AddAndSearch(t *testing.T) {
	s := newTestVectorStore(t, 3)
	ctx := context.Background()

	ids := []string{"a", "b", "c"}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
	}
	require.NoError(t, s.Add(ctx, ids, vectors))
	assert.Equal(t, 3, s.Count())

	results, err := s.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
}

func TestHNSWVectorStore_Add_DimensionMismatch(t *testing.T) {
	s := newTestVectorStore(t, 3)
	err := s.Add(context.Background(), []string{"a"}, [][]float32{{1, 2}})
	var mismatch ErrDimensionMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 3, mismatch.Expected)
	assert.Equal(t, 2, mismatch.Got)
}

func TestHNSWVectorStore_Delete_IsLazyAndHidesFromSearch(t *testing.T) {
	s := newTestVectorStore(t, 2)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []string{"x", "y"}, [][]float32{{1, 0}, {0, 1}}))

	require.NoError(t, s.Delete(ctx, []string{"x"}))
	assert.False(t, s.Contains("x"))
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, 1, s.OrphanCount())

	results, err := s.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "x", r.ID)
	}
}

func TestHNSWVectorStore_Add_ReplacesExistingID(t *testing.T) {
	s := newTestVectorStore(t, 2)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []string{"a"}, [][]float32{{1, 0}}))
	require.NoError(t, s.Add(ctx, []string{"a"}, [][]float32{{0, 1}}))
	assert.Equal(t, 1, s.Count())
}

func TestHNSWVectorStore_SaveLoad_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.hnsw")

	s := newTestVectorStore(t, 3)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0, 0}, {0, 1, 0}}))
	require.NoError(t, s.Save(path))

	loaded, err := NewHNSWVectorStore(DefaultVectorStoreConfig(3))
	require.NoError(t, err)
	defer loaded.Close()
	require.NoError(t, loaded.Load(path))

	assert.Equal(t, 2, loaded.Count())
	assert.True(t, loaded.Contains("a"))

	dims, err := VectorStoreDimensions(path)
	require.NoError(t, err)
	assert.Equal(t, 3, dims)
}

func TestVectorStoreDimensions_MissingFile(t *testing.T) {
	dims, err := VectorStoreDimensions(filepath.Join(os.TempDir(), "does-not-exist.hnsw"))
	require.NoError(t, err)
	assert.Equal(t, 0, dims)
}

func TestHNSWVectorStore_Search_EmptyGraph(t *testing.T) {
	s := newTestVectorStore(t, 3)
	results, err := s.Search(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHNSWVectorStore_OperationsAfterClose(t *testing.T) {
	s := newTestVectorStore(t, 2)
	require.NoError(t, s.Close())

	err := s.Add(context.Background(), []string{"a"}, [][]float32{{1, 0}})
	assert.Error(t, err)
	assert.False(t, s.Contains("a"))
	assert.Equal(t, 0, s.Count())
}

func TestDistanceToScore(t *testing.T) {
	assert.InDelta(t, 1.0, distanceToScore(0, "cos"), 1e-6)
	assert.InDelta(t, 0.0, distanceToScore(2, "cos"), 1e-6)
	assert.InDelta(t, 1.0, distanceToScore(0, "l2"), 1e-6)
}
