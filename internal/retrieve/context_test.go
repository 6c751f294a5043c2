package retrieve

import (
	"context"
	"testing"
	"time"

	"github.com/deepseeker/deepseeker/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMultiChunkDoc(t *testing.T, s *store.SQLiteStore) (*store.Collection, string) {
	t.Helper()
	ctx := context.Background()
	c := &store.Collection{Name: "docs"}
	require.NoError(t, s.SaveCollection(ctx, c))

	chunks := []*store.Chunk{
		{Content: "one", StartLine: 1, EndLine: 2, Metadata: store.ChunkMetadata{ChunkType: store.ChunkTypeText}},
		{Content: "two", StartLine: 3, EndLine: 4, Metadata: store.ChunkMetadata{ChunkType: store.ChunkTypeText}},
		{Content: "three", StartLine: 5, EndLine: 6, Metadata: store.ChunkMetadata{ChunkType: store.ChunkTypeText}},
		{Content: "four", StartLine: 7, EndLine: 8, Metadata: store.ChunkMetadata{ChunkType: store.ChunkTypeText}},
		{Content: "five", StartLine: 9, EndLine: 10, Metadata: store.ChunkMetadata{ChunkType: store.ChunkTypeText}},
	}
	docID, err := s.UpsertDocumentAtomic(ctx, c.ID, "a.md", "h", time.Now(), store.StatusNormal, chunks)
	require.NoError(t, err)
	return c, docID
}

func TestContextFetcher_Neighbors_CentersOnMatch(t *testing.T) {
	s, err := store.NewSQLiteStore("")
	require.NoError(t, err)
	defer s.Close()

	_, docID := seedMultiChunkDoc(t, s)
	f := NewContextFetcher(s)

	got, err := f.Neighbors(context.Background(), docID, 5, 1)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "two", got[0].Content)
	assert.Equal(t, "three", got[1].Content)
	assert.Equal(t, "four", got[2].Content)
}

func TestContextFetcher_Neighbors_ClampsAtBoundaries(t *testing.T) {
	s, err := store.NewSQLiteStore("")
	require.NoError(t, err)
	defer s.Close()

	_, docID := seedMultiChunkDoc(t, s)
	f := NewContextFetcher(s)

	got, err := f.Neighbors(context.Background(), docID, 1, 2)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "one", got[0].Content)
}

func TestContextFetcher_Neighbors_NoMatchReturnsFullDoc(t *testing.T) {
	s, err := store.NewSQLiteStore("")
	require.NoError(t, err)
	defer s.Close()

	_, docID := seedMultiChunkDoc(t, s)
	f := NewContextFetcher(s)

	got, err := f.Neighbors(context.Background(), docID, 999, 1)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}
