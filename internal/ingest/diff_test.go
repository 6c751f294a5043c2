package ingest

import (
	"testing"

	"github.com/deepseeker/deepseeker/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestBuildReuseMap_KeyedByContentHash(t *testing.T) {
	existing := []*store.Chunk{
		{Content: "alpha chunk", Embedding: []float32{1, 2}},
		{Content: "beta chunk", Embedding: nil},
	}
	reuse := buildReuseMap(existing)
	assert.Len(t, reuse, 1)
	assert.Contains(t, reuse, contentHash("alpha chunk"))
}

func TestApplySmartDiff_PartitionsReuseVsNeedsEmbedding(t *testing.T) {
	reuse := map[string][]float32{contentHash("unchanged"): {0.5, 0.5}}
	chunks := []*store.Chunk{
		{Content: "unchanged"},
		{Content: "new content"},
	}

	needs := applySmartDiff(chunks, reuse)
	assert.Equal(t, []float32{0.5, 0.5}, chunks[0].Embedding)
	assert.Nil(t, chunks[1].Embedding)
	assert.Equal(t, []int{1}, needs)
}
