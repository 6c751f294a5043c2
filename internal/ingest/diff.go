package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/deepseeker/deepseeker/internal/store"
)

// contentHash returns the hex SHA-256 of a chunk's trimmed content, used as
// the smart-diff reuse key: identical chunk text reuses its prior embedding
// even when other chunks in the document changed.
func contentHash(content string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(content)))
	return hex.EncodeToString(sum[:])
}

// buildReuseMap keys the embedding of each existing chunk by its content
// hash, for chunks that actually carry an embedding.
func buildReuseMap(existing []*store.Chunk) map[string][]float32 {
	reuse := make(map[string][]float32, len(existing))
	for _, c := range existing {
		if c.Embedding == nil {
			continue
		}
		reuse[contentHash(c.Content)] = c.Embedding
	}
	return reuse
}

// applySmartDiff assigns Embedding to each new chunk from the reuse map when
// its content hash matches a prior chunk, and returns the indices (into
// newChunks) of chunks that still need a fresh embedding.
func applySmartDiff(newChunks []*store.Chunk, reuse map[string][]float32) (needsEmbedding []int) {
	for i, c := range newChunks {
		if vec, ok := reuse[contentHash(c.Content)]; ok {
			c.Embedding = vec
			continue
		}
		needsEmbedding = append(needsEmbedding, i)
	}
	return needsEmbedding
}

// fetchExistingChunks loads the current chunks for a document at path in
// collectionID, if one exists. Returns nil, nil if there is no document yet.
func fetchExistingChunks(ctx context.Context, s store.MetadataStore, collectionID int64, path string) ([]*store.Chunk, error) {
	doc, err := s.GetDocumentByPath(ctx, collectionID, path)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return s.GetChunksByDoc(ctx, doc.ID)
}
