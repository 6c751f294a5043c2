package retrieve

import (
	"context"
	"sort"

	"github.com/deepseeker/deepseeker/internal/store"
)

// ContextFetcher expands a single hit into its surrounding chunks within
// the same document.
type ContextFetcher struct {
	Store store.MetadataStore
}

// NewContextFetcher builds a ContextFetcher over s.
func NewContextFetcher(s store.MetadataStore) *ContextFetcher {
	return &ContextFetcher{Store: s}
}

// Neighbors returns up to 2n+1 chunks of docID centered on the chunk whose
// StartLine equals startLine, per §4.8. If no chunk has that exact start
// line, the full document's chunk list is returned.
func (f *ContextFetcher) Neighbors(ctx context.Context, docID string, startLine, n int) ([]*store.Chunk, error) {
	chunks, err := f.Store.GetChunksByDoc(ctx, docID)
	if err != nil {
		return nil, err
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].StartLine < chunks[j].StartLine })

	idx := -1
	for i, c := range chunks {
		if c.StartLine == startLine {
			idx = i
			break
		}
	}
	if idx == -1 {
		return chunks, nil
	}

	lo := idx - n
	if lo < 0 {
		lo = 0
	}
	hi := idx + n + 1
	if hi > len(chunks) {
		hi = len(chunks)
	}
	return chunks[lo:hi], nil
}
