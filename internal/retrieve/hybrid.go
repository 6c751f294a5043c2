// Package retrieve implements the hybrid BM25+cosine retriever and the
// context-window fetcher that sit on top of internal/store.
package retrieve

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/deepseeker/deepseeker/internal/embed"
	"github.com/deepseeker/deepseeker/internal/store"
	"golang.org/x/sync/errgroup"
)

const (
	// WeightVector and WeightBM25 must sum to 1.0 with WeightVector > WeightBM25.
	WeightVector = 0.7
	WeightBM25   = 0.3

	candidatePoolMultiplier = 3
)

// RankNormalizer maps a raw FTS5 bm25() rank (negative-is-better) to a
// score in (0, 1]. The default is 1/(1+|rank|); callers may substitute a
// min-max rescaler.
type RankNormalizer func(rank float64) float64

// DefaultRankNormalizer is the retriever's default normalization.
func DefaultRankNormalizer(rank float64) float64 {
	return 1 / (1 + math.Abs(rank))
}

// SearchResult is a single ranked hit returned to the caller.
type SearchResult struct {
	ChunkID        string
	DocID          string
	DocumentPath   string
	DocumentStatus store.DocumentStatus
	Content        string
	Metadata       store.ChunkMetadata
	StartLine      int
	EndLine        int
	Score          float64
}

// Retriever runs the hybrid BM25+cosine search procedure.
type Retriever struct {
	Store     store.MetadataStore
	FTS       store.FullTextIndex
	Embedder  embed.Embedder
	Normalize RankNormalizer
}

// NewRetriever builds a Retriever over s (used both as the FullTextIndex and
// the MetadataStore) and embedder.
func NewRetriever(s *store.SQLiteStore, embedder embed.Embedder) *Retriever {
	return &Retriever{
		Store:     s,
		FTS:       s,
		Embedder:  embedder,
		Normalize: DefaultRankNormalizer,
	}
}

// Search runs the hybrid retrieval procedure of §4.7: FTS candidate
// generation, optional vector re-ranking, fixed-weight fusion, and a
// deterministic chunk_id tie-break.
func (r *Retriever) Search(ctx context.Context, query string, collectionID int64, hasFilter bool, k int) ([]SearchResult, error) {
	if r.Normalize == nil {
		r.Normalize = DefaultRankNormalizer
	}

	poolSize := candidatePoolMultiplier * k

	var ftsResults []store.FTSResult
	var queryVec []float32
	embedderReady := r.Embedder != nil && r.Embedder.Available(ctx)

	if embedderReady {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			ftsResults, err = r.FTS.Search(gctx, query, collectionID, hasFilter, poolSize)
			return err
		})
		g.Go(func() error {
			var err error
			queryVec, err = r.Embedder.Embed(gctx, query)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("retrieve: %w", err)
		}
	} else {
		var err error
		ftsResults, err = r.FTS.Search(ctx, query, collectionID, hasFilter, poolSize)
		if err != nil {
			return nil, fmt.Errorf("retrieve: %w", err)
		}
	}

	if len(ftsResults) == 0 {
		return nil, nil
	}

	chunkIDs := make([]string, len(ftsResults))
	bm25Score := make(map[string]float64, len(ftsResults))
	for i, res := range ftsResults {
		chunkIDs[i] = res.ChunkID
		bm25Score[res.ChunkID] = r.Normalize(res.Rank)
	}

	chunks, err := r.Store.GetChunksByIDs(ctx, chunkIDs)
	if err != nil {
		return nil, fmt.Errorf("retrieve: fetch candidates: %w", err)
	}

	docCache := make(map[string]*store.Document)
	results := make([]SearchResult, 0, len(chunks))
	for _, c := range chunks {
		doc, ok := docCache[c.DocID]
		if !ok {
			doc, err = r.docByID(ctx, c.DocID)
			if err != nil {
				continue
			}
			docCache[c.DocID] = doc
		}

		score := bm25Score[c.ID]
		if embedderReady && len(queryVec) > 0 && len(c.Embedding) > 0 {
			score = WeightVector*cosineSimilarity(queryVec, c.Embedding) + WeightBM25*bm25Score[c.ID]
		}

		results = append(results, SearchResult{
			ChunkID:        c.ID,
			DocID:          c.DocID,
			DocumentPath:   doc.Path,
			DocumentStatus: doc.Status,
			Content:        c.Content,
			Metadata:       c.Metadata,
			StartLine:      c.StartLine,
			EndLine:        c.EndLine,
			Score:          score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// docByID resolves a chunk's owning document. MetadataStore only exposes
// path-keyed lookup, so the retriever keeps a small per-call cache instead
// of round-tripping per chunk.
func (r *Retriever) docByID(ctx context.Context, docID string) (*store.Document, error) {
	docs, err := r.allDocuments(ctx)
	if err != nil {
		return nil, err
	}
	if doc, ok := docs[docID]; ok {
		return doc, nil
	}
	return nil, store.ErrNotFound
}

func (r *Retriever) allDocuments(ctx context.Context) (map[string]*store.Document, error) {
	collections, err := r.Store.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*store.Document)
	for _, c := range collections {
		docs, err := r.Store.ListDocuments(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			byID[d.ID] = d
		}
	}
	return byID, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
