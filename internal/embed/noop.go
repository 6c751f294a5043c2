package embed

import "context"

// NoopEmbedder reports itself unavailable and refuses to embed anything.
// Wiring it in place of a real embedder exercises the BM25-only degradation
// path: the retriever detects Available() == false and skips the vector leg
// of the hybrid search instead of failing outright.
type NoopEmbedder struct{}

// NewNoopEmbedder returns an embedder that is always unavailable.
func NewNoopEmbedder() *NoopEmbedder {
	return &NoopEmbedder{}
}

func (e *NoopEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, errNoEmbedder
}

func (e *NoopEmbedder) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	return nil, errNoEmbedder
}

func (e *NoopEmbedder) Dimensions() int { return 0 }

func (e *NoopEmbedder) ModelName() string { return "none" }

func (e *NoopEmbedder) Available(_ context.Context) bool { return false }

func (e *NoopEmbedder) Close() error { return nil }
