package errors

// Error codes for the four domain failure kinds: extraction (chunking a
// source file), embedding, store (persistence), and watch (filesystem
// monitoring). Each wraps into the existing Category/Severity/Retryable
// machinery via New/Wrap rather than introducing a parallel error type.
const (
	ErrCodeExtraction = "ERR_601_EXTRACTION"
	ErrCodeEmbedding  = "ERR_602_EMBEDDING"
	ErrCodeStore      = "ERR_603_STORE"
	ErrCodeWatch      = "ERR_604_WATCH"
)

// ExtractionError wraps a chunking/extraction failure (Markdown or PDF).
func ExtractionError(message string, cause error) *DeepseekerError {
	return New(ErrCodeExtraction, message, cause)
}

// EmbeddingError wraps an embedding-backend failure.
func EmbeddingError(message string, cause error) *DeepseekerError {
	return New(ErrCodeEmbedding, message, cause)
}

// StoreError wraps a persistence-layer failure.
func StoreError(message string, cause error) *DeepseekerError {
	return New(ErrCodeStore, message, cause)
}

// WatchError wraps a filesystem-watcher failure.
func WatchError(message string, cause error) *DeepseekerError {
	return New(ErrCodeWatch, message, cause)
}
