// Package errors provides structured error handling for deepseeker's
// ingestion, embedding, storage, and watch pipelines.
package errors

// Category classifies a DeepseekerError by which pipeline stage raised it.
type Category string

const (
	// CategoryExtraction covers Markdown/PDF chunking failures.
	CategoryExtraction Category = "EXTRACTION"
	// CategoryEmbedding covers embedding-backend failures (Ollama, static).
	CategoryEmbedding Category = "EMBEDDING"
	// CategoryStore covers SQLite persistence failures.
	CategoryStore Category = "STORE"
	// CategoryWatch covers filesystem-watcher failures.
	CategoryWatch Category = "WATCH"
	// CategoryInternal indicates an unexpected internal error.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates an unrecoverable error; the caller must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates an operation failed but the caller can continue
	// with other work (e.g. skip one file and keep indexing the rest).
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates a degraded but retryable condition.
	SeverityWarning Severity = "WARNING"
)

// ErrCodeInternal is the fallback code for errors that don't fit one of the
// four domain categories in kinds.go.
const ErrCodeInternal = "ERR_901_INTERNAL"

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	switch code {
	case ErrCodeExtraction:
		return CategoryExtraction
	case ErrCodeEmbedding:
		return CategoryEmbedding
	case ErrCodeStore:
		return CategoryStore
	case ErrCodeWatch:
		return CategoryWatch
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
// A corrupt or unopenable store is fatal: nothing downstream can proceed
// without it. Embedding failures are a warning because the caller can fall
// back to BM25-only search. Everything else is a plain error.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeStore:
		return SeverityFatal
	case ErrCodeEmbedding:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// isRetryableCode checks if an error code represents a retryable error.
// Embedding errors are retryable: Ollama may simply not be running yet, or
// the model may still be loading.
func isRetryableCode(code string) bool {
	return code == ErrCodeEmbedding
}
