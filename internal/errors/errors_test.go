package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepseekerError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("original error")

	// When: wrapping with DeepseekerError
	dsErr := New(ErrCodeStore, "failed to open metadata.db", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, dsErr)
	assert.Equal(t, originalErr, errors.Unwrap(dsErr))
	assert.True(t, errors.Is(dsErr, originalErr))
}

func TestDeepseekerError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "extraction error",
			code:     ErrCodeExtraction,
			message:  "unsupported file extension: .docx",
			expected: "[ERR_601_EXTRACTION] unsupported file extension: .docx",
		},
		{
			name:     "embedding error",
			code:     ErrCodeEmbedding,
			message:  "ollama unavailable",
			expected: "[ERR_602_EMBEDDING] ollama unavailable",
		},
		{
			name:     "store error",
			code:     ErrCodeStore,
			message:  "database is locked",
			expected: "[ERR_603_STORE] database is locked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestDeepseekerError_Is_MatchesByCode(t *testing.T) {
	// Given: two errors with same code
	err1 := New(ErrCodeExtraction, "file A failed", nil)
	err2 := New(ErrCodeExtraction, "file B failed", nil)

	// Then: they match by code
	assert.True(t, errors.Is(err1, err2))
}

func TestDeepseekerError_Is_DoesNotMatchDifferentCodes(t *testing.T) {
	// Given: two errors with different codes
	err1 := New(ErrCodeExtraction, "extraction failed", nil)
	err2 := New(ErrCodeStore, "store failed", nil)

	// Then: they don't match
	assert.False(t, errors.Is(err1, err2))
}

func TestDeepseekerError_WithDetails_AddsContext(t *testing.T) {
	// Given: a base error
	err := New(ErrCodeExtraction, "chunking failed", nil)

	// When: adding details
	err = err.WithDetail("path", "/docs/guide.md")
	err = err.WithDetail("chunk_count", "0")

	// Then: details are available
	assert.Equal(t, "/docs/guide.md", err.Details["path"])
	assert.Equal(t, "0", err.Details["chunk_count"])
}

func TestDeepseekerError_WithSuggestion_AddsSuggestion(t *testing.T) {
	// Given: an embedding error
	err := New(ErrCodeEmbedding, "ollama unavailable", nil)

	// When: adding suggestion
	err = err.WithSuggestion("Start Ollama: ollama serve")

	// Then: suggestion is available
	assert.Equal(t, "Start Ollama: ollama serve", err.Suggestion)
}

func TestDeepseekerError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeExtraction, CategoryExtraction},
		{ErrCodeEmbedding, CategoryEmbedding},
		{ErrCodeStore, CategoryStore},
		{ErrCodeWatch, CategoryWatch},
		{ErrCodeInternal, CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
		})
	}
}

func TestDeepseekerError_SeverityFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantSeverity Severity
	}{
		{ErrCodeStore, SeverityFatal},
		{ErrCodeEmbedding, SeverityWarning},
		{ErrCodeExtraction, SeverityError},
		{ErrCodeWatch, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantSeverity, err.Severity)
		})
	}
}

func TestDeepseekerError_RetryableFromCode(t *testing.T) {
	tests := []struct {
		code          string
		wantRetryable bool
	}{
		{ErrCodeEmbedding, true},
		{ErrCodeExtraction, false},
		{ErrCodeStore, false},
		{ErrCodeWatch, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantRetryable, err.Retryable)
		})
	}
}

func TestWrap_CreatesDeepseekerErrorFromError(t *testing.T) {
	// Given: a standard error
	originalErr := errors.New("something went wrong")

	// When: wrapping with a code
	dsErr := Wrap(ErrCodeInternal, originalErr)

	// Then: creates proper DeepseekerError
	require.NotNil(t, dsErr)
	assert.Equal(t, ErrCodeInternal, dsErr.Code)
	assert.Equal(t, "something went wrong", dsErr.Message)
	assert.Equal(t, originalErr, dsErr.Cause)
}

func TestExtractionError_CreatesExtractionCategoryError(t *testing.T) {
	err := ExtractionError("unsupported file extension", nil)

	assert.Equal(t, CategoryExtraction, err.Category)
	assert.Equal(t, ErrCodeExtraction, err.Code)
}

func TestEmbeddingError_CreatesRetryableError(t *testing.T) {
	err := EmbeddingError("ollama unavailable", nil)

	assert.Equal(t, CategoryEmbedding, err.Category)
	assert.True(t, err.Retryable)
}

func TestStoreError_CreatesFatalError(t *testing.T) {
	err := StoreError("database is corrupt", nil)

	assert.Equal(t, CategoryStore, err.Category)
	assert.Equal(t, SeverityFatal, err.Severity)
}

func TestWatchError_CreatesWatchCategoryError(t *testing.T) {
	err := WatchError("fsnotify setup failed", nil)

	assert.Equal(t, CategoryWatch, err.Category)
}

func TestIsRetryable_ChecksRetryableFlag(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "retryable DeepseekerError",
			err:      New(ErrCodeEmbedding, "timeout", nil),
			expected: true,
		},
		{
			name:     "non-retryable DeepseekerError",
			err:      New(ErrCodeExtraction, "unsupported extension", nil),
			expected: false,
		},
		{
			name:     "wrapped retryable error",
			err:      Wrap(ErrCodeEmbedding, errors.New("wrapped")),
			expected: true,
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}

func TestIsFatal_ChecksFatalSeverity(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "fatal store error",
			err:      New(ErrCodeStore, "database is corrupt", nil),
			expected: true,
		},
		{
			name:     "non-fatal extraction error",
			err:      New(ErrCodeExtraction, "unsupported extension", nil),
			expected: false,
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsFatal(tt.err))
		})
	}
}
