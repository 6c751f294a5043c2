// Package store provides the persistent substrate for deepseeker: a SQLite
// metadata store, an FTS5 inverted index, and an HNSW vector index, coupled
// under cascading collection → document → chunk ownership.
package store

import (
	"context"
	"fmt"
	"time"
)

// DocumentStatus is the tagged-variant status of a Document.
// Extend by adding variants, never by overloading an existing one.
type DocumentStatus string

const (
	StatusNormal     DocumentStatus = "normal"
	StatusScannedPDF DocumentStatus = "scanned_pdf"
	StatusError      DocumentStatus = "error"
)

// ChunkType identifies the kind of content a Chunk carries.
type ChunkType string

const (
	ChunkTypeText ChunkType = "text"
	ChunkTypeCode ChunkType = "code"
	ChunkTypePDF  ChunkType = "pdf"
	ChunkTypeWeb  ChunkType = "web"
)

// State keys for the key-value runtime state table.
const (
	StateKeyIndexDimension = "index_embedding_dimension"
	StateKeyIndexModel     = "index_embedding_model"
)

// CurrentSchemaVersion is the current database schema version.
const CurrentSchemaVersion = 1

// Collection is a logical grouping of documents, optionally bound to a
// folder on disk. Deleting a Collection cascades to all owned Documents.
type Collection struct {
	ID         int64
	Name       string
	FolderPath string
	FileCount  int
	LastSync   time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Document is one on-disk file (or a pseudo-path web://<url> for an external
// clip). Replaced atomically (delete+insert) whenever its content hash changes.
type Document struct {
	ID           string
	CollectionID int64
	Path         string
	Hash         string
	LastModified time.Time
	CreatedAt    time.Time
	Status       DocumentStatus
}

// ChunkMetadata carries the header path and type tag for a Chunk.
type ChunkMetadata struct {
	HeaderStack []string  `json:"header_stack"`
	ChunkType   ChunkType `json:"chunk_type"`
	Language    string    `json:"language,omitempty"`
}

// Chunk is a contiguous semantic slice of a Document; the unit of indexing
// and retrieval. Never mutated in place: document re-ingestion deletes all
// chunks and inserts new ones.
type Chunk struct {
	ID        string
	DocID     string
	Content   string
	Metadata  ChunkMetadata
	StartLine int
	EndLine   int
	Embedding []float32 // nil when absent (no backend, or extraction error)
	CreatedAt time.Time
}

// MetadataStore persists collections, documents, and chunks in SQLite, and
// exposes the transactional, cascading operations the ingestion pipeline
// and retriever need.
type MetadataStore interface {
	// Collection operations
	SaveCollection(ctx context.Context, c *Collection) error
	GetCollection(ctx context.Context, id int64) (*Collection, error)
	GetCollectionByPath(ctx context.Context, folderPath string) (*Collection, error)
	ListCollections(ctx context.Context) ([]*Collection, error)
	GetCollectionIDForPath(ctx context.Context, path string) (int64, bool, error)
	UpdateCollectionStats(ctx context.Context, id int64, fileCount int) error
	DeleteCollection(ctx context.Context, id int64) error

	// Document + chunk operations
	UpsertDocumentAtomic(ctx context.Context, collectionID int64, path, hash string, lastModified time.Time, status DocumentStatus, chunks []*Chunk) (docID string, err error)
	GetDocumentByPath(ctx context.Context, collectionID int64, path string) (*Document, error)
	DeleteDocument(ctx context.Context, path string) error
	ListDocuments(ctx context.Context, collectionID int64) ([]*Document, error)
	GetChunksByDoc(ctx context.Context, docID string) ([]*Chunk, error)
	GetChunk(ctx context.Context, id string) (*Chunk, error)
	GetChunksByIDs(ctx context.Context, ids []string) ([]*Chunk, error)

	// Embedding lookup (for smart-diff reuse and hybrid retrieval)
	GetEmbeddings(ctx context.Context, chunkIDs []string) (map[string][]float32, error)

	// State operations (key-value store for runtime state)
	GetState(ctx context.Context, key string) (string, error)
	SetState(ctx context.Context, key, value string) error

	// Maintenance
	CleanupGhost(ctx context.Context, exists func(path string) bool) (int, error)

	Close() error
}

// FTSResult is a single full-text search hit: lower Rank is better.
type FTSResult struct {
	ChunkID string
	Rank    float64
}

// IndexStats describes the inverted index's size for diagnostics.
type IndexStats struct {
	DocumentCount int
	TermCount     int
}

// FullTextIndex provides BM25-style keyword search over chunk content.
// Implementations maintain the index automatically via triggers keyed on
// the chunks table; callers never index directly.
type FullTextIndex interface {
	Search(ctx context.Context, query string, collectionID int64, hasFilter bool, limit int) ([]FTSResult, error)
	Stats(ctx context.Context) (*IndexStats, error)
}

// VectorResult is a single vector search hit.
type VectorResult struct {
	ID       string
	Distance float32
	Score    float32
}

// VectorStoreConfig configures the HNSW vector index.
type VectorStoreConfig struct {
	Dimensions     int
	Metric         string // "cos" or "l2"
	M              int
	EfConstruction int
	EfSearch       int
}

// DefaultVectorStoreConfig returns sensible defaults for the vector store.
func DefaultVectorStoreConfig(dimensions int) VectorStoreConfig {
	return VectorStoreConfig{
		Dimensions:     dimensions,
		Metric:         "cos",
		M:              16,
		EfConstruction: 128,
		EfSearch:       64,
	}
}

// VectorStore provides semantic search over chunk embeddings. Reserved for
// the direct vec_search path; the hybrid retriever fetches embeddings from
// MetadataStore and scores them in process instead.
type VectorStore interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Delete(ctx context.Context, ids []string) error
	Contains(id string) bool
	Count() int
	Save(path string) error
	Load(path string) error
	Close() error
}

// ErrDimensionMismatch indicates a vector was presented with a different
// dimensionality than the store was configured for.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

// ErrNotFound indicates a requested row does not exist.
var ErrNotFound = fmt.Errorf("not found")
