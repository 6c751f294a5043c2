// Package chunk splits documents into the semantic slices the store and
// retriever operate on: structure-aware Markdown chunking via a goldmark
// AST walk, and paragraph-based chunking for extracted PDF text.
package chunk

// Default size thresholds for the Markdown chunker's text-flush policy.
const (
	MinChunkChars = 100  // below this, a text flush is discarded as glue
	MaxChunkChars = 1000 // above this, a text buffer is flushed mid-accumulation
)

// Type identifies the kind of content a Chunk carries.
type Type string

const (
	TypeText Type = "text"
	TypeCode Type = "code"
	TypePDF  Type = "pdf"
	TypeWeb  Type = "web"
)

// Chunk is a contiguous semantic slice of a document, produced by a chunker
// and later persisted (with an assigned ID and document reference) by the
// ingestion pipeline.
type Chunk struct {
	Content     string
	HeaderStack []string // ordered enclosing header titles, H1 first
	ChunkType   Type
	Language    string // set for code chunks, e.g. "rust"; empty otherwise
	StartLine   int    // 1-indexed, inclusive
	EndLine     int    // 1-indexed, inclusive
}
