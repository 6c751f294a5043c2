package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/deepseeker/deepseeker/internal/embed"
	"github.com/deepseeker/deepseeker/internal/pdfdoc"
	"github.com/deepseeker/deepseeker/internal/store"
)

// DefaultBatchSize is the number of chunk texts accumulated before a single
// embed_batch call and grouped write.
const DefaultBatchSize = 128

// DefaultChannelCapacity bounds the producer→consumer channel, providing
// backpressure when embedding/writing falls behind file discovery.
const DefaultChannelCapacity = 32

// Pipeline runs directory indexing and incremental file updates against a
// Store and an Embedder, dispatching PDF vs Markdown extraction per file.
type Pipeline struct {
	Store        store.MetadataStore
	Embedder     embed.Embedder
	PDFExtractor pdfdoc.Extractor
	BatchSize    int
}

// NewPipeline builds a Pipeline with the default batch size. A nil
// PDFExtractor falls back to pdfdoc.RawExtractor.
func NewPipeline(s store.MetadataStore, embedder embed.Embedder) *Pipeline {
	return &Pipeline{
		Store:     s,
		Embedder:  embedder,
		BatchSize: DefaultBatchSize,
	}
}

// FileError records one file's failure during directory indexing; it does
// not abort the rest of the run.
type FileError struct {
	Path string
	Err  error
}

// Progress accumulates per-file outcomes for a directory index run.
type Progress struct {
	mu        sync.Mutex
	Processed int
	Skipped   int
	Failed    int
	Errors    []FileError
}

func (p *Progress) recordError(path string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Failed++
	p.Errors = append(p.Errors, FileError{Path: path, Err: err})
}

func (p *Progress) recordSkipped() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Skipped++
}

func (p *Progress) recordProcessed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Processed++
}

// fileUnit is one file's extraction result, pending embedding and write.
type fileUnit struct {
	path         string
	hash         string
	lastModified time.Time
	extraction   extracted
}

// IndexDirectory walks root, extracts and chunks every supported file, and
// writes them into collectionID. One producer goroutine discovers and
// extracts files; one consumer goroutine batches embeddings and performs
// the transactional writes, connected by a bounded channel for backpressure.
func (p *Pipeline) IndexDirectory(ctx context.Context, collectionID int64, root string) (*Progress, error) {
	files, err := DiscoverFiles(root)
	if err != nil {
		return nil, fmt.Errorf("discover files under %s: %w", root, err)
	}

	progress := &Progress{}
	units := make(chan fileUnit, DefaultChannelCapacity)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.consume(ctx, collectionID, units, progress)
	}()

	for _, path := range files {
		if ctx.Err() != nil {
			break
		}

		unit, skip, err := p.produceOne(ctx, collectionID, path)
		if err != nil {
			progress.recordError(path, err)
			continue
		}
		if skip {
			progress.recordSkipped()
			continue
		}
		units <- unit
	}
	close(units)
	wg.Wait()

	if err := p.Store.UpdateCollectionStats(ctx, collectionID, progress.Processed+progress.Skipped); err != nil {
		return progress, fmt.Errorf("update collection stats: %w", err)
	}
	return progress, nil
}

// produceOne extracts one file's chunks and hash, reporting skip=true when
// an identical (collection, path, hash) document already exists.
func (p *Pipeline) produceOne(ctx context.Context, collectionID int64, path string) (fileUnit, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileUnit{}, false, fmt.Errorf("read %s: %w", path, err)
	}
	hash := hashBytes(raw)

	if existing, err := p.Store.GetDocumentByPath(ctx, collectionID, path); err == nil && existing.Hash == hash {
		return fileUnit{}, true, nil
	}

	ext, err := extractFile(ctx, path, p.PDFExtractor)
	if err != nil {
		return fileUnit{}, false, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fileUnit{}, false, fmt.Errorf("stat %s: %w", path, err)
	}

	return fileUnit{path: path, hash: hash, lastModified: info.ModTime(), extraction: ext}, false, nil
}

// consume drains units, batching chunk texts up to BatchSize before calling
// EmbedBatch once per batch and writing each file's document atomically.
func (p *Pipeline) consume(ctx context.Context, collectionID int64, units <-chan fileUnit, progress *Progress) {
	batchSize := p.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var pending []fileUnit
	pendingChunks := 0

	flush := func() {
		if len(pending) == 0 {
			return
		}
		p.embedAndWrite(ctx, collectionID, pending, progress)
		pending = nil
		pendingChunks = 0
	}

	for unit := range units {
		pending = append(pending, unit)
		pendingChunks += len(unit.extraction.chunks)
		if pendingChunks >= batchSize {
			flush()
		}
	}
	flush()
}

// embedAndWrite embeds every chunk lacking one across the batch in a single
// call, then writes each file's document transactionally.
func (p *Pipeline) embedAndWrite(ctx context.Context, collectionID int64, units []fileUnit, progress *Progress) {
	if p.Embedder != nil && p.Embedder.Available(ctx) {
		var texts []string
		var targets []*store.Chunk
		for _, u := range units {
			for _, c := range u.extraction.chunks {
				texts = append(texts, c.Content)
				targets = append(targets, c)
			}
		}
		if len(texts) > 0 {
			vectors, err := p.Embedder.EmbedBatch(ctx, texts)
			if err != nil {
				// Embedding failure degrades to absent embeddings, not a
				// failed write; spec.md §4.3 requires embed_batch failure
				// to be non-fatal.
				vectors = nil
			}
			for i, vec := range vectors {
				if i < len(targets) {
					targets[i].Embedding = vec
				}
			}
		}
	}

	for _, u := range units {
		_, err := p.Store.UpsertDocumentAtomic(ctx, collectionID, u.path, u.hash, u.lastModified, u.extraction.status, u.extraction.chunks)
		if err != nil {
			progress.recordError(u.path, fmt.Errorf("write %s: %w", u.path, err))
			continue
		}
		progress.recordProcessed()
	}
}

// UpdateFileIncremental applies a single create/modify event. If the path no
// longer exists on disk it routes to HandleFileRemoval instead.
func (p *Pipeline) UpdateFileIncremental(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return p.HandleFileRemoval(ctx, path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}

	collectionID, ok, err := p.Store.GetCollectionIDForPath(ctx, path)
	if err != nil {
		return fmt.Errorf("resolve collection for %s: %w", path, err)
	}
	if !ok {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	hash := hashBytes(raw)

	if existing, err := p.Store.GetDocumentByPath(ctx, collectionID, path); err == nil && existing.Hash == hash {
		return nil
	}

	ext, err := extractFile(ctx, path, p.PDFExtractor)
	if err != nil {
		return err
	}

	existingChunks, err := fetchExistingChunks(ctx, p.Store, collectionID, path)
	if err != nil {
		return fmt.Errorf("fetch existing chunks for %s: %w", path, err)
	}
	reuse := buildReuseMap(existingChunks)
	needsEmbedding := applySmartDiff(ext.chunks, reuse)

	if len(needsEmbedding) > 0 && p.Embedder != nil && p.Embedder.Available(ctx) {
		texts := make([]string, len(needsEmbedding))
		for i, idx := range needsEmbedding {
			texts[i] = ext.chunks[idx].Content
		}
		vectors, embedErr := p.Embedder.EmbedBatch(ctx, texts)
		if embedErr == nil {
			for i, idx := range needsEmbedding {
				if i < len(vectors) {
					ext.chunks[idx].Embedding = vectors[i]
				}
			}
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if _, err := p.Store.UpsertDocumentAtomic(ctx, collectionID, path, hash, info.ModTime(), ext.status, ext.chunks); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	docs, err := p.Store.ListDocuments(ctx, collectionID)
	if err != nil {
		return fmt.Errorf("list documents for collection %d: %w", collectionID, err)
	}
	return p.Store.UpdateCollectionStats(ctx, collectionID, len(docs))
}

// HandleFileRemoval deletes the document at path, cascading to its chunks
// and index entries. No-op if no document exists at path.
func (p *Pipeline) HandleFileRemoval(ctx context.Context, path string) error {
	err := p.Store.DeleteDocument(ctx, path)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

func hashBytes(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
