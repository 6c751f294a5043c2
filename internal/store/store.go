package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	dserrors "github.com/deepseeker/deepseeker/internal/errors"
)

// SQLiteStore is the single SQLite-backed implementation of both
// MetadataStore and FullTextIndex: one connection, one schema, the
// inverted index kept current by triggers rather than a parallel write path.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

var _ MetadataStore = (*SQLiteStore)(nil)
var _ FullTextIndex = (*SQLiteStore)(nil)

// validateIntegrity checks an existing database file before opening it.
// A missing file is not an error: it will be created fresh.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return dserrors.StoreError("cannot open for validation", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return dserrors.StoreError("integrity check failed", err)
	}
	if result != "ok" {
		return dserrors.StoreError(fmt.Sprintf("database corrupted: %s", result), nil)
	}
	return nil
}

// NewSQLiteStore opens (creating if needed) the metadata store at path.
// An empty path opens an in-memory database, used by tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, dserrors.StoreError(fmt.Sprintf("failed to create directory %s", dir), err)
		}

		if validErr := validateIntegrity(path); validErr != nil {
			slog.Warn("store_corrupted", slog.String("path", path), slog.String("error", validErr.Error()))
			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, dserrors.StoreError(fmt.Sprintf("store corrupted at %s and cannot remove: %v (original error: %v)", path, removeErr, validErr), nil)
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")
			slog.Info("store_cleared", slog.String("path", path), slog.String("reason", "corruption detected, reindex required"))
		}

		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, dserrors.StoreError("failed to open database", err)
	}

	// A single writer avoids SQLITE_BUSY contention; WAL still allows
	// concurrent readers from other processes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// --- Collections ---------------------------------------------------------

func (s *SQLiteStore) SaveCollection(ctx context.Context, c *Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}

	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	if c.ID == 0 {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO collections (name, folder_path, file_count, last_sync, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			c.Name, c.FolderPath, c.FileCount, unixOrNil(c.LastSync), c.CreatedAt.Unix(), c.UpdatedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert collection: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read new collection id: %w", err)
		}
		c.ID = id
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE collections SET name = ?, folder_path = ?, file_count = ?, last_sync = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.FolderPath, c.FileCount, unixOrNil(c.LastSync), c.UpdatedAt.Unix(), c.ID)
	if err != nil {
		return fmt.Errorf("failed to update collection %d: %w", c.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetCollection(ctx context.Context, id int64) (*Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, folder_path, file_count, last_sync, created_at, updated_at
		 FROM collections WHERE id = ?`, id)
	return scanCollection(row)
}

func (s *SQLiteStore) GetCollectionByPath(ctx context.Context, folderPath string) (*Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, folder_path, file_count, last_sync, created_at, updated_at
		 FROM collections WHERE folder_path = ?`, folderPath)
	return scanCollection(row)
}

// GetCollectionIDForPath resolves a file path to its owning collection by
// longest folder-path prefix match; it does not require an exact match
// against a collection's folder_path (GetCollectionByPath does that).
func (s *SQLiteStore) GetCollectionIDForPath(ctx context.Context, path string) (int64, bool, error) {
	collections, err := s.ListCollections(ctx)
	if err != nil {
		return 0, false, err
	}

	var best *Collection
	for _, c := range collections {
		if c.FolderPath == "" || !strings.HasPrefix(path, c.FolderPath) {
			continue
		}
		if best == nil || len(c.FolderPath) > len(best.FolderPath) {
			best = c
		}
	}
	if best == nil {
		return 0, false, nil
	}
	return best.ID, true, nil
}

func (s *SQLiteStore) ListCollections(ctx context.Context) ([]*Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, folder_path, file_count, last_sync, created_at, updated_at
		 FROM collections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var out []*Collection
	for rows.Next() {
		c, err := scanCollectionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateCollectionStats(ctx context.Context, id int64, fileCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`UPDATE collections SET file_count = ?, last_sync = ?, updated_at = ? WHERE id = ?`,
		fileCount, time.Now().Unix(), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update collection stats for %d: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteCollection(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete collection %d: %w", id, err)
	}
	return nil
}

// --- Documents + chunks ---------------------------------------------------

// UpsertDocumentAtomic replaces a document and all of its chunks in a single
// transaction: delete-by-path then insert, so a crash mid-write never leaves
// a document with a stale chunk set. Cascading FK deletes remove the old
// chunks (and, via trigger, their fts_chunks rows) automatically.
func (s *SQLiteStore) UpsertDocumentAtomic(ctx context.Context, collectionID int64, path, hash string, lastModified time.Time, status DocumentStatus, chunks []*Chunk) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", fmt.Errorf("store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE collection_id = ? AND path = ?`, collectionID, path); err != nil {
		return "", fmt.Errorf("failed to clear existing document %s: %w", path, err)
	}

	docID := uuid.NewString()
	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, collection_id, path, hash, last_modified, created_at, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		docID, collectionID, path, hash, lastModified.Unix(), now.Unix(), string(status)); err != nil {
		return "", fmt.Errorf("failed to insert document %s: %w", path, err)
	}

	insertChunk, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, doc_id, content, metadata, start_line, end_line, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer insertChunk.Close()

	for _, c := range chunks {
		metaJSON, err := json.Marshal(c.Metadata)
		if err != nil {
			return "", fmt.Errorf("failed to marshal metadata for chunk %s: %w", c.ID, err)
		}
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		created := c.CreatedAt
		if created.IsZero() {
			created = now
		}
		if _, err := insertChunk.ExecContext(ctx, id, docID, c.Content, string(metaJSON),
			c.StartLine, c.EndLine, encodeEmbedding(c.Embedding), created.Unix()); err != nil {
			return "", fmt.Errorf("failed to insert chunk %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit document upsert for %s: %w", path, err)
	}
	return docID, nil
}

func (s *SQLiteStore) GetDocumentByPath(ctx context.Context, collectionID int64, path string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx,
		`SELECT id, collection_id, path, hash, last_modified, created_at, status
		 FROM documents WHERE collection_id = ? AND path = ?`, collectionID, path)
	return scanDocument(row)
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", path, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, collectionID int64) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, collection_id, path, hash, last_modified, created_at, status
		 FROM documents WHERE collection_id = ? ORDER BY path`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents for collection %d: %w", collectionID, err)
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		d, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetChunksByDoc(ctx context.Context, docID string) ([]*Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, doc_id, content, metadata, start_line, end_line, embedding, created_at
		 FROM chunks WHERE doc_id = ? ORDER BY start_line`, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunks for document %s: %w", docID, err)
	}
	defer rows.Close()
	return scanChunkRowsAll(rows)
}

func (s *SQLiteStore) GetChunk(ctx context.Context, id string) (*Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx,
		`SELECT id, doc_id, content, metadata, start_line, end_line, embedding, created_at
		 FROM chunks WHERE id = ?`, id)
	return scanChunk(row)
}

func (s *SQLiteStore) GetChunksByIDs(ctx context.Context, ids []string) ([]*Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(
		`SELECT id, doc_id, content, metadata, start_line, end_line, embedding, created_at
		 FROM chunks WHERE id IN (%s)`, strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunks by id: %w", err)
	}
	defer rows.Close()
	return scanChunkRowsAll(rows)
}

func (s *SQLiteStore) GetEmbeddings(ctx context.Context, chunkIDs []string) (map[string][]float32, error) {
	chunks, err := s.GetChunksByIDs(ctx, chunkIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]float32, len(chunks))
	for _, c := range chunks {
		if c.Embedding != nil {
			out[c.ID] = c.Embedding
		}
	}
	return out, nil
}

// --- Runtime state ---------------------------------------------------------

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read state %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) SetState(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write state %q: %w", key, err)
	}
	return nil
}

// --- Maintenance -----------------------------------------------------------

// CleanupGhost deletes documents whose source file no longer exists,
// per exists, cascading to their chunks and fts rows.
func (s *SQLiteStore) CleanupGhost(ctx context.Context, exists func(path string) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, path FROM documents`)
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate documents: %w", err)
	}
	type docRef struct{ id, path string }
	var all []docRef
	for rows.Next() {
		var d docRef
		if err := rows.Scan(&d.id, &d.path); err != nil {
			rows.Close()
			return 0, err
		}
		all = append(all, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var ghosts []string
	for _, d := range all {
		if !exists(d.path) {
			ghosts = append(ghosts, d.id)
		}
	}
	if len(ghosts) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin ghost cleanup transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range ghosts {
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
			return 0, fmt.Errorf("failed to delete ghost document %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit ghost cleanup: %w", err)
	}
	return len(ghosts), nil
}

// --- FullTextIndex -----------------------------------------------------------

// Search runs a porter-stemmed FTS5 match against chunk content, optionally
// scoped to a collection by joining through documents. Lower Rank is better
// (raw bm25() score, which FTS5 returns negative-is-better).
func (s *SQLiteStore) Search(ctx context.Context, query string, collectionID int64, hasFilter bool, limit int) ([]FTSResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	var rows *sql.Rows
	var err error
	if hasFilter {
		rows, err = s.db.QueryContext(ctx, `
			SELECT f.chunk_id, bm25(fts_chunks) AS score
			FROM fts_chunks f
			JOIN chunks c ON c.id = f.chunk_id
			JOIN documents d ON d.id = c.doc_id
			WHERE fts_chunks MATCH ? AND d.collection_id = ?
			ORDER BY score
			LIMIT ?`, query, collectionID, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT chunk_id, bm25(fts_chunks) AS score
			FROM fts_chunks
			WHERE fts_chunks MATCH ?
			ORDER BY score
			LIMIT ?`, query, limit)
	}
	if err != nil {
		if strings.Contains(err.Error(), "fts5:") || strings.Contains(err.Error(), "syntax error") {
			return nil, nil
		}
		return nil, fmt.Errorf("fts search failed: %w", err)
	}
	defer rows.Close()

	var out []FTSResult
	for rows.Next() {
		var r FTSResult
		if err := rows.Scan(&r.ChunkID, &r.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan fts result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Stats(ctx context.Context) (*IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docCount int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&docCount); err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	return &IndexStats{DocumentCount: docCount}, nil
}

// --- scan helpers ------------------------------------------------------------

type scannable interface {
	Scan(dest ...any) error
}

func scanCollection(row scannable) (*Collection, error) {
	var c Collection
	var folderPath sql.NullString
	var lastSync sql.NullInt64
	var createdAt, updatedAt int64
	err := row.Scan(&c.ID, &c.Name, &folderPath, &c.FileCount, &lastSync, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan collection: %w", err)
	}
	c.FolderPath = folderPath.String
	if lastSync.Valid {
		c.LastSync = time.Unix(lastSync.Int64, 0)
	}
	c.CreatedAt = time.Unix(createdAt, 0)
	c.UpdatedAt = time.Unix(updatedAt, 0)
	return &c, nil
}

func scanCollectionRows(rows *sql.Rows) (*Collection, error) { return scanCollection(rows) }

func scanDocument(row scannable) (*Document, error) {
	var d Document
	var status string
	var lastModified, createdAt int64
	err := row.Scan(&d.ID, &d.CollectionID, &d.Path, &d.Hash, &lastModified, &createdAt, &status)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	d.LastModified = time.Unix(lastModified, 0)
	d.CreatedAt = time.Unix(createdAt, 0)
	d.Status = DocumentStatus(status)
	return &d, nil
}

func scanDocumentRows(rows *sql.Rows) (*Document, error) { return scanDocument(rows) }

func scanChunk(row scannable) (*Chunk, error) {
	var c Chunk
	var metaJSON string
	var embedding []byte
	var createdAt int64
	err := row.Scan(&c.ID, &c.DocID, &c.Content, &metaJSON, &c.StartLine, &c.EndLine, &embedding, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan chunk: %w", err)
	}
	if err := json.Unmarshal([]byte(metaJSON), &c.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chunk metadata: %w", err)
	}
	c.Embedding = decodeEmbedding(embedding)
	c.CreatedAt = time.Unix(createdAt, 0)
	return &c, nil
}

func scanChunkRowsAll(rows *sql.Rows) ([]*Chunk, error) {
	var out []*Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func unixOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Unix()
}

// encodeEmbedding serializes a float32 vector as little-endian bytes for
// BLOB storage. Returns nil for a nil vector, never an empty non-nil slice.
func encodeEmbedding(v []float32) []byte {
	if v == nil {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeEmbedding(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
