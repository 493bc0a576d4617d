package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/raglite/raglite/pkg/types"
)

// SQLiteStore is the persistent default backend. Vectors live as
// little-endian float32 blobs next to chunk rows; similarity is computed in
// Go over the candidate set, so the pure-Go driver needs no extensions.
// Arbitrary deletion is cheap SQL, which makes this the right backend for
// frequent-deletion workloads.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	chunk_type TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL,
	start_line INTEGER NOT NULL,
	end_line INTEGER NOT NULL,
	token_count INTEGER NOT NULL,
	embedding BLOB NOT NULL,
	dimension INTEGER NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id);
`

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &types.InitializationError{Component: "sqlite store", Err: err}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &types.InitializationError{Component: "sqlite store", Err: err}
	}

	// Single writer; the indexer serializes store writes per file anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, &types.InitializationError{Component: "sqlite schema", Err: err}
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, &types.InitializationError{Component: "sqlite pragma", Err: err}
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Add implements Store.
func (s *SQLiteStore) Add(ctx context.Context, chunks []*types.Chunk) (int, error) {
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return 0, fmt.Errorf("chunk %s: %w", c.ID, types.ErrMissingEmbedding)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO chunks
		(id, document_id, chunk_type, name, content, start_line, end_line, token_count, embedding, dimension, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range chunks {
		meta, err := json.Marshal(c.Metadata)
		if err != nil {
			return 0, fmt.Errorf("marshal metadata for %s: %w", c.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.DocumentID, string(c.Type), c.Name, c.Content,
			c.StartLine, c.EndLine, c.TokenCount,
			serializeVector(c.Embedding), len(c.Embedding), string(meta),
		); err != nil {
			return 0, fmt.Errorf("insert chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(chunks), nil
}

// Search implements Store. Candidates are scanned and scored in Go with
// exact cosine similarity, then sorted and truncated.
func (s *SQLiteStore) Search(ctx context.Context, vector []float32, k int, filter *types.SearchFilter) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, embedding, metadata FROM chunks`)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var candidates []candidate
	for rows.Next() {
		var (
			id, docID, metaJSON string
			blob                []byte
		)
		if err := rows.Scan(&id, &docID, &blob, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		if filter != nil {
			probe := &types.Chunk{ID: id, DocumentID: docID}
			_ = json.Unmarshal([]byte(metaJSON), &probe.Metadata)
			if !matchesFilter(probe, filter) {
				continue
			}
		}

		emb := deserializeVector(blob)
		if len(emb) != len(vector) {
			continue // different embedding space, skip
		}
		candidates = append(candidates, candidate{id: id, score: cosineSimilarity(vector, emb)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return topK(candidates, k), nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	deleted := 0
	for _, id := range ids {
		res, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE id = ?`, id)
		if err != nil {
			return deleted, fmt.Errorf("delete chunk %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			deleted += int(n)
		}
	}
	return deleted, nil
}

// DeleteByDocument implements Store.
func (s *SQLiteStore) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID)
	if err != nil {
		return 0, fmt.Errorf("delete document %s: %w", documentID, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	return nil
}

// GetChunk implements Store.
func (s *SQLiteStore) GetChunk(ctx context.Context, id string) (*types.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, chunk_type, name, content, start_line, end_line, token_count, embedding, metadata
		FROM chunks WHERE id = ?`, id)

	var (
		c        types.Chunk
		chunkTyp string
		blob     []byte
		metaJSON string
	)
	err := row.Scan(&c.ID, &c.DocumentID, &chunkTyp, &c.Name, &c.Content,
		&c.StartLine, &c.EndLine, &c.TokenCount, &blob, &metaJSON)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chunk %s: %w", id, err)
	}

	c.Type = types.ChunkType(chunkTyp)
	c.Embedding = deserializeVector(blob)
	if err := json.Unmarshal([]byte(metaJSON), &c.Metadata); err != nil {
		c.Metadata = nil
	}
	return &c, nil
}

// AllChunkIDs implements Store.
func (s *SQLiteStore) AllChunkIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM chunks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Stats implements Store.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Backend: "sqlite"}
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT document_id), COALESCE(SUM(token_count), 0) FROM chunks`)
	if err := row.Scan(&stats.TotalChunks, &stats.TotalDocuments, &stats.TotalTokens); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return stats, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error { return s.db.Close() }
