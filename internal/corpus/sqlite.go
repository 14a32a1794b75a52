package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// DefaultChunksQuery reads the ingestion schema's chunks table in document
// order.
const DefaultChunksQuery = `SELECT content FROM chunks ORDER BY file_id, chunk_index, id`

// SQLiteSource reads chunks from an ingestion database with the table
// chunks(id, file_id, chunk_index, content). NULL content reads as "".
type SQLiteSource struct {
	Path string
	// Query overrides DefaultChunksQuery. It must select one text column.
	Query string
}

// Chunks opens the database read-only and runs the query.
func (s *SQLiteSource) Chunks(ctx context.Context) ([]string, error) {
	db, err := sql.Open("sqlite", "file:"+s.Path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open ingestion database: %w", err)
	}
	defer func() { _ = db.Close() }()

	query := s.Query
	if query == "" {
		query = DefaultChunksQuery
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	chunks := []string{}
	for rows.Next() {
		var content sql.NullString
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, content.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunks: %w", err)
	}

	slog.Debug("corpus_loaded",
		slog.String("source", "sqlite"),
		slog.String("path", s.Path),
		slog.Int("chunks", len(chunks)))
	return chunks, nil
}
