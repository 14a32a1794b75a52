// Package corpus reads already-chunked text into an ordered corpus.
//
// The order of the returned slice is the chunk position used by the index,
// so every reader is deterministic. Chunking itself happens upstream.
package corpus

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Format names an input format.
type Format string

const (
	FormatAuto   Format = ""
	FormatJSONL  Format = "jsonl"
	FormatText   Format = "text"
	FormatSQLite Format = "sqlite"
)

// Source yields an ordered list of chunks.
type Source interface {
	Chunks(ctx context.Context) ([]string, error)
}

// ParseFormat validates a format name. Empty means detect from the path.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatAuto, FormatJSONL, FormatText, FormatSQLite:
		return f, nil
	case "txt":
		return FormatText, nil
	case "ndjson":
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("unknown corpus format %q (valid: jsonl, text, sqlite)", s)
	}
}

// DetectFormat guesses the format from the file extension, defaulting to text.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatText
	}
}

// Open returns a Source for path. FormatAuto detects from the extension.
func Open(path string, format Format) (Source, error) {
	if format == FormatAuto {
		format = DetectFormat(path)
	}
	switch format {
	case FormatJSONL:
		return &JSONLSource{Path: path}, nil
	case FormatText:
		return &TextSource{Path: path}, nil
	case FormatSQLite:
		return &SQLiteSource{Path: path}, nil
	default:
		return nil, fmt.Errorf("unknown corpus format %q", format)
	}
}

// Static is an in-memory Source.
type Static []string

// Chunks returns a copy of the slice.
func (s Static) Chunks(_ context.Context) ([]string, error) {
	return append([]string{}, s...), nil
}
