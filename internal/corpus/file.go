package corpus

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineSize bounds a single chunk line.
const maxLineSize = 16 * 1024 * 1024

// JSONLSource reads one chunk per line. A line is either a JSON string or an
// object with a "text" (or "content") field. Blank lines are skipped.
type JSONLSource struct {
	Path string
}

// Chunks reads the file.
func (s *JSONLSource) Chunks(ctx context.Context) ([]string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadJSONL(ctx, f)
}

// ReadJSONL parses JSON Lines from r.
func ReadJSONL(ctx context.Context, r io.Reader) ([]string, error) {
	chunks := []string{}
	err := scanLines(ctx, r, func(lineNo int, line string) error {
		if strings.TrimSpace(line) == "" {
			return nil
		}
		text, err := decodeChunk([]byte(line))
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		chunks = append(chunks, text)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

func decodeChunk(data []byte) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, nil
	}

	var obj struct {
		Text    *string `json:"text"`
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", fmt.Errorf("invalid JSON chunk: %w", err)
	}
	switch {
	case obj.Text != nil:
		return *obj.Text, nil
	case obj.Content != nil:
		return *obj.Content, nil
	default:
		return "", fmt.Errorf(`chunk object has no "text" or "content" field`)
	}
}

// TextSource reads one chunk per non-blank line.
type TextSource struct {
	Path string
}

// Chunks reads the file.
func (s *TextSource) Chunks(ctx context.Context) ([]string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadText(ctx, f)
}

// ReadText returns every non-blank line of r, without its line ending.
func ReadText(ctx context.Context, r io.Reader) ([]string, error) {
	chunks := []string{}
	err := scanLines(ctx, r, func(_ int, line string) error {
		if strings.TrimSpace(line) != "" {
			chunks = append(chunks, line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

func scanLines(ctx context.Context, r io.Reader, fn func(lineNo int, line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := fn(lineNo, strings.TrimSuffix(scanner.Text(), "\r")); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read corpus: %w", err)
	}
	return nil
}
