package embed

import (
	"context"
	"math"
	"time"
)

// Common embedding constants
const (
	// DefaultBatchSize is the default batch size for embedding requests
	DefaultBatchSize = 32

	// MaxBatchSize is the maximum allowed batch size (prevents memory exhaustion)
	MaxBatchSize = 256

	// DefaultTimeout bounds a single provider request
	DefaultTimeout = 60 * time.Second

	// StaticDimensions is the default embedding dimension for the static embedder
	StaticDimensions = 256
)

// Embedder generates vector embeddings for text.
//
// Implementations must return exactly one vector per input text, in order,
// all of length Dimensions(). Callers validate this and normalize the vectors
// themselves; an Embedder is not required to return unit vectors.
type Embedder interface {
	// Embed generates embedding for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension
	Dimensions() int

	// ModelName returns the model identifier recorded in built artifacts
	ModelName() string

	// Close releases resources
	Close() error
}

// NormalizeVector returns v scaled to unit length.
// A zero vector is returned unchanged.
func NormalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
