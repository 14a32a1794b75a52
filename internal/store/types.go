// Package store holds the in-memory index structures behind each retrieval
// method and the file primitives used to persist them.
//
// Lexical (BM25) and vector-space (TF-IDF) state are plain data with JSON
// tags so they can be embedded in the artifact document. Dense vectors live
// behind the DenseIndex interface and are serialized to a sibling file.
package store

import (
	"fmt"
	"io"
	"sort"
)

// Dense index backends.
const (
	BackendHNSW = "hnsw"
	BackendFlat = "flat"
)

// DenseHit is one nearest-neighbor result.
type DenseHit struct {
	// Position is the chunk's index in the corpus.
	Position int
	// Score is the inner product of the query and the stored vector.
	Score float64
}

// DenseIndex stores one unit-length vector per corpus position and answers
// inner-product nearest-neighbor queries.
type DenseIndex interface {
	// Add inserts vectors keyed by corpus position. All vectors must have
	// Dimensions() components.
	Add(positions []int, vectors [][]float32) error

	// Search returns up to k hits ordered by descending score, ties broken
	// by ascending position. Scores are exact inner products.
	Search(query []float32, k int) ([]DenseHit, error)

	// Len returns the number of stored vectors.
	Len() int

	// Dimensions returns the vector dimension.
	Dimensions() int

	// Backend names the implementation (BackendHNSW or BackendFlat).
	Backend() string

	// Save writes the index to w.
	Save(w io.Writer) error

	// Load replaces the index contents with data read from r.
	Load(r io.Reader) error

	// Verify checks that the index holds exactly vectors vectors, each at a
	// distinct position below docs.
	Verify(docs, vectors int) error
}

// DenseConfig configures a dense index.
type DenseConfig struct {
	Backend    string
	Dimensions int

	// HNSW tuning; ignored by the flat backend.
	M        int
	EfSearch int
	Seed     int64
}

// NewDenseIndex creates an empty dense index for cfg.Backend. An empty
// backend selects the flat index.
func NewDenseIndex(cfg DenseConfig) (DenseIndex, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("dense index dimensions must be positive, got %d", cfg.Dimensions)
	}
	switch cfg.Backend {
	case BackendFlat, "":
		return NewFlatIndex(cfg.Dimensions), nil
	case BackendHNSW:
		return NewHNSWIndex(cfg), nil
	default:
		return nil, fmt.Errorf("unknown dense index backend %q", cfg.Backend)
	}
}

// ErrDimensionMismatch indicates vector dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

// Dot returns the inner product of a and b accumulated in float64.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// isZero reports whether every component of v is zero.
func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// sortHits orders hits by descending score, ties by ascending position.
func sortHits(hits []DenseHit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Position < hits[j].Position
	})
}
