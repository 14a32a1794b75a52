package store

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"sort"

	"github.com/coder/hnsw"
)

// HNSWIndex is an approximate nearest-neighbor index on coder/hnsw.
//
// Vectors are expected to be unit length, so cosine distance orders
// candidates the same way inner product does. Returned scores are recomputed
// exactly from the stored vectors.
//
// The graph walk is greedy and can miss true neighbors even on tiny graphs.
// While the index holds no more vectors than EfSearch and its positions are
// known (after Add or Verify), Search scans every vector instead and ranks
// exactly like the flat backend. Larger graphs are searched for
// max(k, EfSearch) candidates, which are rescored and cut to k; that result
// is approximate. Use the flat backend where rankings must be reproducible.
//
// Zero vectors have no direction and are not inserted; they can never be
// semantic candidates.
type HNSWIndex struct {
	graph *hnsw.Graph[uint64]
	dims  int

	// positions lists the stored keys in ascending order; nil after Load
	// until Verify runs.
	positions []int
}

// NewHNSWIndex creates an empty graph. Zero M, EfSearch fall back to 16, 64.
func NewHNSWIndex(cfg DenseConfig) *HNSWIndex {
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 64
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25
	graph.Rng = rand.New(rand.NewSource(cfg.Seed))

	return &HNSWIndex{graph: graph, dims: cfg.Dimensions}
}

// Add inserts vectors keyed by position.
func (h *HNSWIndex) Add(positions []int, vectors [][]float32) error {
	if len(positions) != len(vectors) {
		return fmt.Errorf("hnsw: positions and vectors length mismatch: %d vs %d", len(positions), len(vectors))
	}
	for _, v := range vectors {
		if len(v) != h.dims {
			return ErrDimensionMismatch{Expected: h.dims, Got: len(v)}
		}
	}
	known := h.positions != nil || h.graph.Len() == 0
	for i, pos := range positions {
		if isZero(vectors[i]) {
			continue
		}
		_, replaced := h.graph.Lookup(uint64(pos))
		vec := append([]float32(nil), vectors[i]...)
		h.graph.Add(hnsw.MakeNode(uint64(pos), vec))
		if known && !replaced {
			h.positions = append(h.positions, pos)
		}
	}
	if known {
		sort.Ints(h.positions)
	}
	return nil
}

// Search returns up to k hits with exact inner-product scores.
func (h *HNSWIndex) Search(query []float32, k int) ([]DenseHit, error) {
	if len(query) != h.dims {
		return nil, ErrDimensionMismatch{Expected: h.dims, Got: len(query)}
	}
	if k <= 0 || h.graph.Len() == 0 || isZero(query) {
		return nil, nil
	}

	var hits []DenseHit
	if h.graph.Len() <= h.graph.EfSearch && len(h.positions) == h.graph.Len() {
		hits = make([]DenseHit, 0, len(h.positions))
		for _, pos := range h.positions {
			vec, _ := h.graph.Lookup(uint64(pos))
			hits = append(hits, DenseHit{Position: pos, Score: Dot(query, vec)})
		}
	} else {
		nodes := h.graph.Search(query, max(k, h.graph.EfSearch))
		hits = make([]DenseHit, 0, len(nodes))
		for _, node := range nodes {
			hits = append(hits, DenseHit{Position: int(node.Key), Score: Dot(query, node.Value)})
		}
	}
	sortHits(hits)
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of stored vectors.
func (h *HNSWIndex) Len() int { return h.graph.Len() }

// Dimensions returns the vector dimension.
func (h *HNSWIndex) Dimensions() int { return h.dims }

// Backend returns BackendHNSW.
func (h *HNSWIndex) Backend() string { return BackendHNSW }

// Save exports the graph.
func (h *HNSWIndex) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := h.graph.Export(bw); err != nil {
		return fmt.Errorf("hnsw: export graph: %w", err)
	}
	return bw.Flush()
}

// Load imports a graph written by Save, keeping this index's dimension.
func (h *HNSWIndex) Load(r io.Reader) error {
	graph := hnsw.NewGraph[uint64]()
	// Import needs an io.ByteReader.
	if err := graph.Import(bufio.NewReader(r)); err != nil {
		return fmt.Errorf("hnsw: import graph: %w", err)
	}
	if graph.Len() > 0 {
		if d := graph.Dims(); d != h.dims {
			return ErrDimensionMismatch{Expected: h.dims, Got: d}
		}
	}
	graph.Rng = h.graph.Rng
	h.graph = graph
	h.positions = nil
	return nil
}

// Verify checks that the graph holds exactly vectors nodes, all keyed by
// positions below docs, and records those positions for exact scans.
func (h *HNSWIndex) Verify(docs, vectors int) error {
	if n := h.graph.Len(); n != vectors {
		return fmt.Errorf("hnsw: graph holds %d vectors, expected %d", n, vectors)
	}
	positions := make([]int, 0, vectors)
	for pos := 0; pos < docs && len(positions) < vectors; pos++ {
		if _, ok := h.graph.Lookup(uint64(pos)); ok {
			positions = append(positions, pos)
		}
	}
	if len(positions) != vectors {
		return fmt.Errorf("hnsw: %d of %d vectors are keyed outside 0..%d", vectors-len(positions), vectors, docs-1)
	}
	h.positions = positions
	return nil
}
