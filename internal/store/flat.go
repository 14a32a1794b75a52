package store

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
)

// flatMagic prefixes a serialized FlatIndex.
const flatMagic = "RAGFLAT1"

// FlatIndex is an exact brute-force inner-product index. Search scans every
// stored vector, so results are exact and independent of insertion order.
type FlatIndex struct {
	dims      int
	positions []int
	vectors   [][]float32
	byPos     map[int]int
}

// NewFlatIndex creates an empty flat index of the given dimension.
func NewFlatIndex(dims int) *FlatIndex {
	return &FlatIndex{dims: dims, byPos: make(map[int]int)}
}

// Add inserts vectors keyed by position. Re-adding a position replaces it.
func (f *FlatIndex) Add(positions []int, vectors [][]float32) error {
	if len(positions) != len(vectors) {
		return fmt.Errorf("flat: positions and vectors length mismatch: %d vs %d", len(positions), len(vectors))
	}
	for _, v := range vectors {
		if len(v) != f.dims {
			return ErrDimensionMismatch{Expected: f.dims, Got: len(v)}
		}
	}
	for i, pos := range positions {
		vec := append([]float32(nil), vectors[i]...)
		if slot, ok := f.byPos[pos]; ok {
			f.vectors[slot] = vec
			continue
		}
		f.byPos[pos] = len(f.positions)
		f.positions = append(f.positions, pos)
		f.vectors = append(f.vectors, vec)
	}
	return nil
}

// Search returns the k best positions by inner product.
func (f *FlatIndex) Search(query []float32, k int) ([]DenseHit, error) {
	if len(query) != f.dims {
		return nil, ErrDimensionMismatch{Expected: f.dims, Got: len(query)}
	}
	if k <= 0 || len(f.vectors) == 0 {
		return nil, nil
	}

	hits := make([]DenseHit, len(f.vectors))
	for i, vec := range f.vectors {
		hits[i] = DenseHit{Position: f.positions[i], Score: Dot(query, vec)}
	}
	sortHits(hits)
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of stored vectors.
func (f *FlatIndex) Len() int { return len(f.vectors) }

// Dimensions returns the vector dimension.
func (f *FlatIndex) Dimensions() int { return f.dims }

// Backend returns BackendFlat.
func (f *FlatIndex) Backend() string { return BackendFlat }

// Save writes: magic, dims (uint32), count (uint32), then per entry
// position (uint32) and dims little-endian float32s. Entries are written in
// ascending position order.
func (f *FlatIndex) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(flatMagic); err != nil {
		return err
	}

	order := make([]int, len(f.positions))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return f.positions[order[a]] < f.positions[order[b]] })

	buf := make([]byte, 4)
	putU32 := func(v uint32) error {
		binary.LittleEndian.PutUint32(buf, v)
		_, err := bw.Write(buf)
		return err
	}
	if err := putU32(uint32(f.dims)); err != nil {
		return err
	}
	if err := putU32(uint32(len(order))); err != nil {
		return err
	}
	for _, slot := range order {
		if err := putU32(uint32(f.positions[slot])); err != nil {
			return err
		}
		for _, x := range f.vectors[slot] {
			if err := putU32(math.Float32bits(x)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Load replaces the contents with a stream written by Save.
func (f *FlatIndex) Load(r io.Reader) error {
	br := bufio.NewReader(r)
	magic := make([]byte, len(flatMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return fmt.Errorf("flat: read header: %w", err)
	}
	if string(magic) != flatMagic {
		return errors.New("flat: bad magic")
	}

	buf := make([]byte, 4)
	getU32 := func() (uint32, error) {
		if _, err := io.ReadFull(br, buf); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint32(buf), nil
	}

	dims, err := getU32()
	if err != nil {
		return fmt.Errorf("flat: read dims: %w", err)
	}
	if int64(dims) != int64(f.dims) {
		return ErrDimensionMismatch{Expected: f.dims, Got: int(dims)}
	}
	// count is not trusted for allocation; a short stream fails below.
	count, err := getU32()
	if err != nil {
		return fmt.Errorf("flat: read count: %w", err)
	}

	loaded := NewFlatIndex(int(dims))
	for n := uint32(0); n < count; n++ {
		pos, err := getU32()
		if err != nil {
			return fmt.Errorf("flat: truncated at entry %d: %w", n, err)
		}
		vec := make([]float32, dims)
		for j := range vec {
			bits, err := getU32()
			if err != nil {
				return fmt.Errorf("flat: truncated vector %d: %w", n, err)
			}
			vec[j] = math.Float32frombits(bits)
		}
		if err := loaded.Add([]int{int(pos)}, [][]float32{vec}); err != nil {
			return err
		}
	}
	if _, err := br.ReadByte(); err != io.EOF {
		return errors.New("flat: trailing data")
	}

	*f = *loaded
	return nil
}

// Verify checks the vector count and that every position is below docs.
func (f *FlatIndex) Verify(docs, vectors int) error {
	if len(f.vectors) != vectors {
		return fmt.Errorf("flat: holds %d vectors, expected %d", len(f.vectors), vectors)
	}
	for _, pos := range f.positions {
		if pos < 0 || pos >= docs {
			return fmt.Errorf("flat: position %d outside 0..%d", pos, docs-1)
		}
	}
	return nil
}
