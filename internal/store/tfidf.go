package store

import (
	"fmt"
	"math"
	"sort"
)

// SparseRow is one L2-normalized document vector over the vocabulary.
// Indices are ascending.
type SparseRow struct {
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// TFIDF is a vector-space term-weighting model: sorted vocabulary, smoothed
// idf ln((1+N)/(1+df)) + 1, raw-count tf times idf, rows scaled to unit
// length. Scores are cosine similarities.
type TFIDF struct {
	Vocabulary []string    `json:"vocabulary"`
	IDF        []float64   `json:"idf"`
	Rows       []SparseRow `json:"rows"`

	index map[string]int
}

// NewTFIDF fits the model to tokenized documents.
func NewTFIDF(docs [][]string) *TFIDF {
	counts := make([]map[string]int, len(docs))
	docFreq := make(map[string]int)
	for i, tokens := range docs {
		c := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			c[tok]++
		}
		for term := range c {
			docFreq[term]++
		}
		counts[i] = c
	}

	vocab := make([]string, 0, len(docFreq))
	for term := range docFreq {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)

	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	index := make(map[string]int, len(vocab))
	for i, term := range vocab {
		idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
		index[term] = i
	}

	m := &TFIDF{
		Vocabulary: vocab,
		IDF:        idf,
		Rows:       make([]SparseRow, len(docs)),
		index:      index,
	}
	for i, c := range counts {
		m.Rows[i] = m.weigh(c)
	}
	return m
}

// weigh turns term counts into a normalized sparse row. Terms outside the
// vocabulary are dropped.
func (m *TFIDF) weigh(counts map[string]int) SparseRow {
	indices := make([]int, 0, len(counts))
	for term := range counts {
		if idx, ok := m.index[term]; ok {
			indices = append(indices, idx)
		}
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	var sumSquares float64
	for j, idx := range indices {
		v := float64(counts[m.Vocabulary[idx]]) * m.IDF[idx]
		values[j] = v
		sumSquares += v * v
	}
	if norm := math.Sqrt(sumSquares); norm > 0 {
		for j := range values {
			values[j] /= norm
		}
	}
	return SparseRow{Indices: indices, Values: values}
}

// Prepare validates the persisted fields and rebuilds the term index.
func (m *TFIDF) Prepare() error {
	if len(m.Vocabulary) != len(m.IDF) {
		return fmt.Errorf("tfidf: %d vocabulary terms for %d idf weights", len(m.Vocabulary), len(m.IDF))
	}
	index := make(map[string]int, len(m.Vocabulary))
	for i, term := range m.Vocabulary {
		if i > 0 && m.Vocabulary[i-1] >= term {
			return fmt.Errorf("tfidf: vocabulary not strictly sorted at %d", i)
		}
		index[term] = i
	}
	for r, row := range m.Rows {
		if len(row.Indices) != len(row.Values) {
			return fmt.Errorf("tfidf: row %d has %d indices and %d values", r, len(row.Indices), len(row.Values))
		}
		for j, idx := range row.Indices {
			if idx < 0 || idx >= len(m.Vocabulary) {
				return fmt.Errorf("tfidf: row %d index %d out of range", r, idx)
			}
			if j > 0 && row.Indices[j-1] >= idx {
				return fmt.Errorf("tfidf: row %d indices not ascending", r)
			}
		}
	}
	m.index = index
	return nil
}

// Scores projects the query tokens into the vocabulary and returns the
// cosine similarity with every document. Unknown tokens are ignored; a query
// with no known tokens scores 0 everywhere.
func (m *TFIDF) Scores(query []string) []float64 {
	scores := make([]float64, len(m.Rows))

	counts := make(map[string]int, len(query))
	for _, tok := range query {
		counts[tok]++
	}
	q := m.weigh(counts)
	if len(q.Indices) == 0 {
		return scores
	}

	qv := make(map[int]float64, len(q.Indices))
	for j, idx := range q.Indices {
		qv[idx] = q.Values[j]
	}
	for r, row := range m.Rows {
		var dot float64
		for j, idx := range row.Indices {
			if w, ok := qv[idx]; ok {
				dot += row.Values[j] * w
			}
		}
		scores[r] = dot
	}
	return scores
}

// Len returns the number of documents.
func (m *TFIDF) Len() int {
	return len(m.Rows)
}

// VocabularySize returns the number of distinct terms.
func (m *TFIDF) VocabularySize() int {
	return len(m.Vocabulary)
}
