package store

import (
	"fmt"
	"math"
	"sort"
)

// BM25 Okapi defaults.
const (
	DefaultK1      = 1.5
	DefaultB       = 0.75
	DefaultEpsilon = 0.25
)

// BM25Params are the BM25 Okapi tuning parameters.
type BM25Params struct {
	K1      float64 `json:"k1"`
	B       float64 `json:"b"`
	Epsilon float64 `json:"epsilon"`
}

// DefaultBM25Params returns k1=1.5, b=0.75, epsilon=0.25.
func DefaultBM25Params() BM25Params {
	return BM25Params{K1: DefaultK1, B: DefaultB, Epsilon: DefaultEpsilon}
}

// BM25 holds lexical statistics for a corpus and scores queries with
// BM25 Okapi.
//
// The exported fields are the persisted state. Everything else (idf table,
// postings, average length) is derived by Prepare, so a decoded BM25 scores
// bit-for-bit the same as the one that was encoded.
type BM25 struct {
	BM25Params
	DocLengths []int            `json:"doc_lengths"`
	TermFreqs  []map[string]int `json:"term_freqs"`

	idf      map[string]float64
	postings map[string][]posting
	avgdl    float64
}

type posting struct {
	doc int
	tf  int
}

// NewBM25 computes statistics for tokenized documents.
func NewBM25(docs [][]string, params BM25Params) *BM25 {
	s := &BM25{
		BM25Params: params,
		DocLengths: make([]int, len(docs)),
		TermFreqs:  make([]map[string]int, len(docs)),
	}
	for i, tokens := range docs {
		freqs := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freqs[tok]++
		}
		s.DocLengths[i] = len(tokens)
		s.TermFreqs[i] = freqs
	}
	// State built here is consistent by construction.
	_ = s.Prepare()
	return s
}

// Prepare validates the persisted fields and derives the scoring tables.
// It must be called after decoding and before Scores.
func (s *BM25) Prepare() error {
	if len(s.DocLengths) != len(s.TermFreqs) {
		return fmt.Errorf("bm25: %d document lengths for %d term-frequency rows", len(s.DocLengths), len(s.TermFreqs))
	}

	total := 0
	docFreq := make(map[string]int)
	postings := make(map[string][]posting)
	for i, freqs := range s.TermFreqs {
		sum := 0
		for term, tf := range freqs {
			if tf <= 0 {
				return fmt.Errorf("bm25: document %d has non-positive frequency %d for %q", i, tf, term)
			}
			sum += tf
			docFreq[term]++
		}
		if sum != s.DocLengths[i] {
			return fmt.Errorf("bm25: document %d length %d does not match its %d term occurrences", i, s.DocLengths[i], sum)
		}
		total += sum
	}

	// Postings in ascending document order, independent of map iteration.
	for i, freqs := range s.TermFreqs {
		for term, tf := range freqs {
			postings[term] = append(postings[term], posting{doc: i, tf: tf})
		}
	}
	for _, list := range postings {
		sort.Slice(list, func(a, b int) bool { return list[a].doc < list[b].doc })
	}

	s.postings = postings
	s.idf = computeIDF(docFreq, len(s.TermFreqs), s.Epsilon)
	s.avgdl = 0
	if n := len(s.TermFreqs); n > 0 {
		s.avgdl = float64(total) / float64(n)
	}
	return nil
}

// computeIDF returns ln(N - n + 0.5) - ln(n + 0.5) per term, with negative
// values replaced by epsilon times the mean idf. Terms are visited in sorted
// order so the mean is reproducible.
func computeIDF(docFreq map[string]int, n int, epsilon float64) map[string]float64 {
	terms := make([]string, 0, len(docFreq))
	for term := range docFreq {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	idf := make(map[string]float64, len(terms))
	var sum float64
	var negative []string
	for _, term := range terms {
		df := float64(docFreq[term])
		v := math.Log(float64(n)-df+0.5) - math.Log(df+0.5)
		idf[term] = v
		sum += v
		if v < 0 {
			negative = append(negative, term)
		}
	}
	if len(terms) > 0 {
		floor := epsilon * (sum / float64(len(terms)))
		for _, term := range negative {
			idf[term] = floor
		}
	}
	return idf
}

// Scores returns the BM25 score of every document for the query tokens.
// Each query token contributes once per occurrence; tokens absent from the
// vocabulary contribute nothing. Documents without any query term score 0.
func (s *BM25) Scores(query []string) []float64 {
	scores := make([]float64, len(s.TermFreqs))
	if s.avgdl == 0 {
		return scores
	}

	k1, b := s.K1, s.B
	for _, q := range query {
		idf, ok := s.idf[q]
		if !ok {
			continue
		}
		for _, p := range s.postings[q] {
			tf := float64(p.tf)
			norm := k1 * (1 - b + b*float64(s.DocLengths[p.doc])/s.avgdl)
			scores[p.doc] += idf * (tf * (k1 + 1) / (tf + norm))
		}
	}
	return scores
}

// IDF returns the (floored) inverse document frequency of term.
func (s *BM25) IDF(term string) (float64, bool) {
	v, ok := s.idf[term]
	return v, ok
}

// Len returns the number of documents.
func (s *BM25) Len() int {
	return len(s.TermFreqs)
}

// VocabularySize returns the number of distinct terms.
func (s *BM25) VocabularySize() int {
	return len(s.idf)
}

// AverageLength returns the mean document length in tokens.
func (s *BM25) AverageLength() float64 {
	return s.avgdl
}
