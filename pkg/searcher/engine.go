package searcher

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/ragcore/internal/embed"
	ragerrors "github.com/Aman-CERP/ragcore/internal/errors"
	"github.com/Aman-CERP/ragcore/internal/store"
	"github.com/Aman-CERP/ragcore/pkg/indexer"
)

// Result is one ranked chunk.
type Result struct {
	// Text is the chunk exactly as it was indexed.
	Text string `json:"text"`

	// Score is the method's relevance score. Hybrid scores lie in [0, 1].
	Score float64 `json:"score"`

	// Position is the chunk's index in the corpus.
	Position int `json:"position"`
}

// Info summarizes a loaded index.
type Info struct {
	Location       string    `json:"location,omitempty"`
	Method         string    `json:"method"`
	Documents      int       `json:"documents"`
	SchemaVersion  int       `json:"schema_version"`
	VocabularySize int       `json:"vocabulary_size"`
	Dimensions     int       `json:"dimensions,omitempty"`
	Model          string    `json:"model,omitempty"`
	Backend        string    `json:"backend,omitempty"`
	BuildID        string    `json:"build_id"`
	BuiltAt        time.Time `json:"built_at"`
}

// Engine answers queries against one artifact. It is safe for concurrent
// use; nothing in it changes after construction.
type Engine struct {
	art      *indexer.Artifact
	location string
	embedder embed.Embedder
	alpha    float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithEmbedder sets the provider used to embed hybrid queries. It must be
// the model the index was built with.
func WithEmbedder(e embed.Embedder) Option {
	return func(eng *Engine) {
		eng.embedder = e
	}
}

// WithAlpha sets the semantic weight of hybrid fusion, in [0, 1].
func WithAlpha(alpha float64) Option {
	return func(eng *Engine) {
		eng.alpha = alpha
	}
}

// NewEngine wraps an artifact that is already in memory. An artifact whose
// state does not match its method is rejected as corrupt.
func NewEngine(art *indexer.Artifact, opts ...Option) (*Engine, error) {
	if art == nil {
		return nil, ragerrors.New(ragerrors.ErrCodeInvalidInput, "searcher: nil artifact", nil)
	}
	if err := art.Validate(); err != nil {
		return nil, err
	}
	eng := &Engine{art: art, alpha: DefaultAlpha}
	for _, opt := range opts {
		opt(eng)
	}
	if math.IsNaN(eng.alpha) || eng.alpha < 0 || eng.alpha > 1 {
		return nil, ragerrors.New(ragerrors.ErrCodeInvalidInput,
			fmt.Sprintf("fusion alpha must be within [0, 1], got %v", eng.alpha), nil)
	}
	return eng, nil
}

// Load opens the artifact persisted at location. A hybrid index loads
// without an embedder, but its queries then fail as unavailable.
func Load(ctx context.Context, location string, opts ...Option) (*Engine, error) {
	start := time.Now()
	art, err := indexer.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	eng, err := NewEngine(art, opts...)
	if err != nil {
		return nil, err
	}
	eng.location = location

	slog.Info("engine_loaded",
		slog.String("location", location),
		slog.String("method", string(art.Method)),
		slog.Int("documents", art.Len()),
		slog.Duration("duration", time.Since(start)))
	return eng, nil
}

// Method returns the index method.
func (e *Engine) Method() indexer.Method {
	return e.art.Method
}

// Len returns the number of indexed chunks.
func (e *Engine) Len() int {
	return e.art.Len()
}

// Info describes the loaded index.
func (e *Engine) Info() Info {
	info := Info{
		Location:      e.location,
		Method:        string(e.art.Method),
		Documents:     e.art.Len(),
		SchemaVersion: indexer.SchemaVersion,
		BuildID:       e.art.BuildID,
		BuiltAt:       e.art.BuiltAt,
	}
	switch {
	case e.art.Lexical != nil:
		info.VocabularySize = e.art.Lexical.VocabularySize()
	case e.art.VectorSpace != nil:
		info.VocabularySize = e.art.VectorSpace.VocabularySize()
	}
	if meta := e.art.DenseMeta; meta != nil {
		info.Dimensions = meta.Dimensions
		info.Model = meta.Model
		info.Backend = meta.Backend
	}
	return info
}

// Query returns up to topK chunks ranked by descending score, ties by
// ascending position. topK is clamped to [1, number of chunks]; an empty
// index returns an empty slice.
func (e *Engine) Query(ctx context.Context, text string, topK int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := e.art.Len()
	if n == 0 {
		return []Result{}, nil
	}
	k := min(max(topK, 1), n)

	start := time.Now()
	var (
		results []Result
		err     error
	)
	switch e.art.Method {
	case indexer.MethodLexical:
		results = e.ranked(e.art.Lexical.Scores(store.Tokenize(text)), k)
	case indexer.MethodVectorSpace:
		results = e.ranked(e.art.VectorSpace.Scores(store.Tokenize(text)), k)
	case indexer.MethodHybrid:
		results, err = e.hybrid(ctx, text, k)
	default:
		err = ragerrors.UnsupportedMethodError(string(e.art.Method))
	}
	if err != nil {
		slog.Debug("query_failed",
			slog.String("method", string(e.art.Method)),
			slog.String("error", err.Error()))
		return nil, err
	}

	slog.Debug("query_complete",
		slog.String("method", string(e.art.Method)),
		slog.Int("top_k", k),
		slog.Int("results", len(results)),
		slog.Duration("duration", time.Since(start)))
	return results, nil
}

func (e *Engine) ranked(scores []float64, k int) []Result {
	positions := topPositions(scores, k)
	results := make([]Result, len(positions))
	for i, p := range positions {
		results[i] = Result{Text: e.art.Documents[p], Score: scores[p], Position: p}
	}
	return results
}

func (e *Engine) hybrid(ctx context.Context, text string, k int) ([]Result, error) {
	if err := e.checkEmbedder(); err != nil {
		return nil, err
	}

	var (
		semantic []store.DenseHit
		lexical  []float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := e.semanticCandidates(gctx, text, k)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
		semantic = hits
		return nil
	})
	g.Go(func() error {
		lexical = e.art.Lexical.Scores(store.Tokenize(text))
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[int]bool, 2*k)
	candidates := make([]Candidate, 0, 2*k)
	for _, h := range semantic {
		if seen[h.Position] {
			continue
		}
		seen[h.Position] = true
		candidates = append(candidates, Candidate{Position: h.Position, Semantic: h.Score})
	}
	for _, p := range topPositions(lexical, k) {
		if seen[p] {
			continue
		}
		seen[p] = true
		candidates = append(candidates, Candidate{Position: p})
	}
	for i := range candidates {
		candidates[i].Lexical = lexical[candidates[i].Position]
	}

	fused := Fuse(candidates, e.alpha)
	if len(fused) > k {
		fused = fused[:k]
	}
	results := make([]Result, len(fused))
	for i, c := range fused {
		results[i] = Result{Text: e.art.Documents[c.Position], Score: c.Fused, Position: c.Position}
	}
	return results, nil
}

// checkEmbedder verifies the query-time embedder matches the index.
func (e *Engine) checkEmbedder() error {
	meta := e.art.DenseMeta
	if e.embedder == nil {
		return ragerrors.RetrievalUnavailableError("hybrid index requires an embedding provider", nil).
			WithDetail("model", meta.Model).
			WithSuggestion("configure the embedding provider the index was built with")
	}
	if got := e.embedder.ModelName(); got != meta.Model {
		return ragerrors.RetrievalUnavailableError(
			fmt.Sprintf("embedding model %q does not match index model %q", got, meta.Model), nil).
			WithSuggestion("rebuild the index or configure the matching model")
	}
	if dims := e.embedder.Dimensions(); dims > 0 && dims != meta.Dimensions {
		return ragerrors.RetrievalUnavailableError("embedding provider has the wrong dimension",
			ragerrors.DimensionMismatch{Expected: meta.Dimensions, Got: dims})
	}
	return nil
}

// semanticCandidates embeds the query and returns its k nearest chunks.
// A query without any embedding signal (a zero vector) has none.
func (e *Engine) semanticCandidates(ctx context.Context, text string, k int) ([]store.DenseHit, error) {
	meta := e.art.DenseMeta
	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, ragerrors.RetrievalUnavailableError("embedding provider failed", err).
			WithDetail("model", meta.Model)
	}
	if len(vec) != meta.Dimensions {
		return nil, ragerrors.RetrievalUnavailableError("query embedding has the wrong dimension",
			ragerrors.DimensionMismatch{Expected: meta.Dimensions, Got: len(vec)})
	}

	query := embed.NormalizeVector(vec)
	if store.Dot(query, query) == 0 {
		return nil, nil
	}

	hits, err := e.art.Dense.Search(query, k)
	if err != nil {
		return nil, ragerrors.RetrievalUnavailableError("dense search failed", err)
	}
	n := e.art.Len()
	valid := hits[:0]
	for _, h := range hits {
		if h.Position >= 0 && h.Position < n {
			valid = append(valid, h)
		}
	}
	return valid, nil
}
