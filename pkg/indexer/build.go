package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Aman-CERP/ragcore/internal/embed"
	ragerrors "github.com/Aman-CERP/ragcore/internal/errors"
	"github.com/Aman-CERP/ragcore/internal/store"
)

// Artifact is a built index: the corpus plus the state of one method.
//
// Lexical is set for lexical and hybrid, VectorSpace for vector-space, and
// Dense with DenseMeta for hybrid. Dense is nil for an empty hybrid corpus.
// An Artifact is not modified after Build or Open returns it.
type Artifact struct {
	Method    Method
	Documents []string

	Lexical     *store.BM25
	VectorSpace *store.TFIDF
	Dense       store.DenseIndex
	DenseMeta   *DenseMeta

	BuildID string
	BuiltAt time.Time
}

// DenseMeta describes the dense index of a hybrid artifact.
type DenseMeta struct {
	Backend    string `json:"backend"`
	Dimensions int    `json:"dimensions"`
	Model      string `json:"model"`
	M          int    `json:"m,omitempty"`
	EfSearch   int    `json:"ef_search,omitempty"`
	Seed       int64  `json:"seed,omitempty"`

	// Vectors is the number of vectors in the sidecar. The hnsw backend
	// skips zero vectors, so it can be below the document count.
	Vectors int `json:"vectors"`
}

// Len returns the number of documents.
func (a *Artifact) Len() int {
	return len(a.Documents)
}

// Validate checks that the state a carries matches its method and covers
// every document. Failures are CORRUPT_ARTIFACT errors.
func (a *Artifact) Validate() error {
	if !a.Method.valid() {
		return ragerrors.CorruptArtifactError(fmt.Sprintf("unknown method %q", a.Method), nil)
	}

	n := len(a.Documents)
	if a.Method == MethodLexical || a.Method == MethodHybrid {
		if a.Lexical == nil {
			return ragerrors.CorruptArtifactError("missing lexical state", nil)
		}
		if a.Lexical.Len() != n {
			return ragerrors.CorruptArtifactError(
				fmt.Sprintf("lexical state has %d rows for %d documents", a.Lexical.Len(), n), nil)
		}
	}
	if a.Method == MethodVectorSpace {
		if a.VectorSpace == nil {
			return ragerrors.CorruptArtifactError("missing vector-space state", nil)
		}
		if a.VectorSpace.Len() != n {
			return ragerrors.CorruptArtifactError(
				fmt.Sprintf("vector-space state has %d rows for %d documents", a.VectorSpace.Len(), n), nil)
		}
	}
	if a.Method != MethodHybrid {
		return nil
	}

	meta := a.DenseMeta
	if meta == nil {
		return ragerrors.CorruptArtifactError("missing dense metadata", nil)
	}
	if a.Dense == nil {
		if n > 0 || meta.Vectors != 0 {
			return ragerrors.CorruptArtifactError("hybrid artifact has no dense index", nil)
		}
		return nil
	}
	if a.Dense.Dimensions() != meta.Dimensions {
		return ragerrors.CorruptArtifactError("dense index dimension does not match metadata",
			ragerrors.DimensionMismatch{Expected: meta.Dimensions, Got: a.Dense.Dimensions()})
	}
	if a.Dense.Backend() == store.BackendFlat && meta.Vectors != n {
		return ragerrors.CorruptArtifactError(
			fmt.Sprintf("flat dense metadata records %d vectors for %d documents", meta.Vectors, n), nil)
	}
	if meta.Vectors > n {
		return ragerrors.CorruptArtifactError(
			fmt.Sprintf("dense metadata records %d vectors for %d documents", meta.Vectors, n), nil)
	}
	if err := a.Dense.Verify(n, meta.Vectors); err != nil {
		return ragerrors.CorruptArtifactError("dense index does not cover the documents", err)
	}
	return nil
}

// Option configures Build and Add.
type Option func(*buildOptions)

type buildOptions struct {
	embedder  embed.Embedder
	bm25      store.BM25Params
	dense     store.DenseConfig
	batchSize int
	progress  func(done, total int)
}

func defaultBuildOptions() buildOptions {
	return buildOptions{
		bm25:      store.DefaultBM25Params(),
		dense:     store.DenseConfig{Backend: store.BackendFlat, M: 16, EfSearch: 64, Seed: 42},
		batchSize: embed.DefaultBatchSize,
	}
}

// WithEmbedder sets the embedding provider used by hybrid builds.
func WithEmbedder(e embed.Embedder) Option {
	return func(o *buildOptions) {
		o.embedder = e
	}
}

// WithBM25Params overrides the BM25 tuning parameters.
func WithBM25Params(p store.BM25Params) Option {
	return func(o *buildOptions) {
		o.bm25 = p
	}
}

// WithDenseConfig selects the dense backend and its tuning. Dimensions is
// taken from the embedder and ignored here.
func WithDenseConfig(cfg store.DenseConfig) Option {
	return func(o *buildOptions) {
		o.dense = cfg
	}
}

// WithBatchSize sets how many chunks are sent to the embedder per request.
func WithBatchSize(n int) Option {
	return func(o *buildOptions) {
		if n > 0 {
			o.batchSize = min(n, embed.MaxBatchSize)
		}
	}
}

// WithProgress registers a callback invoked after each embedding batch with
// the number of chunks embedded so far.
func WithProgress(fn func(done, total int)) Option {
	return func(o *buildOptions) {
		o.progress = fn
	}
}

// Build constructs an index of corpus with the given method.
//
// An empty corpus is valid for every method and yields an index whose
// queries return nothing. Hybrid builds require WithEmbedder; any provider
// failure is returned as an EmbeddingProviderError and nothing is built.
// Cancelling ctx aborts the build with ctx.Err().
func Build(ctx context.Context, method Method, corpus []string, opts ...Option) (*Artifact, error) {
	m, err := ParseMethod(string(method))
	if err != nil {
		return nil, err
	}
	o := defaultBuildOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return build(ctx, m, corpus, o)
}

// Add returns a new artifact over existing.Documents followed by newChunks,
// built with the same method. Parameters recorded in existing are reused
// unless opts override them. existing is not modified.
func Add(ctx context.Context, existing *Artifact, newChunks []string, opts ...Option) (*Artifact, error) {
	if existing == nil {
		return nil, errors.New("indexer: nil artifact")
	}

	o := defaultBuildOptions()
	if existing.Lexical != nil {
		o.bm25 = existing.Lexical.BM25Params
	}
	if meta := existing.DenseMeta; meta != nil {
		o.dense = store.DenseConfig{Backend: meta.Backend, M: meta.M, EfSearch: meta.EfSearch, Seed: meta.Seed}
	}
	for _, opt := range opts {
		opt(&o)
	}

	corpus := make([]string, 0, len(existing.Documents)+len(newChunks))
	corpus = append(corpus, existing.Documents...)
	corpus = append(corpus, newChunks...)
	return build(ctx, existing.Method, corpus, o)
}

func build(ctx context.Context, method Method, corpus []string, o buildOptions) (*Artifact, error) {
	start := time.Now()
	slog.Info("index_build_started",
		slog.String("method", string(method)),
		slog.Int("documents", len(corpus)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Documents are stored as JSON strings; coercing here keeps the in-memory
	// artifact identical to what Open returns.
	docs := make([]string, len(corpus))
	tokens := make([][]string, len(corpus))
	for i, text := range corpus {
		docs[i] = strings.ToValidUTF8(text, "�")
		tokens[i] = store.Tokenize(docs[i])
		if i%4096 == 4095 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}

	art := &Artifact{
		Method:    method,
		Documents: docs,
		BuildID:   uuid.NewString(),
		BuiltAt:   time.Now().UTC().Truncate(time.Second),
	}

	switch method {
	case MethodLexical:
		art.Lexical = store.NewBM25(tokens, o.bm25)
	case MethodVectorSpace:
		art.VectorSpace = store.NewTFIDF(tokens)
	case MethodHybrid:
		art.Lexical = store.NewBM25(tokens, o.bm25)
		dense, meta, err := buildDense(ctx, docs, o)
		if err != nil {
			slog.Warn("index_build_failed",
				slog.String("method", string(method)),
				slog.String("error", err.Error()))
			return nil, err
		}
		art.Dense = dense
		art.DenseMeta = meta
	default:
		return nil, ragerrors.UnsupportedMethodError(string(method))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slog.Info("index_build_complete",
		slog.String("method", string(method)),
		slog.String("build_id", art.BuildID),
		slog.Int("documents", len(docs)),
		slog.Duration("duration", time.Since(start)))
	return art, nil
}

// buildDense embeds every document in batches and loads the normalized
// vectors into a dense index. Vectors must all have the embedder's
// dimension (or, if it reports none, the dimension of the first vector).
func buildDense(ctx context.Context, docs []string, o buildOptions) (store.DenseIndex, *DenseMeta, error) {
	if o.embedder == nil {
		return nil, nil, ragerrors.EmbeddingProviderError("hybrid index requires an embedding provider", nil)
	}

	dims := o.embedder.Dimensions()
	meta := &DenseMeta{
		Backend:    o.dense.Backend,
		Dimensions: dims,
		Model:      o.embedder.ModelName(),
		M:          o.dense.M,
		EfSearch:   o.dense.EfSearch,
		Seed:       o.dense.Seed,
	}
	if meta.Backend == "" {
		meta.Backend = store.BackendFlat
	}
	if meta.Backend == store.BackendFlat {
		meta.M, meta.EfSearch, meta.Seed = 0, 0, 0
	}
	if len(docs) == 0 {
		return nil, meta, nil
	}

	vectors := make([][]float32, 0, len(docs))
	for start := 0; start < len(docs); start += o.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		end := min(start+o.batchSize, len(docs))
		batch, err := o.embedder.EmbedBatch(ctx, docs[start:end])
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			return nil, nil, ragerrors.EmbeddingProviderError("embedding provider failed", err).
				WithDetail("model", meta.Model)
		}
		if len(batch) != end-start {
			return nil, nil, ragerrors.EmbeddingProviderError(
				fmt.Sprintf("embedding provider returned %d vectors for %d chunks", len(batch), end-start), nil).
				WithDetail("model", meta.Model)
		}
		for _, v := range batch {
			if dims <= 0 {
				dims = len(v)
			}
			if len(v) != dims || dims == 0 {
				return nil, nil, ragerrors.EmbeddingProviderError("embedding has the wrong dimension",
					ragerrors.DimensionMismatch{Expected: dims, Got: len(v)}).
					WithDetail("model", meta.Model)
			}
			vectors = append(vectors, embed.NormalizeVector(v))
		}
		if o.progress != nil {
			o.progress(len(vectors), len(docs))
		}
	}
	meta.Dimensions = dims

	dense, err := store.NewDenseIndex(store.DenseConfig{
		Backend:    meta.Backend,
		Dimensions: dims,
		M:          o.dense.M,
		EfSearch:   o.dense.EfSearch,
		Seed:       o.dense.Seed,
	})
	if err != nil {
		return nil, nil, err
	}
	positions := make([]int, len(vectors))
	for i := range positions {
		positions[i] = i
	}
	if err := dense.Add(positions, vectors); err != nil {
		return nil, nil, fmt.Errorf("failed to index embeddings: %w", err)
	}
	meta.Vectors = dense.Len()
	return dense, meta, nil
}
