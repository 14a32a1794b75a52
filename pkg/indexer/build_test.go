package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/ragcore/internal/embed"
	ragerrors "github.com/Aman-CERP/ragcore/internal/errors"
	"github.com/Aman-CERP/ragcore/internal/store"
)

var catCorpus = []string{"the cat sat", "the dog ran", "cats and dogs"}

// fakeEmbedder is an embed.Embedder with injectable failures.
type fakeEmbedder struct {
	dims     int
	model    string
	err      error
	short    bool // return one vector fewer than asked
	wrongDim bool // return vectors one component too long
	calls    int
}

func newFakeEmbedder(dims int) *fakeEmbedder {
	return &fakeEmbedder{dims: dims, model: "fake"}
}

func (f *fakeEmbedder) vector(text string) []float32 {
	n := f.dims
	if f.wrongDim {
		n++
	}
	v := make([]float32, n)
	for i, r := range text {
		v[(i+int(r))%n] += float32(r%7) + 1
	}
	return v
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector(text), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, f.vector(t))
	}
	if f.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int   { return f.dims }
func (f *fakeEmbedder) ModelName() string { return f.model }
func (f *fakeEmbedder) Close() error      { return nil }

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in   string
		want Method
	}{
		{"lexical", MethodLexical},
		{"vector-space", MethodVectorSpace},
		{"hybrid", MethodHybrid},
		{"BM25", MethodLexical},
		{" tfidf ", MethodVectorSpace},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMethod(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseMethod("dense")
	assert.ErrorIs(t, err, ragerrors.ErrUnsupportedMethod)
}

func TestBuild_UnsupportedMethod(t *testing.T) {
	_, err := Build(context.Background(), Method("semantic"), catCorpus)

	require.Error(t, err)
	assert.ErrorIs(t, err, ragerrors.ErrUnsupportedMethod)
}

func TestBuild_Lexical(t *testing.T) {
	art, err := Build(context.Background(), MethodLexical, catCorpus)

	require.NoError(t, err)
	assert.Equal(t, MethodLexical, art.Method)
	assert.Equal(t, catCorpus, art.Documents)
	require.NotNil(t, art.Lexical)
	assert.Nil(t, art.VectorSpace)
	assert.Nil(t, art.Dense)
	assert.Equal(t, 3, art.Lexical.Len())
	assert.Equal(t, []int{3, 3, 3}, art.Lexical.DocLengths)
	assert.NotEmpty(t, art.BuildID)
	assert.False(t, art.BuiltAt.IsZero())
}

func TestBuild_DocumentsAreCopied(t *testing.T) {
	corpus := []string{"a b", "c d"}

	art, err := Build(context.Background(), MethodLexical, corpus)
	require.NoError(t, err)
	corpus[0] = "mutated"

	assert.Equal(t, "a b", art.Documents[0])
}

func TestBuild_VectorSpace(t *testing.T) {
	art, err := Build(context.Background(), MethodVectorSpace, catCorpus)

	require.NoError(t, err)
	require.NotNil(t, art.VectorSpace)
	assert.Nil(t, art.Lexical)
	assert.Equal(t, []string{"and", "cat", "cats", "dog", "dogs", "ran", "sat", "the"}, art.VectorSpace.Vocabulary)
}

func TestBuild_Hybrid(t *testing.T) {
	// Given: an embedder and the flat backend
	e := newFakeEmbedder(8)

	// When: building a hybrid index with a small batch size
	var progress [][2]int
	art, err := Build(context.Background(), MethodHybrid, catCorpus, WithEmbedder(e), WithBatchSize(2),
		WithProgress(func(done, total int) { progress = append(progress, [2]int{done, total}) }))

	// Then: lexical state and one unit vector per chunk are present
	require.NoError(t, err)
	require.NotNil(t, art.Lexical)
	require.NotNil(t, art.Dense)
	require.NotNil(t, art.DenseMeta)
	assert.Equal(t, 3, art.Dense.Len())
	assert.Equal(t, 8, art.Dense.Dimensions())
	assert.Equal(t, store.BackendFlat, art.DenseMeta.Backend)
	assert.Equal(t, "fake", art.DenseMeta.Model)
	assert.Equal(t, 2, e.calls)
	assert.Equal(t, [][2]int{{2, 3}, {3, 3}}, progress)

	hits, err := art.Dense.Search(embed.NormalizeVector(e.vector("the cat sat")), 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 0, hits[0].Position)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestBuild_HybridHNSWBackend(t *testing.T) {
	art, err := Build(context.Background(), MethodHybrid, catCorpus,
		WithEmbedder(newFakeEmbedder(8)),
		WithDenseConfig(store.DenseConfig{Backend: store.BackendHNSW, M: 8, EfSearch: 32, Seed: 1}))

	require.NoError(t, err)
	assert.Equal(t, store.BackendHNSW, art.Dense.Backend())
	assert.Equal(t, 8, art.DenseMeta.M)
	assert.Equal(t, 32, art.DenseMeta.EfSearch)
	assert.Equal(t, len(catCorpus), art.DenseMeta.Vectors)
}

func TestArtifact_Validate(t *testing.T) {
	for _, m := range Methods() {
		art, err := Build(context.Background(), m, catCorpus, WithEmbedder(newFakeEmbedder(4)))
		require.NoError(t, err)
		assert.NoError(t, art.Validate(), m)
	}

	// Given: a hybrid artifact whose metadata miscounts its vectors
	art, err := Build(context.Background(), MethodHybrid, catCorpus, WithEmbedder(newFakeEmbedder(4)))
	require.NoError(t, err)
	meta := *art.DenseMeta
	meta.Vectors = 2
	art.DenseMeta = &meta

	// When: validating
	err = art.Validate()

	// Then: it is corrupt
	require.Error(t, err)
	assert.ErrorIs(t, err, ragerrors.ErrCorruptArtifact)
}

func TestBuild_HybridProviderFailures(t *testing.T) {
	tests := []struct {
		name     string
		embedder embed.Embedder
		dimError bool
	}{
		{"no embedder", nil, false},
		{"provider error", &fakeEmbedder{dims: 4, err: errors.New("connection refused")}, false},
		{"short batch", &fakeEmbedder{dims: 4, short: true}, false},
		{"wrong dimension", &fakeEmbedder{dims: 4, wrongDim: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.embedder != nil {
				opts = append(opts, WithEmbedder(tt.embedder))
			}

			art, err := Build(context.Background(), MethodHybrid, catCorpus, opts...)

			require.Error(t, err)
			assert.Nil(t, art)
			assert.ErrorIs(t, err, ragerrors.ErrEmbeddingProvider)
			if tt.dimError {
				assert.ErrorIs(t, err, ragerrors.ErrDimensionMismatch)
				var dm ragerrors.DimensionMismatch
				require.True(t, errors.As(err, &dm))
				assert.Equal(t, 4, dm.Expected)
				assert.Equal(t, 5, dm.Got)
			}
		})
	}
}

func TestBuild_EmptyCorpusAllMethods(t *testing.T) {
	for _, m := range Methods() {
		t.Run(string(m), func(t *testing.T) {
			art, err := Build(context.Background(), m, nil, WithEmbedder(newFakeEmbedder(4)))

			require.NoError(t, err)
			assert.Equal(t, 0, art.Len())
			assert.Nil(t, art.Dense)
		})
	}
}

func TestBuild_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, MethodLexical, catCorpus)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_InvalidUTF8IsCoerced(t *testing.T) {
	art, err := Build(context.Background(), MethodLexical, []string{"ok \xff bytes"})

	require.NoError(t, err)
	assert.Equal(t, "ok � bytes", art.Documents[0])
}

func TestAdd_AppendsAndKeepsParams(t *testing.T) {
	// Given: a lexical artifact with custom BM25 parameters
	params := store.BM25Params{K1: 1.2, B: 0.5, Epsilon: 0.1}
	base, err := Build(context.Background(), MethodLexical, catCorpus[:2], WithBM25Params(params))
	require.NoError(t, err)

	// When: adding a chunk
	grown, err := Add(context.Background(), base, catCorpus[2:])

	// Then: documents are concatenated, params reused, base untouched
	require.NoError(t, err)
	assert.Equal(t, catCorpus, grown.Documents)
	assert.Equal(t, params, grown.Lexical.BM25Params)
	assert.Len(t, base.Documents, 2)

	direct, err := Build(context.Background(), MethodLexical, catCorpus, WithBM25Params(params))
	require.NoError(t, err)
	assert.Equal(t, direct.Lexical.Scores([]string{"cat"}), grown.Lexical.Scores([]string{"cat"}))
}

func TestAdd_HybridReusesBackend(t *testing.T) {
	e := newFakeEmbedder(8)
	base, err := Build(context.Background(), MethodHybrid, catCorpus[:1], WithEmbedder(e),
		WithDenseConfig(store.DenseConfig{Backend: store.BackendHNSW, M: 8, EfSearch: 16}))
	require.NoError(t, err)

	grown, err := Add(context.Background(), base, catCorpus[1:], WithEmbedder(e))

	require.NoError(t, err)
	assert.Equal(t, store.BackendHNSW, grown.Dense.Backend())
	assert.Equal(t, 3, grown.Dense.Len())
}

func TestAdd_NilArtifact(t *testing.T) {
	_, err := Add(context.Background(), nil, catCorpus)

	assert.Error(t, err)
}
