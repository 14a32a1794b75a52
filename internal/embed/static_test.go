package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEmbedder_Dimensions(t *testing.T) {
	assert.Equal(t, StaticDimensions, NewStaticEmbedder(0).Dimensions())
	assert.Equal(t, 64, NewStaticEmbedder(64).Dimensions())
	assert.Equal(t, "static-64", NewStaticEmbedder(64).ModelName())
}

func TestStaticEmbedder_UnitLengthAndDeterministic(t *testing.T) {
	// Given: two independent embedders
	a := NewStaticEmbedder(128)
	b := NewStaticEmbedder(128)

	// When: embedding the same text
	va, err := a.Embed(context.Background(), "the cat sat on the mat")
	require.NoError(t, err)
	vb, err := b.Embed(context.Background(), "the cat sat on the mat")
	require.NoError(t, err)

	// Then: vectors are identical and unit length
	assert.Equal(t, va, vb)
	assert.Len(t, va, 128)
	assert.InDelta(t, 1.0, vectorMagnitude(va), 1e-6)
}

func TestStaticEmbedder_SimilarTextsAreCloser(t *testing.T) {
	e := NewStaticEmbedder(256)
	ctx := context.Background()

	cat, _ := e.Embed(ctx, "the cat sat")
	cats, _ := e.Embed(ctx, "a cat sat down")
	stocks, _ := e.Embed(ctx, "quarterly revenue forecast")

	assert.Greater(t, cosineSimilarity(cat, cats), cosineSimilarity(cat, stocks))
}

func TestStaticEmbedder_BlankTextIsZeroVector(t *testing.T) {
	v, err := NewStaticEmbedder(32).Embed(context.Background(), "   ")

	require.NoError(t, err)
	assert.Len(t, v, 32)
	assert.Zero(t, vectorMagnitude(v))
}

func TestStaticEmbedder_EmbedBatch(t *testing.T) {
	e := NewStaticEmbedder(64)
	texts := []string{"one", "two", "three"}

	vecs, err := e.EmbedBatch(context.Background(), texts)

	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for i, text := range texts {
		single, err := e.Embed(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, single, vecs[i])
	}
}

func TestStaticEmbedder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStaticEmbedder(16).EmbedBatch(ctx, []string{"x"})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestStaticEmbedder_Closed(t *testing.T) {
	e := NewStaticEmbedder(16)
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "text")

	assert.Error(t, err)
}

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero := []float32{0, 0}
	assert.Equal(t, zero, NormalizeVector(zero))
}
