package searcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinMaxNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"empty", nil, []float64{}},
		{"single", []float64{0.42}, []float64{1}},
		{"constant", []float64{0.3, 0.3, 0.3}, []float64{1, 1, 1}},
		{"below threshold", []float64{1, 1 + 1e-12}, []float64{1, 1}},
		{"spread", []float64{2, 4, 3}, []float64{0, 1, 0.5}},
		{"negative", []float64{-1, 0, 1}, []float64{0, 0.5, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MinMaxNormalize(tt.in))
		})
	}
}

func TestFuse_OrdersByFusedThenPosition(t *testing.T) {
	// Given: candidates in discovery order
	candidates := []Candidate{
		{Position: 4, Semantic: 0.9, Lexical: 0},
		{Position: 1, Semantic: 0.5, Lexical: 2},
		{Position: 2, Semantic: 0, Lexical: 4},
	}

	// When: fusing with the default weight
	fused := Fuse(candidates, DefaultAlpha)

	// Then: sem norm = [1, 5/9, 0], lex norm = [0, .5, 1]
	require.Len(t, fused, 3)
	assert.Equal(t, 4, fused[0].Position)
	assert.InDelta(t, 0.6, fused[0].Fused, 1e-12)
	assert.Equal(t, 1, fused[1].Position)
	assert.InDelta(t, 0.6*5.0/9.0+0.4*0.5, fused[1].Fused, 1e-12)
	assert.Equal(t, 2, fused[2].Position)
	assert.InDelta(t, 0.4, fused[2].Fused, 1e-12)

	assert.Zero(t, candidates[0].Fused, "input must not be modified")
}

func TestFuse_TiesBreakByPosition(t *testing.T) {
	fused := Fuse([]Candidate{
		{Position: 7, Semantic: 1, Lexical: 1},
		{Position: 3, Semantic: 1, Lexical: 1},
	}, 0.5)

	assert.Equal(t, 3, fused[0].Position)
	assert.Equal(t, 7, fused[1].Position)
	assert.Equal(t, 1.0, fused[0].Fused)
}

func TestFuse_AlphaExtremes(t *testing.T) {
	candidates := []Candidate{
		{Position: 0, Semantic: 0.1, Lexical: 9},
		{Position: 1, Semantic: 0.8, Lexical: 1},
		{Position: 2, Semantic: 0.5, Lexical: 5},
	}

	semanticOnly := Fuse(candidates, 1)
	lexicalOnly := Fuse(candidates, 0)

	assert.Equal(t, []int{1, 2, 0}, positions(semanticOnly))
	assert.Equal(t, []int{0, 2, 1}, positions(lexicalOnly))
}

func TestTopPositions(t *testing.T) {
	scores := []float64{0.5, 2, 0.5, 3, 0}

	assert.Equal(t, []int{3, 1}, topPositions(scores, 2))
	assert.Equal(t, []int{3, 1, 0, 2, 4}, topPositions(scores, 10))
}

func positions(cs []Candidate) []int {
	out := make([]int, len(cs))
	for i, c := range cs {
		out[i] = c.Position
	}
	return out
}
