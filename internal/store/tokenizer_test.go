package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple", "the cat sat", []string{"the", "cat", "sat"}},
		{"no case folding", "The Cat", []string{"The", "Cat"}},
		{"punctuation stays attached", "sat. on, mat!", []string{"sat.", "on,", "mat!"}},
		{"mixed whitespace", " a\tb\n\nc  ", []string{"a", "b", "c"}},
		{"unicode", "café  naïve résumé", []string{"café", "naïve", "résumé"}},
		{"empty", "", []string{}},
		{"only spaces", "   \t\n", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.input))
		})
	}
}

func TestTokenize_KeepsDuplicates(t *testing.T) {
	assert.Equal(t, []string{"cat", "cat", "dog"}, Tokenize("cat cat dog"))
}
