package store

import (
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis/tokenizer/character"
)

// whitespaceTokenizer emits maximal runs of non-space runes.
var whitespaceTokenizer = character.NewCharacterTokenizer(func(r rune) bool {
	return !unicode.IsSpace(r)
})

// Tokenize splits text on Unicode whitespace. There is no case folding,
// stemming, or stop-word removal: "Cat" and "cat" are different terms,
// and punctuation stays attached ("sat." is one token).
// Lexical and vector-space indexes use it for both documents and queries.
func Tokenize(text string) []string {
	stream := whitespaceTokenizer.Tokenize([]byte(text))
	tokens := make([]string, 0, len(stream))
	for _, tok := range stream {
		tokens = append(tokens, string(tok.Term))
	}
	return tokens
}
