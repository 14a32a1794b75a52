package indexer

import (
	"strings"

	ragerrors "github.com/Aman-CERP/ragcore/internal/errors"
)

// Method names a retrieval strategy.
type Method string

const (
	// MethodLexical ranks by BM25 over whitespace tokens.
	MethodLexical Method = "lexical"

	// MethodVectorSpace ranks by TF-IDF cosine similarity.
	MethodVectorSpace Method = "vector-space"

	// MethodHybrid fuses BM25 with dense-embedding similarity.
	MethodHybrid Method = "hybrid"
)

// Methods lists the supported methods in a stable order.
func Methods() []Method {
	return []Method{MethodLexical, MethodVectorSpace, MethodHybrid}
}

// ParseMethod resolves a method name. "bm25" and "tfidf" are accepted as
// aliases of lexical and vector-space. Matching ignores case and
// surrounding spaces.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodLexical, MethodVectorSpace, MethodHybrid:
		return m, nil
	case "bm25":
		return MethodLexical, nil
	case "tfidf", "tf-idf", "vector_space":
		return MethodVectorSpace, nil
	default:
		return "", ragerrors.UnsupportedMethodError(s)
	}
}

// String returns the canonical name.
func (m Method) String() string {
	return string(m)
}

// valid reports whether m is one of the canonical names.
func (m Method) valid() bool {
	return m == MethodLexical || m == MethodVectorSpace || m == MethodHybrid
}
