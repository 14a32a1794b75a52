// Package searcher answers ranked-retrieval queries against a built index.
//
// An [Engine] wraps one immutable [indexer.Artifact] and is safe for
// concurrent queries. Scoring depends on the artifact's method:
//
//   - lexical: BM25 Okapi over whitespace tokens
//   - vector-space: cosine similarity of TF-IDF vectors
//   - hybrid: min-max fusion of dense-embedding similarity and BM25
//
// # Hybrid fusion
//
// The query is embedded with the same model that built the index. The top_k
// nearest chunks by inner product and the top_k chunks by BM25 form the
// candidate set (semantic candidates first). Each signal is min-max
// normalized over the candidates, a candidate absent from the semantic list
// counting as 0, and the two are combined as
//
//	fused = alpha*semantic + (1-alpha)*lexical
//
// with alpha = 0.6 by default. The embedding and the BM25 pass run
// concurrently.
//
// A hybrid index never degrades to lexical-only: a missing embedder, a
// different model, a vector of the wrong dimension or a provider error all
// fail the query with a RetrievalUnavailable error.
//
// # Usage
//
//	engine, err := searcher.Load(ctx, "data/index", searcher.WithEmbedder(e))
//	if err != nil {
//	    return err
//	}
//	results, err := engine.Query(ctx, "what is a cat", 3)
//
// Long-running processes can share engines through a [Cache], which reloads
// an index when its artifact file changes.
package searcher
