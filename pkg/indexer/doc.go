// Package indexer builds and persists retrieval indexes over an ordered
// corpus of text chunks.
//
// Three methods are supported:
//
//	lexical       BM25 Okapi statistics over whitespace tokens
//	vector-space  TF-IDF rows, L2-normalized, scored by cosine similarity
//	hybrid        BM25 statistics plus one dense embedding per chunk
//
// A build is a pure function of (method, corpus, options). Adding chunks
// rebuilds over the old corpus followed by the new chunks.
//
// # Layout
//
// Persist writes a directory:
//
//	location/
//	  artifact.json         documents and method state
//	  dense-<build-id>.flat dense vectors (hybrid only; .hnsw for the graph backend)
//	  .build.lock           advisory writer lock
//
// The dense file is written before the artifact that references it, and
// artifact.json is replaced atomically, so a reader always sees a complete
// artifact. Open reads it back and verifies it.
//
// # Usage
//
//	art, err := indexer.Build(ctx, indexer.MethodHybrid, chunks,
//	    indexer.WithEmbedder(embedder))
//	if err != nil {
//	    return err
//	}
//	if err := indexer.Persist(ctx, art, "data/index"); err != nil {
//	    return err
//	}
package indexer
