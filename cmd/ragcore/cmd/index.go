package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/ragcore/internal/corpus"
	"github.com/Aman-CERP/ragcore/internal/embed"
	"github.com/Aman-CERP/ragcore/internal/output"
	"github.com/Aman-CERP/ragcore/internal/preflight"
	"github.com/Aman-CERP/ragcore/pkg/indexer"
)

// corpusFlags are shared by index and add.
type corpusFlags struct {
	format string
	query  string
}

func (f *corpusFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "", "Corpus format: jsonl, text, sqlite (default: from extension)")
	cmd.Flags().StringVar(&f.query, "sql", "", "SQL selecting one text column (sqlite only)")
}

func (f *corpusFlags) read(ctx context.Context, path string) ([]string, error) {
	format, err := corpus.ParseFormat(f.format)
	if err != nil {
		return nil, err
	}
	src, err := corpus.Open(path, format)
	if err != nil {
		return nil, err
	}
	if s, ok := src.(*corpus.SQLiteSource); ok {
		s.Query = f.query
	} else if f.query != "" {
		return nil, fmt.Errorf("--sql only applies to sqlite corpora")
	}
	return src.Chunks(ctx)
}

func newIndexCmd(root *rootOptions) *cobra.Command {
	var (
		method string
		flags  corpusFlags
	)

	cmd := &cobra.Command{
		Use:   "index <corpus>",
		Short: "Build an index from a chunked corpus",
		Long: `Build an index from a corpus of already-chunked text and persist it,
replacing any index at the target location.

The corpus is a JSON Lines file (one {"text": ...} object or string per
line), a plain text file (one chunk per line), or a SQLite ingestion
database with a chunks table.

Examples:
  ragcore index chunks.jsonl
  ragcore index notes.txt --method vector-space
  ragcore index ingestion.db --method hybrid --index data/hybrid`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), cmd, root, args[0], method, flags)
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", "", "Index method: lexical, vector-space, hybrid (default: index.method)")
	flags.register(cmd)

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, root *rootOptions, path, methodName string, flags corpusFlags) error {
	cfg := root.cfg
	out := output.New(cmd.OutOrStdout())

	if methodName == "" {
		methodName = cfg.Index.Method
	}
	method, err := indexer.ParseMethod(methodName)
	if err != nil {
		return err
	}

	checker := preflight.New()
	for _, r := range []preflight.CheckResult{
		checker.CheckDiskSpace(cfg.Index.Location),
		checker.CheckWritePermissions(cfg.Index.Location),
	} {
		if r.IsCritical() {
			return fmt.Errorf("%s check failed for %s: %s", r.Name, cfg.Index.Location, r.Message)
		}
	}

	chunks, err := flags.read(ctx, path)
	if err != nil {
		return err
	}
	out.Statusf("📂", "Read %d chunks from %s", len(chunks), path)

	var embedder embed.Embedder
	if method == indexer.MethodHybrid {
		embedder, err = newEmbedder(ctx, cfg, nil)
		if err != nil {
			return err
		}
		defer func() { _ = embedder.Close() }()
	}

	start := time.Now()
	opts := append(buildOptions(cfg, embedder), indexer.WithProgress(func(done, total int) {
		out.Progress(done, total, "Embedding chunks")
	}))
	art, err := indexer.BuildAndPersist(ctx, method, chunks, cfg.Index.Location, opts...)
	if err != nil {
		return err
	}

	slog.Info("index_command_complete",
		slog.String("location", cfg.Index.Location),
		slog.Duration("duration", time.Since(start)))
	out.Successf("Built %s index of %d chunks in %s", art.Method, art.Len(), cfg.Index.Location)
	return nil
}

func newAddCmd(root *rootOptions) *cobra.Command {
	var flags corpusFlags

	cmd := &cobra.Command{
		Use:   "add <corpus>",
		Short: "Append chunks to an existing index and rebuild it",
		Long: `Append the chunks of a corpus to the index at the configured location.
The index is rebuilt over the old chunks followed by the new ones, with the
method and parameters it was built with.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd.Context(), cmd, root, args[0], flags)
		},
	}
	flags.register(cmd)

	return cmd
}

func runAdd(ctx context.Context, cmd *cobra.Command, root *rootOptions, path string, flags corpusFlags) error {
	cfg := root.cfg
	out := output.New(cmd.OutOrStdout())

	existing, err := indexer.Open(ctx, cfg.Index.Location)
	if err != nil {
		return err
	}
	chunks, err := flags.read(ctx, path)
	if err != nil {
		return err
	}

	var opts []indexer.Option
	if existing.Method == indexer.MethodHybrid {
		embedder, err := newEmbedder(ctx, cfg, existing.DenseMeta)
		if err != nil {
			return err
		}
		defer func() { _ = embedder.Close() }()
		opts = append(opts, indexer.WithEmbedder(embedder), indexer.WithBatchSize(cfg.Embeddings.BatchSize),
			indexer.WithProgress(func(done, total int) {
				out.Progress(done, total, "Embedding chunks")
			}))
		if embedder.ModelName() != existing.DenseMeta.Model {
			out.Warningf("embedding model changed from %s to %s", existing.DenseMeta.Model, embedder.ModelName())
		}
	}

	art, err := indexer.Add(ctx, existing, chunks, opts...)
	if err != nil {
		return err
	}
	if err := indexer.Persist(ctx, art, cfg.Index.Location); err != nil {
		return err
	}

	out.Successf("Added %d chunks; %s index now holds %d", len(chunks), art.Method, art.Len())
	return nil
}
