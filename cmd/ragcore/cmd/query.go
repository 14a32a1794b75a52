package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/ragcore/internal/output"
	"github.com/Aman-CERP/ragcore/pkg/indexer"
	"github.com/Aman-CERP/ragcore/pkg/searcher"
)

// queryOptions holds CLI flags for query.
type queryOptions struct {
	topK       int
	alpha      float64
	jsonOutput bool
}

// queryResponse is the --json output.
type queryResponse struct {
	Query   string            `json:"query"`
	Method  string            `json:"method"`
	Results []searcher.Result `json:"results"`
}

func newQueryCmd(root *rootOptions) *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Query the index",
		Long: `Rank indexed chunks against a query with the index's method.

With a single "-" argument, queries are read from stdin one per line and
answered in order; a rebuilt index is picked up between queries.

Examples:
  ragcore query "what is a cat"
  ragcore query "cats and dogs" -k 5 --json
  ragcore query "renewal terms" --alpha 0.3
  cat queries.txt | ragcore query - --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && args[0] == "-" {
				return runQueryStream(cmd.Context(), cmd, root, cmd.InOrStdin(), opts)
			}
			return runQuery(cmd.Context(), cmd, root, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", 0, "Number of results (default: search.top_k)")
	cmd.Flags().Float64Var(&opts.alpha, "alpha", -1, "Semantic weight for hybrid fusion (default: fusion.alpha)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")

	return cmd
}

// engineOptions returns the engine options for art, creating the embedder a
// hybrid index needs. The returned cleanup closes it.
func engineOptions(ctx context.Context, root *rootOptions, art *indexer.Artifact, opts queryOptions) ([]searcher.Option, func(), error) {
	cfg := root.cfg
	alpha := cfg.Fusion.Alpha
	if opts.alpha >= 0 {
		alpha = opts.alpha
	}
	engineOpts := []searcher.Option{searcher.WithAlpha(alpha)}
	if art.Method != indexer.MethodHybrid {
		return engineOpts, func() {}, nil
	}

	embedder, err := newEmbedder(ctx, cfg, art.DenseMeta)
	if err != nil {
		return nil, nil, err
	}
	return append(engineOpts, searcher.WithEmbedder(embedder)), func() { _ = embedder.Close() }, nil
}

func (o queryOptions) k(root *rootOptions) int {
	if o.topK == 0 {
		return root.cfg.Search.TopK
	}
	return o.topK
}

func runQuery(ctx context.Context, cmd *cobra.Command, root *rootOptions, query string, opts queryOptions) error {
	art, err := indexer.Open(ctx, root.cfg.Index.Location)
	if err != nil {
		return err
	}
	engineOpts, cleanup, err := engineOptions(ctx, root, art, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	engine, err := searcher.NewEngine(art, engineOpts...)
	if err != nil {
		return err
	}
	results, err := engine.Query(ctx, query, opts.k(root))
	if err != nil {
		return err
	}
	return printResults(cmd.OutOrStdout(), query, engine.Method(), results, opts.jsonOutput)
}

// runQueryStream answers one query per input line. Engines come from a
// cache keyed on the artifact, so a rebuild between lines is reloaded.
func runQueryStream(ctx context.Context, cmd *cobra.Command, root *rootOptions, in io.Reader, opts queryOptions) error {
	cfg := root.cfg
	art, err := indexer.Open(ctx, cfg.Index.Location)
	if err != nil {
		return err
	}
	engineOpts, cleanup, err := engineOptions(ctx, root, art, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	cache, err := searcher.NewCache(cfg.Search.EngineCacheSize, engineOpts...)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		engine, err := cache.Get(ctx, cfg.Index.Location)
		if err != nil {
			return err
		}
		results, err := engine.Query(ctx, query, opts.k(root))
		if err != nil {
			return err
		}
		if err := printResults(cmd.OutOrStdout(), query, engine.Method(), results, opts.jsonOutput); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// printResults writes one query's results. JSON output is one object per
// query, so a stream of queries yields JSON Lines.
func printResults(w io.Writer, query string, method indexer.Method, results []searcher.Result, jsonOutput bool) error {
	if jsonOutput {
		return json.NewEncoder(w).Encode(queryResponse{Query: query, Method: string(method), Results: results})
	}

	out := output.New(w)
	if len(results) == 0 {
		out.Warning("index is empty")
		return nil
	}
	for i, r := range results {
		out.Result(i+1, r.Score, r.Position, r.Text)
	}
	return nil
}
