package cmd

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/ragcore/internal/embed"
	"github.com/Aman-CERP/ragcore/internal/preflight"
)

// errDoctorFailed is returned when a required check fails.
var errDoctorFailed = errors.New("system check failed")

func newDoctorCmd(root *rootOptions) *cobra.Command {
	var (
		verbose    bool
		jsonOutput bool
		noEmbedder bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the index location and embedding provider",
		Long: `Run diagnostics for the configured index location.

Checks:
  - Disk space (100MB minimum)
  - Write permissions
  - Embedding provider (a test embedding)
  - The persisted index, if any

Embedder failures are warnings: only hybrid indexes need one.`,
		Example: `  ragcore doctor
  ragcore doctor --verbose
  ragcore doctor --json --no-embedder`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := root.cfg

			var embedder embed.Embedder
			if !noEmbedder {
				e, err := newEmbedder(ctx, cfg, nil)
				if err != nil {
					return err
				}
				defer func() { _ = e.Close() }()
				embedder = e
			}

			checker := preflight.New(
				preflight.WithVerbose(verbose),
				preflight.WithOutput(cmd.OutOrStdout()),
			)
			results := checker.RunAll(ctx, cfg.Index.Location, embedder)

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(map[string]any{
					"status": checker.SummaryStatus(results),
					"checks": results,
				}); err != nil {
					return err
				}
			} else {
				checker.PrintResults(results)
			}

			if checker.HasCriticalFailures(results) {
				return errDoctorFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&noEmbedder, "no-embedder", false, "Skip the embedding provider check")

	return cmd
}
