package cmd

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/ragcore/internal/output"
	"github.com/Aman-CERP/ragcore/pkg/searcher"
)

func newInfoCmd(root *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Describe the index at the configured location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := searcher.Load(cmd.Context(), root.cfg.Index.Location)
			if err != nil {
				return err
			}
			info := engine.Info()

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			out := output.New(cmd.OutOrStdout())
			out.Field("location", info.Location)
			out.Field("method", info.Method)
			out.Field("documents", info.Documents)
			out.Field("schema", info.SchemaVersion)
			out.Field("vocabulary", info.VocabularySize)
			if info.Model != "" {
				out.Field("model", info.Model)
				out.Field("dimensions", info.Dimensions)
				out.Field("backend", info.Backend)
			}
			out.Field("build id", info.BuildID)
			out.Field("built at", info.BuiltAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output index info as JSON")

	return cmd
}
