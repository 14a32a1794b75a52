// Package cmd provides the CLI commands for ragcore.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/ragcore/internal/config"
	"github.com/Aman-CERP/ragcore/internal/embed"
	"github.com/Aman-CERP/ragcore/internal/logging"
	"github.com/Aman-CERP/ragcore/internal/profiling"
	"github.com/Aman-CERP/ragcore/internal/store"
	"github.com/Aman-CERP/ragcore/pkg/indexer"
	"github.com/Aman-CERP/ragcore/pkg/version"
)

// rootOptions holds persistent flags and the state they produce.
type rootOptions struct {
	configPath string
	location   string
	debug      bool
	profile    profiling.Options

	cfg            *config.Config
	loggingCleanup func()
	profiler       *profiling.Profiler
}

// NewRootCmd creates the root command for the ragcore CLI.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *rootOptions) {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ragcore",
		Short: "Build and query lexical, vector-space and hybrid retrieval indexes",
		Long: `ragcore indexes a corpus of text chunks and answers ranked retrieval
queries with BM25, TF-IDF, or a fusion of BM25 and dense embeddings.

Configuration is read from .ragcore.yaml in the working directory (or
--config), then RAGCORE_* environment variables.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("ragcore version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a config file (default: ./.ragcore.yaml)")
	cmd.PersistentFlags().StringVarP(&opts.location, "index", "i", "", "Index directory (overrides index.location)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging to ~/.ragcore/logs/")
	cmd.PersistentFlags().StringVar(&opts.profile.CPU, "cpuprofile", "", "Write a CPU profile to this file")
	cmd.PersistentFlags().StringVar(&opts.profile.Heap, "memprofile", "", "Write a heap profile to this file on exit")
	cmd.PersistentFlags().StringVar(&opts.profile.Trace, "trace", "", "Write an execution trace to this file")

	cmd.PersistentPreRunE = opts.setup
	cmd.PersistentPostRunE = opts.teardown

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newIndexCmd(opts))
	cmd.AddCommand(newAddCmd(opts))
	cmd.AddCommand(newQueryCmd(opts))
	cmd.AddCommand(newInfoCmd(opts))
	cmd.AddCommand(newDoctorCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd, opts
}

// Execute runs the root command. Logging and profiles are flushed even when
// the command fails.
func Execute() error {
	cmd, opts := newRootCmd()
	err := cmd.Execute()
	if terr := opts.teardown(cmd, nil); err == nil {
		err = terr
	}
	return err
}

// setup loads configuration and installs logging.
func (o *rootOptions) setup(cmd *cobra.Command, _ []string) error {
	switch cmd.Name() {
	case "version", "init":
		return nil
	}

	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		dir, werr := os.Getwd()
		if werr != nil {
			return fmt.Errorf("failed to get working directory: %w", werr)
		}
		cfg, err = config.Load(dir)
	}
	if err != nil {
		return err
	}
	if o.location != "" {
		cfg.Index.Location = o.location
	}
	o.cfg = cfg

	logCfg := logging.DefaultConfig()
	switch {
	case o.debug:
		logCfg = logging.DebugConfig()
	case cfg.Log.File != "":
		logCfg.Level = cfg.Log.Level
		logCfg.FilePath = cfg.Log.File
		logCfg.WriteToStderr = false
	default:
		// Keep the terminal for results; library events stay quiet.
		logCfg.Level = "warn"
	}
	cleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	o.loggingCleanup = cleanup

	if o.debug {
		slog.Info("debug_logging_enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	}

	if o.profile.Enabled() {
		p, err := profiling.Start(o.profile)
		if err != nil {
			return err
		}
		o.profiler = p
	}
	return nil
}

func (o *rootOptions) teardown(_ *cobra.Command, _ []string) error {
	var err error
	if o.profiler != nil {
		err = o.profiler.Stop()
		o.profiler = nil
	}
	if o.loggingCleanup != nil {
		o.loggingCleanup()
		o.loggingCleanup = nil
	}
	return err
}

// newEmbedder creates the configured embedding provider. When meta is set
// (an existing hybrid index), unset model and dimension settings default to
// the ones the index was built with.
func newEmbedder(ctx context.Context, cfg *config.Config, meta *indexer.DenseMeta) (embed.Embedder, error) {
	provider, err := embed.ParseProvider(cfg.Embeddings.Provider)
	if err != nil {
		return nil, err
	}
	opts := embed.Options{
		Provider:   provider,
		Model:      cfg.Embeddings.Model,
		OllamaHost: cfg.Embeddings.OllamaHost,
		Dimensions: cfg.Embeddings.Dimensions,
		BatchSize:  cfg.Embeddings.BatchSize,
		CacheSize:  cfg.Embeddings.CacheSize,
	}
	if meta != nil {
		if opts.Dimensions == 0 {
			opts.Dimensions = meta.Dimensions
		}
		if opts.Model == "" && provider == embed.ProviderOllama {
			opts.Model = meta.Model
		}
	}
	return embed.NewEmbedder(ctx, opts)
}

// buildOptions maps configuration onto indexer options.
func buildOptions(cfg *config.Config, embedder embed.Embedder) []indexer.Option {
	opts := []indexer.Option{
		indexer.WithBM25Params(store.BM25Params{
			K1:      cfg.Lexical.K1,
			B:       cfg.Lexical.B,
			Epsilon: cfg.Lexical.Epsilon,
		}),
		indexer.WithDenseConfig(store.DenseConfig{
			Backend:  cfg.Index.VectorBackend,
			M:        cfg.HNSW.M,
			EfSearch: cfg.HNSW.EfSearch,
			Seed:     cfg.HNSW.Seed,
		}),
		indexer.WithBatchSize(cfg.Embeddings.BatchSize),
	}
	if embedder != nil {
		opts = append(opts, indexer.WithEmbedder(embedder))
	}
	return opts
}
