package embed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ProviderType represents an embedding provider
type ProviderType string

const (
	// ProviderStatic uses hash-based embeddings (offline, deterministic)
	ProviderStatic ProviderType = "static"

	// ProviderOllama uses the Ollama HTTP API
	ProviderOllama ProviderType = "ollama"
)

// ParseProvider validates a provider name.
func ParseProvider(s string) (ProviderType, error) {
	switch p := ProviderType(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderStatic, ProviderOllama:
		return p, nil
	case "":
		return ProviderStatic, nil
	default:
		return "", fmt.Errorf("unknown embedding provider %q (valid: static, ollama)", s)
	}
}

// Options configures NewEmbedder.
type Options struct {
	Provider   ProviderType
	Model      string
	OllamaHost string
	Dimensions int
	BatchSize  int
	// CacheSize wraps the embedder in a CachedEmbedder when > 0.
	CacheSize int
}

// NewEmbedder creates the embedder selected by opts. An explicit provider
// that cannot be reached is an error; there is no silent fallback.
func NewEmbedder(ctx context.Context, opts Options) (Embedder, error) {
	var (
		embedder Embedder
		err      error
	)

	switch opts.Provider {
	case ProviderStatic, "":
		embedder = NewStaticEmbedder(opts.Dimensions)
	case ProviderOllama:
		cfg := DefaultOllamaConfig()
		if opts.OllamaHost != "" {
			cfg.Host = opts.OllamaHost
		}
		if opts.Model != "" {
			cfg.Model = opts.Model
		}
		cfg.Dimensions = opts.Dimensions
		if opts.BatchSize > 0 {
			cfg.BatchSize = opts.BatchSize
		}
		embedder, err = NewOllamaEmbedder(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("ollama unavailable at %s: %w", cfg.Host, err)
		}
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", opts.Provider)
	}

	slog.Debug("embedder_created",
		slog.String("provider", string(opts.Provider)),
		slog.String("model", embedder.ModelName()),
		slog.Int("dimensions", embedder.Dimensions()))

	if opts.CacheSize > 0 {
		embedder = NewCachedEmbedder(embedder, opts.CacheSize)
	}
	return embedder, nil
}
