package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete ragcore configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Index      IndexConfig      `yaml:"index" json:"index"`
	Lexical    LexicalConfig    `yaml:"lexical" json:"lexical"`
	Fusion     FusionConfig     `yaml:"fusion" json:"fusion"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	HNSW       HNSWConfig       `yaml:"hnsw" json:"hnsw"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Log        LogConfig        `yaml:"log" json:"log"`
}

// IndexConfig selects where and how the index is built.
type IndexConfig struct {
	// Location is the artifact directory.
	Location string `yaml:"location" json:"location"`
	// Method is one of lexical, vector-space, hybrid (aliases bm25, tfidf).
	Method string `yaml:"method" json:"method"`
	// VectorBackend selects the dense index for hybrid: "flat" (exact) or "hnsw".
	VectorBackend string `yaml:"vector_backend" json:"vector_backend"`
}

// LexicalConfig holds the BM25 Okapi parameters.
type LexicalConfig struct {
	K1      float64 `yaml:"k1" json:"k1"`
	B       float64 `yaml:"b" json:"b"`
	Epsilon float64 `yaml:"epsilon" json:"epsilon"`
}

// FusionConfig configures hybrid score fusion.
type FusionConfig struct {
	// Alpha weights the semantic side: fused = alpha*sem + (1-alpha)*lex.
	Alpha float64 `yaml:"alpha" json:"alpha"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	Provider   string `yaml:"provider" json:"provider"`
	Model      string `yaml:"model" json:"model"`
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"` // empty uses http://localhost:11434
	Dimensions int    `yaml:"dimensions" json:"dimensions"`   // 0 = provider default
	BatchSize  int    `yaml:"batch_size" json:"batch_size"`
	CacheSize  int    `yaml:"cache_size" json:"cache_size"` // query embedding cache, 0 disables
}

// HNSWConfig tunes the approximate nearest-neighbor graph.
type HNSWConfig struct {
	M        int   `yaml:"m" json:"m"`
	EfSearch int   `yaml:"ef_search" json:"ef_search"`
	Seed     int64 `yaml:"seed" json:"seed"`
}

// SearchConfig configures query defaults.
type SearchConfig struct {
	TopK            int `yaml:"top_k" json:"top_k"`
	EngineCacheSize int `yaml:"engine_cache_size" json:"engine_cache_size"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// FileName is the project configuration file looked up in the working directory.
const FileName = ".ragcore.yaml"

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Index: IndexConfig{
			Location:      filepath.Join("data", "index"),
			Method:        "lexical",
			VectorBackend: "flat",
		},
		Lexical: LexicalConfig{
			K1:      1.5,
			B:       0.75,
			Epsilon: 0.25,
		},
		Fusion: FusionConfig{
			Alpha: 0.6,
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "static",
			BatchSize: 32,
			CacheSize: 1000,
		},
		HNSW: HNSWConfig{
			M:        16,
			EfSearch: 64,
			Seed:     42,
		},
		Search: SearchConfig{
			TopK:            3,
			EngineCacheSize: 8,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/ragcore/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/ragcore/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ragcore", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "ragcore", "config.yaml")
	}
	return filepath.Join(home, ".config", "ragcore", "config.yaml")
}

// Load loads configuration for the given working directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/ragcore/config.yaml)
//  3. Project config (.ragcore.yaml in dir)
//  4. Environment variables (RAGCORE_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if path := filepath.Join(dir, FileName); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	return cfg.finish()
}

// LoadFile loads defaults, then the explicit file at path, then env overrides.
// Unlike Load, a missing file is an error.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	return cfg.finish()
}

func (c *Config) finish() (*Config, error) {
	if err := c.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

// loadYAML decodes path over c. Keys absent from the file keep their current
// value, so explicit zeros (alpha: 0) are honored.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies RAGCORE_* environment variable overrides.
// Malformed numbers are reported rather than silently ignored.
func (c *Config) applyEnvOverrides() error {
	str := map[string]*string{
		"RAGCORE_INDEX_LOCATION":      &c.Index.Location,
		"RAGCORE_INDEX_METHOD":        &c.Index.Method,
		"RAGCORE_VECTOR_BACKEND":      &c.Index.VectorBackend,
		"RAGCORE_EMBEDDINGS_PROVIDER": &c.Embeddings.Provider,
		"RAGCORE_EMBEDDINGS_MODEL":    &c.Embeddings.Model,
		"RAGCORE_OLLAMA_HOST":         &c.Embeddings.OllamaHost,
		"RAGCORE_LOG_LEVEL":           &c.Log.Level,
		"RAGCORE_LOG_FILE":            &c.Log.File,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	floats := map[string]*float64{
		"RAGCORE_FUSION_ALPHA": &c.Fusion.Alpha,
		"RAGCORE_BM25_K1":      &c.Lexical.K1,
		"RAGCORE_BM25_B":       &c.Lexical.B,
	}
	for key, dst := range floats {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("invalid %s=%q: %w", key, v, err)
			}
			*dst = f
		}
	}

	ints := map[string]*int{
		"RAGCORE_TOP_K":                 &c.Search.TopK,
		"RAGCORE_EMBEDDINGS_DIMENSIONS": &c.Embeddings.Dimensions,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("invalid %s=%q: %w", key, v, err)
			}
			*dst = n
		}
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Index.Location == "" {
		return fmt.Errorf("index.location must not be empty")
	}

	validMethods := map[string]bool{"lexical": true, "vector-space": true, "hybrid": true, "bm25": true, "tfidf": true}
	if !validMethods[strings.ToLower(c.Index.Method)] {
		return fmt.Errorf("index.method must be 'lexical', 'vector-space' or 'hybrid', got %s", c.Index.Method)
	}

	validBackends := map[string]bool{"hnsw": true, "flat": true}
	if !validBackends[strings.ToLower(c.Index.VectorBackend)] {
		return fmt.Errorf("index.vector_backend must be 'hnsw' or 'flat', got %s", c.Index.VectorBackend)
	}

	if c.Lexical.K1 < 0 {
		return fmt.Errorf("lexical.k1 must be non-negative, got %f", c.Lexical.K1)
	}
	if c.Lexical.B < 0 || c.Lexical.B > 1 {
		return fmt.Errorf("lexical.b must be between 0 and 1, got %f", c.Lexical.B)
	}
	if c.Lexical.Epsilon < 0 {
		return fmt.Errorf("lexical.epsilon must be non-negative, got %f", c.Lexical.Epsilon)
	}

	if c.Fusion.Alpha < 0 || c.Fusion.Alpha > 1 {
		return fmt.Errorf("fusion.alpha must be between 0 and 1, got %f", c.Fusion.Alpha)
	}

	validProviders := map[string]bool{"static": true, "ollama": true}
	if !validProviders[strings.ToLower(c.Embeddings.Provider)] {
		return fmt.Errorf("embeddings.provider must be 'static' or 'ollama', got %s", c.Embeddings.Provider)
	}
	if c.Embeddings.Dimensions < 0 {
		return fmt.Errorf("embeddings.dimensions must be non-negative, got %d", c.Embeddings.Dimensions)
	}
	if c.Embeddings.BatchSize < 1 {
		return fmt.Errorf("embeddings.batch_size must be at least 1, got %d", c.Embeddings.BatchSize)
	}
	if c.Embeddings.CacheSize < 0 {
		return fmt.Errorf("embeddings.cache_size must be non-negative, got %d", c.Embeddings.CacheSize)
	}

	if c.HNSW.M < 2 {
		return fmt.Errorf("hnsw.m must be at least 2, got %d", c.HNSW.M)
	}
	if c.HNSW.EfSearch < 1 {
		return fmt.Errorf("hnsw.ef_search must be at least 1, got %d", c.HNSW.EfSearch)
	}

	if c.Search.TopK < 1 {
		return fmt.Errorf("search.top_k must be at least 1, got %d", c.Search.TopK)
	}
	if c.Search.EngineCacheSize < 1 {
		return fmt.Errorf("search.engine_cache_size must be at least 1, got %d", c.Search.EngineCacheSize)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
