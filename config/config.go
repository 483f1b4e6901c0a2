package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for semsearch.
type Config struct {
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Store     StoreConfig     `yaml:"store"`
	Serve     ServeConfig     `yaml:"serve"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IndexConfig holds indexing configuration.
type IndexConfig struct {
	Includes         []string `yaml:"includes"`
	Excludes         []string `yaml:"excludes"`
	MinSectionLength int      `yaml:"min_section_length"` // sections shorter than this are stored without an embedding
	Workers          int      `yaml:"workers"`
	Granularity      string   `yaml:"granularity"` // "sections" or "documents"
}

// EmbeddingConfig holds embedding configuration. Indexing and querying must
// use identical settings.
type EmbeddingConfig struct {
	Provider          string  `yaml:"provider"` // "hash", "openai", "ollama", "jina", "mock"
	Model             string  `yaml:"model"`
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Dimension         int     `yaml:"dimension"`
	BatchSize         int     `yaml:"batch_size"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
	CachePath         string  `yaml:"cache_path"`          // bbolt embedding cache, empty = disabled
	QueryCacheSize    int     `yaml:"query_cache_size"`
}

// SearchConfig holds query and link resolution configuration.
type SearchConfig struct {
	TopK            int    `yaml:"top_k"`
	BaseURL         string `yaml:"base_url"`
	RenderedExt     string `yaml:"rendered_ext"`
	DirectoryURLs   bool   `yaml:"directory_urls"`
	ResultCacheSize int    `yaml:"result_cache_size"`
}

// StoreConfig holds index store configuration.
type StoreConfig struct {
	Output string `yaml:"output"`
}

// ServeConfig holds HTTP presenter configuration.
type ServeConfig struct {
	Addr     string        `yaml:"addr"`
	Debounce time.Duration `yaml:"debounce"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Includes:         []string{"**/*.md"},
			Excludes:         []string{"**/node_modules/**", "**/.git/**", "**/site/**"},
			MinSectionLength: 5,
			Workers:          4,
			Granularity:      "sections",
		},
		Embedding: EmbeddingConfig{
			Provider:       "hash",
			Model:          "hash-bow-v1",
			APIKeyEnv:      "OPENAI_API_KEY",
			Dimension:      384,
			BatchSize:      32,
			QueryCacheSize: 256,
		},
		Search: SearchConfig{
			TopK:            5,
			BaseURL:         "/",
			RenderedExt:     ".html",
			ResultCacheSize: 128,
		},
		Store: StoreConfig{
			Output: "embeddings.json",
		},
		Serve: ServeConfig{
			Addr:     ":8080",
			Debounce: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for semsearch.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "semsearch.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".semsearch", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
