package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"cosim/internal/domain"
)

// DataDirName is the per-project directory holding the index.
const DataDirName = ".cosim"

// Config holds all configuration for cosim.
type Config struct {
	Index   IndexConfig   `yaml:"index"`
	Score   ScoreConfig   `yaml:"score"`
	Logging LoggingConfig `yaml:"logging"`
}

// IndexConfig holds indexing configuration.
type IndexConfig struct {
	Includes      []string `yaml:"includes"`
	Excludes      []string `yaml:"excludes"`
	Stemming      bool     `yaml:"stemming"`
	StemCacheSize int      `yaml:"stem_cache_size"`
	Workers       int      `yaml:"workers"`
}

// ScoreConfig holds query scoring configuration.
type ScoreConfig struct {
	Method    string        `yaml:"method"` // "tf" or "tfidf"
	TopK      int           `yaml:"top_k"`
	MinScore  float64       `yaml:"min_score"` // 0 = disabled
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Includes:      []string{"**/*.txt", "**/*.md", "**/*.rst", "**/*.html", "**/*.go", "**/*.py"},
			Excludes:      []string{"**/.git/**", "**/" + DataDirName + "/**", "**/node_modules/**", "**/vendor/**"},
			Stemming:      true,
			StemCacheSize: 10000,
			Workers:       4,
		},
		Score: ScoreConfig{
			Method:    "tfidf",
			TopK:      10,
			CacheSize: 256,
			CacheTTL:  5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Validate reports settings no component can run with.
func (c *Config) Validate() error {
	switch c.Score.Method {
	case "tf", "tfidf":
	default:
		return fmt.Errorf("%w: score.method %q (want tf or tfidf)", domain.ErrInvalidConfig, c.Score.Method)
	}
	if c.Score.TopK <= 0 {
		return fmt.Errorf("%w: score.top_k must be positive, got %d", domain.ErrInvalidConfig, c.Score.TopK)
	}
	if c.Score.MinScore < 0 {
		return fmt.Errorf("%w: score.min_score must not be negative, got %v", domain.ErrInvalidConfig, c.Score.MinScore)
	}
	if c.Index.Workers <= 0 {
		return fmt.Errorf("%w: index.workers must be positive, got %d", domain.ErrInvalidConfig, c.Index.Workers)
	}
	return nil
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for cosim.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "cosim.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, DataDirName, "config.yaml")
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

// IndexDBPath returns the path to the index database.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, DataDirName, "index.db")
}

// EnsureDataDir ensures the .cosim directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, DataDirName), 0755)
}
