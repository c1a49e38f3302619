package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SourceConfig configures the help-center scraper.
type SourceConfig struct {
	APIURL            string  `yaml:"api_url"`
	ArticlesDir       string  `yaml:"articles_dir"`
	MaxArticles       int     `yaml:"max_articles"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	MaxLength int `yaml:"max_length"`
}

// GeminiConfig holds Gemini model settings.
type GeminiConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// OpenAIConfig holds settings of an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type             string        `yaml:"type"`
	DocumentTaskType string        `yaml:"document_task_type"`
	QueryTaskType    string        `yaml:"query_task_type"`
	BatchSize        int           `yaml:"batch_size"`
	MaxRetries       *int          `yaml:"max_retries,omitempty"`
	RetryDelaySecs   int           `yaml:"retry_delay_secs"`
	TimeoutSecs      int           `yaml:"timeout_secs"`
	Gemini           *GeminiConfig `yaml:"gemini,omitempty"`
	OpenAI           *OpenAIConfig `yaml:"openai,omitempty"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type            string         `yaml:"type"`
	Collection      string         `yaml:"collection"`
	Dimension       int            `yaml:"dimension"`
	UpsertBatchSize int            `yaml:"upsert_batch_size"`
	Qdrant          *QdrantConfig  `yaml:"qdrant,omitempty"`
	Chromem         *ChromemConfig `yaml:"chromem,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChromemConfig configures the embedded chromem-go store.
type ChromemConfig struct {
	Path     string `yaml:"path"`
	Compress bool   `yaml:"compress"`
}

// StateConfig locates the files that persist between runs.
type StateConfig struct {
	HashStore    string `yaml:"hash_store"`
	HashPath     string `yaml:"hash_path"`
	JobLog       string `yaml:"job_log"`
	LockPath     string `yaml:"lock_path"`
	LockWaitSecs int    `yaml:"lock_wait_secs"`
}

// RetrievalConfig configures question answering.
type RetrievalConfig struct {
	TopK              int `yaml:"top_k"`
	MaxQuestionLength int `yaml:"max_question_length"`
}

// GeneratorConfig selects and configures the answer generator.
type GeneratorConfig struct {
	Type            string        `yaml:"type"`
	Persona         string        `yaml:"persona,omitempty"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	MaxSentences    int           `yaml:"max_sentences"`
	MaxRetries      *int          `yaml:"max_retries,omitempty"`
	RetryDelaySecs  int           `yaml:"retry_delay_secs"`
	TimeoutSecs     int           `yaml:"timeout_secs"`
	Gemini          *GeminiConfig `yaml:"gemini,omitempty"`
	OpenAI          *OpenAIConfig `yaml:"openai,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Source      SourceConfig      `yaml:"source"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	State       StateConfig       `yaml:"state"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Generator   GeneratorConfig   `yaml:"generator"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/ragsync/config.yaml.
// If neither exists, it writes defaults to ~/.config/ragsync/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ApplyEnv overrides connection settings from the environment.
func (c *AppConfig) ApplyEnv() {
	if v := os.Getenv("API_URL"); v != "" {
		c.Source.APIURL = v
	}
	if c.VectorStore.Qdrant == nil {
		c.VectorStore.Qdrant = &QdrantConfig{}
	}
	if v := os.Getenv("QDRANT_URL"); v != "" {
		c.VectorStore.Qdrant.URL = v
	}
	if v := os.Getenv("QDRANT_API_KEY"); v != "" {
		c.VectorStore.Qdrant.APIKey = v
	}
	applyConfigDefaults(c)
}

var (
	embedderTypes  = []string{"gemini", "openai", "hashed"}
	storeTypes     = []string{"qdrant", "chromem", "memory"}
	generatorTypes = []string{"gemini", "openai", "extractive"}
	hashStoreTypes = []string{"json", "sqlite"}
	taskTypes      = []string{
		"QUESTION_ANSWERING", "RETRIEVAL_DOCUMENT", "RETRIEVAL_QUERY",
		"SEMANTIC_SIMILARITY", "CLASSIFICATION", "CLUSTERING", "FACT_VERIFICATION",
	}
)

// Validate rejects unknown component types and non-positive bounds.
func (c *AppConfig) Validate() error {
	var errs []error
	oneOf := func(field, v string, allowed []string) {
		for _, a := range allowed {
			if v == a {
				return
			}
		}
		errs = append(errs, fmt.Errorf("%s: unknown value %q (want one of %s)", field, v, strings.Join(allowed, ", ")))
	}
	positive := func(field string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive, got %d", field, v))
		}
	}

	oneOf("embedder.type", c.Embedder.Type, embedderTypes)
	oneOf("embedder.document_task_type", c.Embedder.DocumentTaskType, taskTypes)
	oneOf("embedder.query_task_type", c.Embedder.QueryTaskType, taskTypes)
	oneOf("vector_store.type", c.VectorStore.Type, storeTypes)
	oneOf("generator.type", c.Generator.Type, generatorTypes)
	oneOf("state.hash_store", c.State.HashStore, hashStoreTypes)
	positive("chunker.max_length", c.Chunker.MaxLength)
	positive("embedder.batch_size", c.Embedder.BatchSize)
	positive("vector_store.dimension", c.VectorStore.Dimension)
	positive("vector_store.upsert_batch_size", c.VectorStore.UpsertBatchSize)
	positive("retrieval.top_k", c.Retrieval.TopK)
	positive("retrieval.max_question_length", c.Retrieval.MaxQuestionLength)
	positive("source.max_articles", c.Source.MaxArticles)
	if c.Embedder.MaxRetries != nil && *c.Embedder.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("embedder.max_retries: must not be negative"))
	}
	for _, missing := range []struct {
		field string
		absent bool
	}{
		{"embedder.gemini", c.Embedder.Type == "gemini" && c.Embedder.Gemini == nil},
		{"embedder.openai", c.Embedder.Type == "openai" && c.Embedder.OpenAI == nil},
		{"vector_store.qdrant", c.VectorStore.Type == "qdrant" && c.VectorStore.Qdrant == nil},
		{"vector_store.chromem", c.VectorStore.Type == "chromem" && c.VectorStore.Chromem == nil},
		{"generator.gemini", c.Generator.Type == "gemini" && c.Generator.Gemini == nil},
		{"generator.openai", c.Generator.Type == "openai" && c.Generator.OpenAI == nil},
	} {
		if missing.absent {
			errs = append(errs, fmt.Errorf("%s: section missing for the selected type", missing.field))
		}
	}
	if c.VectorStore.Collection == "" {
		errs = append(errs, errors.New("vector_store.collection: must not be empty"))
	}
	return errors.Join(errs...)
}

// Retries returns the configured retry count.
func (e EmbedderConfig) Retries() int {
	if e.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *e.MaxRetries
}

// RetryDelay returns the wait between retries.
func (e EmbedderConfig) RetryDelay() time.Duration {
	return time.Duration(e.RetryDelaySecs) * time.Second
}

// Timeout returns the per-call deadline.
func (e EmbedderConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSecs) * time.Second
}

// Retries returns the configured retry count.
func (g GeneratorConfig) Retries() int {
	if g.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *g.MaxRetries
}

// RetryDelay returns the wait between retries.
func (g GeneratorConfig) RetryDelay() time.Duration {
	return time.Duration(g.RetryDelaySecs) * time.Second
}

// Timeout returns the per-call deadline.
func (g GeneratorConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSecs) * time.Second
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragsync", "config.yaml"), nil
}
