package config

import "strings"

// Defaults of the original deployment: Gemini embeddings and answers over a
// Qdrant collection named OptiBot.
const (
	DefaultMaxArticles       = 200
	DefaultArticlesDir       = "articles"
	DefaultRequestsPerSecond = 2.0
	DefaultSourceTimeoutSecs = 10

	DefaultMaxLength = 3072

	DefaultEmbedder        = "gemini"
	DefaultTaskType        = "QUESTION_ANSWERING"
	DefaultBatchSize       = 25
	DefaultMaxRetries      = 5
	DefaultRetryDelaySecs  = 60
	DefaultCallTimeoutSecs = 60
	DefaultGeminiKeyEnv    = "GEMINI_API_KEY"
	DefaultEmbeddingModel  = "gemini-embedding-001"
	DefaultOpenAIKeyEnv    = "OPENAI_API_KEY"
	DefaultOpenAIBaseURL   = "https://api.openai.com/v1"

	DefaultVectorStore     = "qdrant"
	DefaultCollection      = "OptiBot"
	DefaultDimension       = 3072
	DefaultUpsertBatchSize = 64
	DefaultQdrantURL       = "http://localhost:6333"
	DefaultQdrantTimeout   = 15
	DefaultChromemPath     = "chromem"

	DefaultHashStore = "json"
	DefaultHashPath  = "article_hashes.json"
	DefaultSQLPath   = "ragsync.db"
	DefaultJobLog    = "job_log.txt"
	DefaultLockPath  = ".ragsync.lock"

	DefaultTopK              = 5
	DefaultMaxQuestionLength = 500

	DefaultGenerator       = "gemini"
	DefaultGenerativeModel = "gemini-2.5-flash"
	DefaultMaxSentences    = 5
)

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	normalize(cfg)

	src := &cfg.Source
	if src.ArticlesDir == "" {
		src.ArticlesDir = DefaultArticlesDir
	}
	if src.MaxArticles == 0 {
		src.MaxArticles = DefaultMaxArticles
	}
	if src.RequestsPerSecond == 0 {
		src.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if src.TimeoutSecs == 0 {
		src.TimeoutSecs = DefaultSourceTimeoutSecs
	}

	if cfg.Chunker.MaxLength == 0 {
		cfg.Chunker.MaxLength = DefaultMaxLength
	}

	emb := &cfg.Embedder
	if emb.Type == "" {
		emb.Type = DefaultEmbedder
	}
	if emb.DocumentTaskType == "" {
		emb.DocumentTaskType = DefaultTaskType
	}
	if emb.QueryTaskType == "" {
		emb.QueryTaskType = emb.DocumentTaskType
	}
	if emb.BatchSize == 0 {
		emb.BatchSize = DefaultBatchSize
	}
	if emb.RetryDelaySecs == 0 {
		emb.RetryDelaySecs = DefaultRetryDelaySecs
	}
	if emb.TimeoutSecs == 0 {
		emb.TimeoutSecs = DefaultCallTimeoutSecs
	}
	switch emb.Type {
	case "gemini":
		if emb.Gemini == nil {
			emb.Gemini = &GeminiConfig{}
		}
		fillGemini(emb.Gemini, DefaultEmbeddingModel)
	case "openai":
		if emb.OpenAI == nil {
			emb.OpenAI = &OpenAIConfig{}
		}
		fillOpenAI(emb.OpenAI, "text-embedding-3-large")
	}

	vs := &cfg.VectorStore
	if vs.Type == "" {
		vs.Type = DefaultVectorStore
	}
	if vs.Collection == "" {
		vs.Collection = DefaultCollection
	}
	if vs.Dimension == 0 {
		vs.Dimension = DefaultDimension
	}
	if vs.UpsertBatchSize == 0 {
		vs.UpsertBatchSize = DefaultUpsertBatchSize
	}
	switch vs.Type {
	case "qdrant":
		if vs.Qdrant == nil {
			vs.Qdrant = &QdrantConfig{}
		}
	case "chromem":
		if vs.Chromem == nil {
			vs.Chromem = &ChromemConfig{}
		}
		if vs.Chromem.Path == "" {
			vs.Chromem.Path = DefaultChromemPath
		}
	}
	if vs.Qdrant != nil {
		if vs.Qdrant.URL == "" {
			vs.Qdrant.URL = DefaultQdrantURL
		}
		if vs.Qdrant.TimeoutSecs == 0 {
			vs.Qdrant.TimeoutSecs = DefaultQdrantTimeout
		}
	}

	st := &cfg.State
	if st.HashStore == "" {
		st.HashStore = DefaultHashStore
	}
	if st.HashPath == "" {
		st.HashPath = DefaultHashPath
		if st.HashStore == "sqlite" {
			st.HashPath = DefaultSQLPath
		}
	}
	if st.JobLog == "" {
		st.JobLog = DefaultJobLog
	}
	if st.LockPath == "" {
		st.LockPath = DefaultLockPath
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = DefaultTopK
	}
	if cfg.Retrieval.MaxQuestionLength == 0 {
		cfg.Retrieval.MaxQuestionLength = DefaultMaxQuestionLength
	}

	gen := &cfg.Generator
	if gen.Type == "" {
		gen.Type = DefaultGenerator
	}
	if gen.MaxSentences == 0 {
		gen.MaxSentences = DefaultMaxSentences
	}
	if gen.RetryDelaySecs == 0 {
		gen.RetryDelaySecs = DefaultRetryDelaySecs
	}
	if gen.TimeoutSecs == 0 {
		gen.TimeoutSecs = DefaultCallTimeoutSecs
	}
	switch gen.Type {
	case "gemini":
		if gen.Gemini == nil {
			gen.Gemini = &GeminiConfig{}
		}
		fillGemini(gen.Gemini, DefaultGenerativeModel)
	case "openai":
		if gen.OpenAI == nil {
			gen.OpenAI = &OpenAIConfig{}
		}
		fillOpenAI(gen.OpenAI, "gpt-4o-mini")
	}
}

func fillGemini(g *GeminiConfig, model string) {
	if g.APIKeyEnv == "" {
		g.APIKeyEnv = DefaultGeminiKeyEnv
	}
	if g.Model == "" {
		g.Model = model
	}
}

func fillOpenAI(o *OpenAIConfig, model string) {
	if o.BaseURL == "" {
		o.BaseURL = DefaultOpenAIBaseURL
	}
	if o.APIKeyEnv == "" {
		o.APIKeyEnv = DefaultOpenAIKeyEnv
	}
	if o.Model == "" {
		o.Model = model
	}
}

// normalize folds component names so defaults and wiring match them exactly.
func normalize(cfg *AppConfig) {
	lower := func(s *string) { *s = strings.ToLower(strings.TrimSpace(*s)) }
	upper := func(s *string) { *s = strings.ToUpper(strings.TrimSpace(*s)) }
	lower(&cfg.Embedder.Type)
	lower(&cfg.VectorStore.Type)
	lower(&cfg.Generator.Type)
	lower(&cfg.State.HashStore)
	upper(&cfg.Embedder.DocumentTaskType)
	upper(&cfg.Embedder.QueryTaskType)
}
