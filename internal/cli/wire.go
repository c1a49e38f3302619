package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"

	"ragsync/internal/answer"
	"ragsync/internal/changedetect"
	"ragsync/internal/config"
	"ragsync/internal/domain"
	"ragsync/internal/embedding"
	"ragsync/internal/embedding/hashed"
	embopenai "ragsync/internal/embedding/openai"
	"ragsync/internal/gemini"
	"ragsync/internal/hashstore"
	"ragsync/internal/indexer"
	llmopenai "ragsync/internal/llm/openai"
	"ragsync/internal/logger"
	"ragsync/internal/retriever"
	"ragsync/internal/source"
	"ragsync/internal/summarizer"
	"ragsync/internal/vectorstore"
	"ragsync/internal/vectorstore/chromem"
	"ragsync/internal/vectorstore/memory"
	"ragsync/internal/vectorstore/qdrant"
)

// app builds components from the loaded configuration and owns their lifetimes.
type app struct {
	cfg     *config.AppConfig
	genai   *genai.Client
	store   vectorstore.Storage
	closers []func() error
}

func loadConfig(path string) (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if path == "" {
		var used string
		cfg, used, err = config.LoadDefault()
		if err == nil {
			logger.Debug("using config %s", used)
		}
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newApp(cfg *config.AppConfig) *app {
	return &app{cfg: cfg}
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) geminiClient(ctx context.Context, keyEnv string) (*genai.Client, error) {
	if a.genai != nil {
		return a.genai, nil
	}
	c, err := gemini.NewClient(ctx, keyEnv)
	if err != nil {
		return nil, err
	}
	a.genai = c
	a.closers = append(a.closers, c.Close)
	return c, nil
}

func (a *app) embedder(ctx context.Context) (*embedding.Client, error) {
	ec := a.cfg.Embedder
	var p embedding.Provider
	switch ec.Type {
	case "gemini":
		c, err := a.geminiClient(ctx, ec.Gemini.APIKeyEnv)
		if err != nil {
			return nil, err
		}
		p = gemini.NewEmbedder(c, ec.Gemini.Model)
	case "openai":
		c, err := embopenai.NewClient(embopenai.Config{
			BaseURL:   ec.OpenAI.BaseURL,
			APIKeyEnv: ec.OpenAI.APIKeyEnv,
			Model:     ec.OpenAI.Model,
			Timeout:   ec.Timeout(),
		})
		if err != nil {
			return nil, err
		}
		p = c
	case "hashed":
		p = hashed.NewEmbedder(a.cfg.VectorStore.Dimension)
	default:
		return nil, fmt.Errorf("unknown embedder: %s", ec.Type)
	}
	return embedding.NewClient(p, embedding.Config{
		MaxRetries: ec.Retries(),
		RetryDelay: ec.RetryDelay(),
		Timeout:    ec.Timeout(),
	}), nil
}

func (a *app) storage() (vectorstore.Storage, error) {
	if a.store != nil {
		return a.store, nil
	}
	vs := a.cfg.VectorStore
	switch vs.Type {
	case "qdrant":
		q := vs.Qdrant
		a.store = qdrant.NewStorage(qdrant.Config{
			URL:        q.URL,
			APIKey:     q.APIKey,
			Collection: vs.Collection,
			Dimension:  vs.Dimension,
			Timeout:    secs(q.TimeoutSecs),
		})
	case "chromem":
		s, err := chromem.NewStorage(chromem.Config{
			Path:       vs.Chromem.Path,
			Compress:   vs.Chromem.Compress,
			Collection: vs.Collection,
			Dimension:  vs.Dimension,
		})
		if err != nil {
			return nil, err
		}
		a.store = s
	case "memory":
		a.store = memory.NewStorage(vs.Dimension)
	default:
		return nil, fmt.Errorf("unknown vector store: %s", vs.Type)
	}
	return a.store, nil
}

// errEphemeralStore rejects commands that read points written by an earlier process.
var errEphemeralStore = errors.New("vector_store.type memory keeps no points between runs; use qdrant or chromem")

// durableStorage is storage for commands that need points from earlier runs.
func (a *app) durableStorage() (vectorstore.Storage, error) {
	if a.cfg.VectorStore.Type == "memory" {
		return nil, errEphemeralStore
	}
	return a.storage()
}

func (a *app) indexer() (*indexer.Indexer, error) {
	st, err := a.storage()
	if err != nil {
		return nil, err
	}
	return indexer.New(st, a.cfg.VectorStore.UpsertBatchSize), nil
}

func (a *app) durableIndexer() (*indexer.Indexer, error) {
	if _, err := a.durableStorage(); err != nil {
		return nil, err
	}
	return a.indexer()
}

// hashStore pairs the in-process vector store with in-process records: hashes
// must never outlive the points they describe.
func (a *app) hashStore() (changedetect.Store, error) {
	if a.cfg.VectorStore.Type == "memory" {
		logger.Warn("vector_store.type is memory: dry run, neither points nor hash records are kept")
		return hashstore.NewMemory(), nil
	}
	st := a.cfg.State
	switch st.HashStore {
	case "json":
		s := hashstore.NewJSONFile(st.HashPath)
		logger.Debug("hash records in %s", s.Path())
		return s, nil
	case "sqlite":
		s, err := hashstore.OpenSQLite(st.HashPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		logger.Debug("hash records in %s", s.Path())
		return s, nil
	default:
		return nil, fmt.Errorf("unknown hash store: %s", st.HashStore)
	}
}

func (a *app) generator(ctx context.Context) (domain.Generator, error) {
	gc := a.cfg.Generator
	switch gc.Type {
	case "gemini":
		c, err := a.geminiClient(ctx, gc.Gemini.APIKeyEnv)
		if err != nil {
			return nil, err
		}
		return gemini.NewGenerator(c, gc.Gemini.Model, gc.MaxOutputTokens), nil
	case "openai":
		return llmopenai.NewGenerator(llmopenai.Config{
			BaseURL:   gc.OpenAI.BaseURL,
			APIKeyEnv: gc.OpenAI.APIKeyEnv,
			Model:     gc.OpenAI.Model,
			MaxTokens: gc.MaxOutputTokens,
			Timeout:   gc.Timeout(),
		})
	case "extractive":
		return summarizer.NewFrequencySummarizer(gc.MaxSentences), nil
	default:
		return nil, fmt.Errorf("unknown generator: %s", gc.Type)
	}
}

func (a *app) helpCenter() *source.HelpCenter {
	src := a.cfg.Source
	return source.NewHelpCenter(source.Config{
		APIURL:            src.APIURL,
		MaxArticles:       src.MaxArticles,
		RequestsPerSecond: src.RequestsPerSecond,
		Timeout:           secs(src.TimeoutSecs),
	})
}

func (a *app) scraper() *source.Scraper {
	return &source.Scraper{Client: a.helpCenter(), Dir: a.cfg.Source.ArticlesDir}
}

func (a *app) documentSource(scrape bool) domain.DocumentSource {
	if scrape {
		return a.scraper()
	}
	return source.Dir{Path: a.cfg.Source.ArticlesDir}
}

func (a *app) assembler(ctx context.Context) (*answer.Assembler, error) {
	st, err := a.durableStorage()
	if err != nil {
		return nil, err
	}
	emb, err := a.embedder(ctx)
	if err != nil {
		return nil, err
	}
	gen, err := a.generator(ctx)
	if err != nil {
		return nil, err
	}
	gc := a.cfg.Generator
	r := retriever.New(emb, st, a.cfg.Retrieval.TopK, a.cfg.Embedder.QueryTaskType)
	return answer.New(r, gen, answer.Config{
		Persona:           gc.Persona,
		MaxQuestionLength: a.cfg.Retrieval.MaxQuestionLength,
		MaxRetries:        gc.Retries(),
		RetryDelay:        gc.RetryDelay(),
		Timeout:           gc.Timeout(),
	}), nil
}
