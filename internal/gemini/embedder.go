package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

var taskTypes = map[string]genai.TaskType{
	"":                    genai.TaskTypeUnspecified,
	"QUESTION_ANSWERING":  genai.TaskTypeQuestionAnswering,
	"RETRIEVAL_DOCUMENT":  genai.TaskTypeRetrievalDocument,
	"RETRIEVAL_QUERY":     genai.TaskTypeRetrievalQuery,
	"SEMANTIC_SIMILARITY": genai.TaskTypeSemanticSimilarity,
	"CLASSIFICATION":      genai.TaskTypeClassification,
	"CLUSTERING":          genai.TaskTypeClustering,
	"FACT_VERIFICATION":   genai.TaskTypeFactVerification,
}

// TaskType maps a configuration task name to the Gemini enum.
func TaskType(name string) (genai.TaskType, error) {
	tt, ok := taskTypes[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return genai.TaskTypeUnspecified, fmt.Errorf("unknown embedding task type %q", name)
	}
	return tt, nil
}

// Embedder implements embedding.Provider with BatchEmbedContents.
type Embedder struct {
	client *genai.Client
	model  string
}

// NewEmbedder creates an embedder for the named model on an open client.
func NewEmbedder(client *genai.Client, model string) *Embedder {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &Embedder{client: client, model: model}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "gemini" }

// EmbedBatch embeds all texts in one request.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	tt, err := TaskType(taskType)
	if err != nil {
		return nil, err
	}
	em := e.client.EmbeddingModel(e.model)
	em.TaskType = tt

	b := em.NewBatch()
	for _, t := range texts {
		b.AddContent(genai.Text(t))
	}
	res, err := em.BatchEmbedContents(ctx, b)
	if err != nil {
		return nil, classify(err)
	}

	out := make([][]float32, len(res.Embeddings))
	for i, emb := range res.Embeddings {
		if emb != nil {
			out[i] = emb.Values
		}
	}
	return out, nil
}
