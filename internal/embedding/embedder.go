package embedding

import "context"

// Provider converts a batch of texts into vectors in a single remote or local call.
// Implementations return exactly one vector per input, in input order, or an error.
// Throttling must be reported by wrapping domain.ErrRateLimited.
type Provider interface {
	Name() string
	EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}

// Task types understood by the providers. Providers without task support ignore them.
const (
	TaskQuestionAnswering  = "QUESTION_ANSWERING"
	TaskRetrievalDocument  = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery     = "RETRIEVAL_QUERY"
	TaskSemanticSimilarity = "SEMANTIC_SIMILARITY"
	TaskClassification     = "CLASSIFICATION"
	TaskClustering         = "CLUSTERING"
	TaskFactVerification   = "FACT_VERIFICATION"
)
