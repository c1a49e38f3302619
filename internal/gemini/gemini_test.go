package gemini

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ragsync/internal/domain"
)

func TestTaskType(t *testing.T) {
	tests := []struct {
		in   string
		want genai.TaskType
	}{
		{"QUESTION_ANSWERING", genai.TaskTypeQuestionAnswering},
		{"retrieval_query", genai.TaskTypeRetrievalQuery},
		{" RETRIEVAL_DOCUMENT ", genai.TaskTypeRetrievalDocument},
		{"", genai.TaskTypeUnspecified},
	}
	for _, tt := range tests {
		got, err := TaskType(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := TaskType("SUMMARIZE")
	assert.Error(t, err)
}

func TestIsRateLimit(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"googleapi 429", &googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{"googleapi 400", &googleapi.Error{Code: http.StatusBadRequest, Message: "bad"}, false},
		{"grpc resource exhausted", status.Error(codes.ResourceExhausted, "slow down"), true},
		{"grpc invalid argument", status.Error(codes.InvalidArgument, "bad"), false},
		{"message marker", errors.New("rpc error: RESOURCE_EXHAUSTED"), true},
		{"quota", fmt.Errorf("wrapped: %w", errors.New("Quota exceeded for metric")), true},
		{"other", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimit(tt.err))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))
	assert.ErrorIs(t, classify(status.Error(codes.ResourceExhausted, "x")), domain.ErrRateLimited)

	plain := errors.New("boom")
	assert.Equal(t, plain, classify(plain))
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("- Step one"), genai.Text("- Step two")}}},
		},
	}
	assert.Equal(t, "- Step one\n- Step two", responseText(resp))

	empty := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}}
	assert.NotEmpty(t, responseText(empty))
	assert.Empty(t, responseText(nil))
}
