package summarizer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prompt = "You are a bot.\n- Be concise.\n\nContext:\n" +
	"File: pair.md | Chunk: 0\n" +
	"Open the OptiSigns app on the screen. A pairing code appears. Enter the pairing code in the portal.\n\n" +
	"File: billing.md | Chunk: 1\n" +
	"Invoices are sent monthly.\n\n" +
	"Question: Where do I enter the pairing code?\nAnswer:"

func TestSplitPrompt(t *testing.T) {
	ctxBlock, question := splitPrompt(prompt)
	assert.True(t, strings.HasPrefix(ctxBlock, "File: pair.md | Chunk: 0\n"))
	assert.True(t, strings.HasSuffix(ctxBlock, "Invoices are sent monthly."))
	assert.Equal(t, "Where do I enter the pairing code?", question)

	body, q := splitPrompt("just text")
	assert.Equal(t, "just text", body)
	assert.Empty(t, q)
}

func TestGenerate_PicksQuestionSentences(t *testing.T) {
	s := NewFrequencySummarizer(1)

	out, err := s.Generate(context.Background(), prompt)

	require.NoError(t, err)
	assert.Equal(t, "- Enter the pairing code in the portal.", out)
}

func TestGenerate_BoundedAndOrdered(t *testing.T) {
	s := NewFrequencySummarizer(0)

	out, err := s.Generate(context.Background(), prompt)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.LessOrEqual(t, len(lines), DefaultMaxSentences)
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, "- "))
		assert.NotContains(t, l, "File:")
	}
	assert.Equal(t, "- Open the OptiSigns app on the screen.", lines[0])
}

func TestGenerate_EmptyContext(t *testing.T) {
	out, err := NewFrequencySummarizer(3).Generate(context.Background(), "Context:\n\n\nQuestion: hi\nAnswer:")
	require.NoError(t, err)
	assert.Empty(t, out)
}
