package summarizer

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
)

// DefaultMaxSentences bounds extractive answers; it matches the prompt's bullet limit.
const DefaultMaxSentences = 5

// FrequencySummarizer ranks sentences by word frequency (stopwords filtered).
// As a domain.Generator it answers from the prompt's context block without any remote call.
type FrequencySummarizer struct {
	tokenPattern    *regexp.Regexp
	sentencePattern *regexp.Regexp
	stopwords       map[string]struct{}
	maxSentences    int
}

// NewFrequencySummarizer creates a frequency-based sentence ranker summarizer.
func NewFrequencySummarizer(maxSentences int) *FrequencySummarizer {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	return &FrequencySummarizer{
		tokenPattern:    regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		sentencePattern: regexp.MustCompile(`[^.!?\n]+[.!?]?`),
		stopwords:       defaultStopwords(),
		maxSentences:    maxSentences,
	}
}

// Name returns the identifier of this generator.
func (s *FrequencySummarizer) Name() string { return "extractive" }

// Generate answers a grounded prompt with the context sentences that best match the question.
func (s *FrequencySummarizer) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	contextBlock, question := splitPrompt(prompt)
	sentences := s.ranked(stripSourceTags(contextBlock), question, s.maxSentences)
	if len(sentences) == 0 {
		return "", nil
	}
	lines := make([]string, len(sentences))
	for i, sent := range sentences {
		lines[i] = "- " + sent
	}
	return strings.Join(lines, "\n"), nil
}

// ranked scores sentences by normalised term frequency, boosted by overlap with query,
// and returns the best ones in original order.
func (s *FrequencySummarizer) ranked(text, query string, maxSentences int) []string {
	var sentences []string
	for _, sent := range s.sentencePattern.FindAllString(text, -1) {
		if sent = strings.TrimSpace(sent); len(s.tokens(sent)) > 0 {
			sentences = append(sentences, sent)
		}
	}
	if len(sentences) == 0 {
		return nil
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range s.tokens(sent) {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}
	queryTerms := map[string]struct{}{}
	for _, tok := range s.tokens(query) {
		queryTerms[tok] = struct{}{}
	}

	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i, sent := range sentences {
		toks := s.tokens(sent)
		sscore := 0.0
		for _, tok := range toks {
			sscore += freq[tok]
			if _, ok := queryTerms[tok]; ok {
				sscore += 2
			}
		}
		// Normalize by sentence length to avoid bias
		sscore /= math.Sqrt(float64(len(toks)))
		scores[i] = pair{i, sscore}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if maxSentences > len(scores) {
		maxSentences = len(scores)
	}
	// Keep original order among selected
	selected := make([]int, maxSentences)
	for i := 0; i < maxSentences; i++ {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, len(selected))
	for i, idx := range selected {
		out[i] = sentences[idx]
	}
	return out
}

func (s *FrequencySummarizer) tokens(text string) []string {
	raw := s.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, ok := s.stopwords[tok]; ok {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// splitPrompt extracts the context block and the question of a grounded prompt.
// Text that is not a grounded prompt is treated as context only.
func splitPrompt(prompt string) (string, string) {
	body := prompt
	if i := strings.Index(body, "Context:\n"); i >= 0 {
		body = body[i+len("Context:\n"):]
	}
	q := strings.LastIndex(body, "\n\nQuestion:")
	if q < 0 {
		return body, ""
	}
	question := body[q+len("\n\nQuestion:"):]
	if a := strings.LastIndex(question, "\nAnswer:"); a >= 0 {
		question = question[:a]
	}
	return body[:q], strings.TrimSpace(question)
}

var sourceTag = regexp.MustCompile(`(?m)^File: .* \| Chunk: \d+$`)

func stripSourceTags(text string) string {
	return sourceTag.ReplaceAllString(text, "")
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"how", "what", "do", "does", "i", "my", "you", "your",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
