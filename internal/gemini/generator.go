package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// Generator implements domain.Generator with GenerateContent.
type Generator struct {
	model *genai.GenerativeModel
	name  string
}

// NewGenerator creates a generator for the named model.
// maxOutputTokens <= 0 keeps the model default.
func NewGenerator(client *genai.Client, model string, maxOutputTokens int) *Generator {
	if model == "" {
		model = DefaultGenerativeModel
	}
	m := client.GenerativeModel(model)
	if maxOutputTokens > 0 {
		m.SetMaxOutputTokens(int32(maxOutputTokens))
	}
	return &Generator{model: m, name: model}
}

// Name returns the model name.
func (g *Generator) Name() string { return g.name }

// Generate sends prompt as a single user turn and returns the response text.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classify(err)
	}
	return responseText(resp), nil
}

// responseText joins the text parts of every candidate. A response without text
// is rendered as JSON so the caller still sees what the model returned.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				parts = append(parts, string(text))
			}
		}
	}
	if len(parts) > 0 {
		return strings.TrimSpace(strings.Join(parts, "\n"))
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf("%+v", *resp)
	}
	return string(data)
}
