// Package answer builds grounded answers from retrieved chunks.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"ragsync/internal/domain"
	"ragsync/internal/logger"
	"ragsync/internal/retriever"
	"ragsync/internal/retry"
)

// DefaultMaxQuestionLength bounds questions in characters.
const DefaultMaxQuestionLength = 500

// DefaultPersona opens every prompt.
const DefaultPersona = "You are OptiBot, the customer-support bot for OptiSigns.com.\n" +
	"- Tone: helpful, factual, concise.\n" +
	"- Only answer using the uploaded docs.\n" +
	"- Max 5 bullet points; else link to the doc.\n" +
	"- Cite up to 3 \"Article URL:\" lines per reply."

// Fixed replies.
const (
	MsgEmptyQuestion = "Please enter a valid question."
	MsgNoContext     = "Sorry, I can't search the documentation right now. Please try again later."
	MsgNotFound      = "Sorry, I couldn't find relevant information."
)

// Outcome tells how an answer was produced.
type Outcome int

const (
	Answered Outcome = iota
	Invalid
	NoContext
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Answered:
		return "answered"
	case Invalid:
		return "invalid"
	case NoContext:
		return "no-context"
	case NotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

// Answer is the reply to one question.
type Answer struct {
	Text    string
	Outcome Outcome
	Sources []domain.SearchResult
}

// Retriever returns the chunks relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]domain.SearchResult, error)
}

// Config tunes the assembler.
type Config struct {
	Persona           string
	MaxQuestionLength int
	MaxRetries        int
	RetryDelay        time.Duration
	Timeout           time.Duration
}

// Assembler validates questions, retrieves context and asks the generator once.
type Assembler struct {
	retriever Retriever
	generator domain.Generator
	persona   string
	maxLen    int
	policy    retry.Policy
}

// New creates an assembler.
func New(r Retriever, g domain.Generator, cfg Config) *Assembler {
	if cfg.Persona == "" {
		cfg.Persona = DefaultPersona
	}
	if cfg.MaxQuestionLength <= 0 {
		cfg.MaxQuestionLength = DefaultMaxQuestionLength
	}
	return &Assembler{
		retriever: r,
		generator: g,
		persona:   cfg.Persona,
		maxLen:    cfg.MaxQuestionLength,
		policy: retry.Policy{
			MaxRetries: cfg.MaxRetries,
			Delay:      cfg.RetryDelay,
			Timeout:    cfg.Timeout,
			OnRetry: func(n int, err error) {
				logger.Warn("%s: %v; retry %d/%d in %s", g.Name(), err, n, cfg.MaxRetries, cfg.RetryDelay)
			},
		},
	}
}

// SetSleep replaces the wait between generator retries. Used by tests.
func (a *Assembler) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	a.policy.Sleep = fn
}

// TooLongMessage is the reply to a question above the length bound.
func (a *Assembler) TooLongMessage() string {
	return fmt.Sprintf("Your question is too long. Please limit it to %d characters.", a.maxLen)
}

// Validate returns the trimmed question or the reply explaining why it is rejected.
func (a *Assembler) Validate(question string) (string, string, bool) {
	q := strings.TrimSpace(question)
	if q == "" {
		return "", MsgEmptyQuestion, false
	}
	if utf8.RuneCountInString(q) > a.maxLen {
		return "", a.TooLongMessage(), false
	}
	return q, "", true
}

// Answer replies to question. Only search and generation failures are returned as errors.
func (a *Assembler) Answer(ctx context.Context, question string) (Answer, error) {
	q, msg, ok := a.Validate(question)
	if !ok {
		return Answer{Text: msg, Outcome: Invalid}, nil
	}

	results, err := a.retriever.Retrieve(ctx, q)
	if errors.Is(err, domain.ErrEmbeddingFailed) {
		logger.Warn("question embedding failed: %v", err)
		return Answer{Text: MsgNoContext, Outcome: NoContext}, nil
	}
	if err != nil {
		return Answer{}, err
	}
	if len(results) == 0 {
		return Answer{Text: MsgNotFound, Outcome: NotFound}, nil
	}

	prompt := BuildPrompt(a.persona, retriever.FormatContext(results), q)
	logger.Debug("prompt of %d characters with %d chunks", len(prompt), len(results))

	var text string
	err = a.policy.Do(ctx, isRateLimited, func(ctx context.Context) error {
		out, err := a.generator.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		return Answer{}, fmt.Errorf("%w: %s: %w", domain.ErrGenerationFailed, a.generator.Name(), err)
	}
	return Answer{Text: text, Outcome: Answered, Sources: results}, nil
}

// BuildPrompt assembles the grounded prompt.
func BuildPrompt(persona, contextBlock, question string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(persona))
	b.WriteString("\n\nContext:\n")
	b.WriteString(contextBlock)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")
	return b.String()
}

func isRateLimited(err error) bool {
	return errors.Is(err, domain.ErrRateLimited)
}
