package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure AnswerComposer implements the interfaces.
var (
	_ driving.AnswerComposer  = (*AnswerComposer)(nil)
	_ driven.PromptStoreAware = (*AnswerComposer)(nil)
)

// contextSeparator joins retrieved chunks into one context block.
const contextSeparator = "\n\n"

// AnswerComposer generates an answer along the path chosen by the intent.
// Each call makes exactly one generate call.
type AnswerComposer struct {
	promptLoader
	llm      driven.LLMService
	k        int
	observer driven.Observer
}

// NewAnswerComposer creates a composer that retrieves k chunks for specific questions.
func NewAnswerComposer(llm driven.LLMService, k int, observer driven.Observer) *AnswerComposer {
	if observer == nil {
		observer = driven.NopObserver{}
	}
	return &AnswerComposer{llm: llm, k: k, observer: observer}
}

// Compose answers query from fullText (general) or from retrieved chunks (specific).
func (c *AnswerComposer) Compose(
	ctx context.Context,
	query string,
	intent domain.Intent,
	fullText string,
	index driving.SearchableIndex,
) (domain.AnswerResult, error) {
	if intent == domain.IntentGeneral {
		return c.fromDocument(ctx, query, fullText)
	}
	return c.fromContext(ctx, query, index)
}

func (c *AnswerComposer) fromDocument(ctx context.Context, query, fullText string) (domain.AnswerResult, error) {
	c.emit(ctx, domain.StageGenerate, "Generating answer from full document")

	prompt := render(c.template(driven.PromptAnswerDocument),
		driven.PlaceholderContext, fullText,
		driven.PlaceholderQuestion, query,
	)
	text, err := c.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0})
	if err != nil {
		return domain.AnswerResult{}, fmt.Errorf("%w: answer: %w", domain.ErrGenerativeService, err)
	}

	return domain.AnswerResult{
		Text:    text,
		Sources: []domain.Chunk{},
		Intent:  domain.IntentGeneral,
	}, nil
}

func (c *AnswerComposer) fromContext(
	ctx context.Context, query string, index driving.SearchableIndex,
) (domain.AnswerResult, error) {
	if index == nil {
		return domain.AnswerResult{}, fmt.Errorf("%w: no index for specific question", domain.ErrSessionNotReady)
	}

	c.emit(ctx, domain.StageRetrieve, "Searching for relevant chunks")
	chunks, err := index.Search(ctx, query, c.k)
	if err != nil {
		return domain.AnswerResult{}, fmt.Errorf("retrieve: %w", err)
	}
	c.emit(ctx, domain.StageRetrieve, fmt.Sprintf("Found %d relevant chunks", len(chunks)))

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	c.emit(ctx, domain.StageGenerate, "Generating answer from retrieved chunks")
	prompt := render(c.template(driven.PromptAnswerContext),
		driven.PlaceholderContext, strings.Join(texts, contextSeparator),
		driven.PlaceholderQuestion, query,
	)
	text, err := c.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0})
	if err != nil {
		return domain.AnswerResult{}, fmt.Errorf("%w: answer: %w", domain.ErrGenerativeService, err)
	}

	return domain.AnswerResult{
		Text:    text,
		Sources: chunks,
		Intent:  domain.IntentSpecific,
	}, nil
}

func (c *AnswerComposer) emit(ctx context.Context, stage domain.Stage, msg string) {
	c.observer.OnEvent(ctx, domain.Event{Stage: stage, Message: msg})
}
