package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure IntentClassifier implements the interfaces.
var (
	_ driving.IntentClassifier = (*IntentClassifier)(nil)
	_ driven.PromptStoreAware  = (*IntentClassifier)(nil)
)

// IntentClassifier asks the LLM whether a query is about the whole
// document or a specific detail.
type IntentClassifier struct {
	promptLoader
	llm      driven.LLMService
	observer driven.Observer
}

// NewIntentClassifier creates a new classifier. A nil observer is allowed.
func NewIntentClassifier(llm driven.LLMService, observer driven.Observer) *IntentClassifier {
	if observer == nil {
		observer = driven.NopObserver{}
	}
	return &IntentClassifier{llm: llm, observer: observer}
}

// Classify issues exactly one generate call. Output that does not name the
// general label resolves to domain.IntentSpecific.
func (c *IntentClassifier) Classify(ctx context.Context, query string) (domain.Intent, error) {
	c.observer.OnEvent(ctx, domain.Event{Stage: domain.StageClassify, Message: "Classifying user intent"})

	prompt := render(c.template(driven.PromptClassify), driven.PlaceholderQuery, query)
	raw, err := c.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0})
	if err != nil {
		return "", fmt.Errorf("%w: classify: %w", domain.ErrGenerativeService, err)
	}

	intent := domain.ParseIntent(raw)
	logger.Debug("Classifier output %q -> %s", raw, intent)
	c.observer.OnEvent(ctx, domain.Event{
		Stage:   domain.StageClassify,
		Message: "Detected intent: " + intent.Label(),
	})
	return intent, nil
}
