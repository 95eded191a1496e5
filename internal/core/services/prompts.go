package services

import (
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// builtinPrompts backs services that have no PromptStore or whose store fails.
var builtinPrompts = map[string]string{
	driven.PromptClassify:       domain.ClassifyPrompt,
	driven.PromptAnswerDocument: domain.AnswerDocumentPrompt,
	driven.PromptAnswerContext:  domain.AnswerContextPrompt,
}

// promptLoader resolves templates through an optional PromptStore.
type promptLoader struct {
	store driven.PromptStore
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (p *promptLoader) SetPromptStore(store driven.PromptStore) {
	p.store = store
}

func (p *promptLoader) template(name string) string {
	if p.store != nil {
		tmpl, err := p.store.Load(name)
		if err == nil && strings.TrimSpace(tmpl) != "" {
			return tmpl
		}
		if err != nil {
			logger.Warn("Prompt %q unavailable, using built-in: %v", name, err)
		}
	}
	return builtinPrompts[name]
}

// render substitutes placeholders in a single pass so that substituted
// values are never expanded again.
func render(tmpl string, pairs ...string) string {
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
