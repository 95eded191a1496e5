package domain

import "strings"

// Intent classifies a query as broad or narrow.
// It steers which context-construction path answers the query.
type Intent string

// Available intents.
const (
	// IntentGeneral asks about the document as a whole (summary, overview, purpose).
	IntentGeneral Intent = "general"

	// IntentSpecific asks about a detail, definition or fact.
	IntentSpecific Intent = "specific"
)

// Labels the classifier model is asked to emit.
const (
	LabelGeneralQuery     = "general_query"
	LabelSpecificQuestion = "specific_question"
)

// ParseIntent maps raw classifier output to an intent.
// Anything that does not contain the general label, including empty or
// malformed output, resolves to IntentSpecific.
func ParseIntent(raw string) Intent {
	if strings.Contains(strings.ToLower(strings.TrimSpace(raw)), LabelGeneralQuery) {
		return IntentGeneral
	}
	return IntentSpecific
}

// String returns the string representation.
func (i Intent) String() string {
	return string(i)
}

// Label returns the model vocabulary label for the intent.
func (i Intent) Label() string {
	if i == IntentGeneral {
		return LabelGeneralQuery
	}
	return LabelSpecificQuestion
}

// Disclaimer is appended verbatim by the model when it answers from general
// knowledge instead of the supplied context.
const Disclaimer = "Disclaimer: This answer was generated from my general knowledge " +
	"as the provided document context was not sufficient."

// AnswerResult is the outcome of answering one query.
type AnswerResult struct {
	// Text is the generated answer.
	Text string

	// Sources are the retrieved chunks in retrieval order.
	// Always empty for general intent.
	Sources []Chunk

	// Intent is the classification that selected the answer path.
	Intent Intent
}

// UsedFallbackKnowledge reports whether the answer carries the disclaimer.
func (r AnswerResult) UsedFallbackKnowledge() bool {
	return strings.Contains(r.Text, Disclaimer)
}
