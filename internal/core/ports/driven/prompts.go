package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return the built-in default.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptClassify asks for a general_query or specific_question label.
	// The template expects a {query} placeholder.
	PromptClassify = "classify"

	// PromptAnswerDocument answers from the full document text.
	// The template expects {context} and {question} placeholders.
	PromptAnswerDocument = "answer_document"

	// PromptAnswerContext answers from retrieved chunks, falling back to
	// general knowledge with a fixed disclaimer.
	// The template expects {context} and {question} placeholders.
	PromptAnswerContext = "answer_context"
)

// Template placeholders.
const (
	PlaceholderQuery    = "{query}"
	PlaceholderContext  = "{context}"
	PlaceholderQuestion = "{question}"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
// Services implementing this interface can have their prompt templates customised
// by injecting a PromptStore after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
