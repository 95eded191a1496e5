package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGemini, AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderGemini || p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// APIKeyEnv returns the environment variable that supplies the API key.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderGemini:
		return "GOOGLE_API_KEY"
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is the API key (for Gemini/OpenAI).
	APIKey string

	// RequestsPerMinute throttles embedding requests. Zero disables throttling.
	RequestsPerMinute int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is the API key (for Gemini/OpenAI).
	APIKey string

	// MaxRetries bounds client-side retries of transient transport failures.
	MaxRetries int

	// RequestsPerMinute throttles generate requests. Zero disables throttling.
	RequestsPerMinute int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// IndexSettings configures chunking, index population and retrieval.
// All values are static for the life of the process.
type IndexSettings struct {
	// ChunkSize is the target chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the number of characters shared by adjacent chunks.
	ChunkOverlap int

	// SearchK is the number of chunks retrieved for a specific question.
	SearchK int

	// BatchSize is the number of chunks sent per embedding call.
	BatchSize int

	// BatchDelay is the pause between consecutive embedding batches.
	BatchDelay time.Duration

	// RetryAttempts bounds the tries of one embedding batch before the build aborts.
	RetryAttempts int

	// BaseDir holds one index directory per fingerprint.
	BaseDir string

	// UploadDir receives optional copies of indexed documents.
	UploadDir string
}

// Validate checks the index settings for values the pipeline cannot run with.
func (s IndexSettings) Validate() error {
	switch {
	case s.ChunkSize <= 0:
		return fmt.Errorf("%w: chunk size must be positive", ErrConfiguration)
	case s.ChunkOverlap < 0 || s.ChunkOverlap >= s.ChunkSize:
		return fmt.Errorf("%w: chunk overlap must be in [0, chunk size)", ErrConfiguration)
	case s.SearchK <= 0:
		return fmt.Errorf("%w: search k must be positive", ErrConfiguration)
	case s.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive", ErrConfiguration)
	case s.BatchDelay < 0:
		return fmt.Errorf("%w: batch delay must not be negative", ErrConfiguration)
	case s.BaseDir == "":
		return fmt.Errorf("%w: index base directory is required", ErrConfiguration)
	}
	return nil
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Index holds chunking and index settings.
	Index IndexSettings
}

// Validate returns ErrConfiguration when the settings cannot serve a session.
func (s *AppSettings) Validate() error {
	if !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unsupported embedding provider %q", ErrConfiguration, s.Embedding.Provider)
	}
	if !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unsupported llm provider %q", ErrConfiguration, s.LLM.Provider)
	}
	if !s.Embedding.IsConfigured() {
		return fmt.Errorf("%w: %s not set for embedding provider %s",
			ErrConfiguration, s.Embedding.Provider.APIKeyEnv(), s.Embedding.Provider)
	}
	if !s.LLM.IsConfigured() {
		return fmt.Errorf("%w: %s not set for llm provider %s",
			ErrConfiguration, s.LLM.Provider.APIKeyEnv(), s.LLM.Provider)
	}
	return s.Index.Validate()
}

// DefaultAppSettings returns settings with sensible defaults.
// API keys are left empty and must come from the config file or environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderGemini,
			Model:    DefaultEmbeddingModels()[AIProviderGemini],
		},
		LLM: LLMSettings{
			Provider:   AIProviderGemini,
			Model:      DefaultLLMModels()[AIProviderGemini],
			MaxRetries: 2,
		},
		Index: IndexSettings{
			ChunkSize:     1000,
			ChunkOverlap:  100,
			SearchK:       3,
			BatchSize:     50,
			BatchDelay:    60 * time.Second,
			RetryAttempts: 3,
			BaseDir:       "vector_stores",
			UploadDir:     "uploads",
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini: "models/gemini-embedding-001",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini: "gemini-2.5-flash",
		AIProviderOllama: "llama3.2",
		AIProviderOpenAI: "gpt-4o-mini",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Gemini models
		"models/gemini-embedding-001": 3072,
		"models/text-embedding-004":   768,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
