// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	geminiembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/openai"
	geminillm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the AI services a session needs.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init creates both services from settings without contacting the providers.
// The first provider call surfaces connectivity problems.
func Init(settings *domain.AppSettings) (*InitResult, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: settings are nil", domain.ErrConfiguration)
	}
	if err := checkBatchSize(settings); err != nil {
		return nil, err
	}

	embedder, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, err
	}
	llm, err := CreateLLMService(&settings.LLM)
	if err != nil {
		embedder.Close()
		return nil, err
	}
	return &InitResult{EmbeddingService: embedder, LLMService: llm}, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'docqa settings show' to check",
			domain.ErrEmbeddingService, err)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'docqa settings show' to check",
			domain.ErrGenerativeService, err)
	}
	return svc, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateAndValidateEmbeddingService(settings)
	if err != nil {
		return err
	}
	return svc.Close()
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateAndValidateLLMService(settings)
	if err != nil {
		return err
	}
	return svc.Close()
}

// CreateEmbeddingService creates the embedding service selected by settings.
// Missing or unsupported settings return domain.ErrConfiguration.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if err := checkProvider(settings == nil, embeddingProvider(settings), embeddingConfigured(settings)); err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}

	var (
		svc driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderGemini:
		svc, err = createGeminiEmbedding(settings)
	case domain.AIProviderOllama:
		svc = createOllamaEmbedding(settings)
	case domain.AIProviderOpenAI:
		svc, err = createOpenAIEmbedding(settings)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	return svc, nil
}

// CreateLLMService creates the LLM service selected by settings.
// Missing or unsupported settings return domain.ErrConfiguration.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if err := checkProvider(settings == nil, llmProvider(settings), llmConfigured(settings)); err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	var (
		svc driven.LLMService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderGemini:
		svc, err = createGeminiLLM(settings)
	case domain.AIProviderOllama:
		svc = createOllamaLLM(settings)
	case domain.AIProviderOpenAI:
		svc, err = createOpenAILLM(settings)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	return svc, nil
}

var errNoSettings = errors.New("settings are nil")

// checkBatchSize keeps each index batch within one provider request.
func checkBatchSize(settings *domain.AppSettings) error {
	if embeddingProvider(&settings.Embedding) == domain.AIProviderGemini &&
		settings.Index.BatchSize > geminiembed.MaxBatchSize {
		return fmt.Errorf("%w: index.batch_size %d exceeds the %s limit of %d",
			domain.ErrConfiguration, settings.Index.BatchSize, domain.AIProviderGemini, geminiembed.MaxBatchSize)
	}
	return nil
}

func checkProvider(missing bool, provider domain.AIProvider, configured bool) error {
	switch {
	case missing:
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, errNoSettings)
	case !provider.IsValid():
		return fmt.Errorf("%w: unsupported provider %q", domain.ErrConfiguration, provider)
	case !configured:
		return fmt.Errorf("%w: %s not set for provider %s", domain.ErrConfiguration, provider.APIKeyEnv(), provider)
	}
	return nil
}

func embeddingProvider(s *domain.EmbeddingSettings) domain.AIProvider {
	if s == nil {
		return ""
	}
	return s.Provider
}

func embeddingConfigured(s *domain.EmbeddingSettings) bool {
	return s != nil && s.IsConfigured()
}

func llmProvider(s *domain.LLMSettings) domain.AIProvider {
	if s == nil {
		return ""
	}
	return s.Provider
}

func llmConfigured(s *domain.LLMSettings) bool {
	return s != nil && s.IsConfigured()
}

// createGeminiEmbedding creates a Gemini embedding service.
func createGeminiEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return geminiembed.NewEmbeddingService(geminiembed.Config{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		Dimensions:        domain.EmbeddingDimensions()[geminillm.ModelPath(settings.Model)],
		RequestsPerMinute: settings.RequestsPerMinute,
	})
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		RequestsPerMinute: settings.RequestsPerMinute,
	})
}

// createGeminiLLM creates a Gemini LLM service.
func createGeminiLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return geminillm.NewLLMService(geminillm.LLMConfig{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		MaxRetries:        settings.MaxRetries,
		RequestsPerMinute: settings.RequestsPerMinute,
	})
}

// createOllamaLLM creates an Ollama LLM service.
func createOllamaLLM(settings *domain.LLMSettings) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		MaxRetries: settings.MaxRetries,
	})
}

// createOpenAILLM creates an OpenAI LLM service.
func createOpenAILLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		MaxRetries:        settings.MaxRetries,
		RequestsPerMinute: settings.RequestsPerMinute,
	})
}
