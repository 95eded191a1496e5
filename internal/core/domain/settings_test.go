package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAIProvider_IsValid tests all valid and invalid providers
func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{name: "gemini is valid", provider: AIProviderGemini, expected: true},
		{name: "ollama is valid", provider: AIProviderOllama, expected: true},
		{name: "openai is valid", provider: AIProviderOpenAI, expected: true},
		{name: "anthropic is not supported", provider: AIProvider("anthropic"), expected: false},
		{name: "empty string is invalid", provider: AIProvider(""), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

// TestAIProvider_RequiresAPIKey tests which providers need credentials
func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.True(t, AIProviderGemini.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOllama.IsLocal())
}

// TestAIProvider_APIKeyEnv tests environment variable names
func TestAIProvider_APIKeyEnv(t *testing.T) {
	assert.Equal(t, "GOOGLE_API_KEY", AIProviderGemini.APIKeyEnv())
	assert.Equal(t, "OPENAI_API_KEY", AIProviderOpenAI.APIKeyEnv())
	assert.Empty(t, AIProviderOllama.APIKeyEnv())
}

// TestAIProvider_Description tests human-readable names
func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Google Gemini (cloud)", AIProviderGemini.Description())
	assert.Equal(t, "Unknown", AIProvider("other").Description())
}

// TestDefaultAppSettings tests the built-in defaults
func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, AIProviderGemini, s.Embedding.Provider)
	assert.Equal(t, "models/gemini-embedding-001", s.Embedding.Model)
	assert.Equal(t, AIProviderGemini, s.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", s.LLM.Model)
	assert.Equal(t, 2, s.LLM.MaxRetries)

	assert.Equal(t, 1000, s.Index.ChunkSize)
	assert.Equal(t, 100, s.Index.ChunkOverlap)
	assert.Equal(t, 3, s.Index.SearchK)
	assert.Equal(t, 50, s.Index.BatchSize)
	assert.Equal(t, 60*time.Second, s.Index.BatchDelay)
	assert.Equal(t, 3, s.Index.RetryAttempts)
	assert.Equal(t, "vector_stores", s.Index.BaseDir)
	assert.Equal(t, "uploads", s.Index.UploadDir)
}

// TestAppSettings_Validate tests configuration errors
func TestAppSettings_Validate(t *testing.T) {
	t.Run("defaults without API key fail", func(t *testing.T) {
		s := DefaultAppSettings()
		err := s.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.Contains(t, err.Error(), "GOOGLE_API_KEY")
	})

	t.Run("defaults with API keys pass", func(t *testing.T) {
		s := DefaultAppSettings()
		s.Embedding.APIKey = "key"
		s.LLM.APIKey = "key"
		assert.NoError(t, s.Validate())
	})

	t.Run("local providers need no key", func(t *testing.T) {
		s := DefaultAppSettings()
		s.Embedding.Provider = AIProviderOllama
		s.LLM.Provider = AIProviderOllama
		assert.NoError(t, s.Validate())
	})

	t.Run("unknown provider fails", func(t *testing.T) {
		s := DefaultAppSettings()
		s.LLM.Provider = AIProvider("nope")
		s.Embedding.APIKey = "key"
		assert.ErrorIs(t, s.Validate(), ErrConfiguration)
	})
}

// TestIndexSettings_Validate tests index parameter bounds
func TestIndexSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*IndexSettings)
		valid  bool
	}{
		{name: "defaults", mutate: func(*IndexSettings) {}, valid: true},
		{name: "zero chunk size", mutate: func(s *IndexSettings) { s.ChunkSize = 0 }, valid: false},
		{name: "overlap equal to size", mutate: func(s *IndexSettings) { s.ChunkOverlap = s.ChunkSize }, valid: false},
		{name: "negative overlap", mutate: func(s *IndexSettings) { s.ChunkOverlap = -1 }, valid: false},
		{name: "zero k", mutate: func(s *IndexSettings) { s.SearchK = 0 }, valid: false},
		{name: "zero batch size", mutate: func(s *IndexSettings) { s.BatchSize = 0 }, valid: false},
		{name: "negative delay", mutate: func(s *IndexSettings) { s.BatchDelay = -time.Second }, valid: false},
		{name: "zero delay", mutate: func(s *IndexSettings) { s.BatchDelay = 0 }, valid: true},
		{name: "empty base dir", mutate: func(s *IndexSettings) { s.BaseDir = "" }, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultAppSettings().Index
			tt.mutate(&s)
			err := s.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrConfiguration)
			}
		})
	}
}

// TestDefaultModels_CoverProviders tests every provider has a default model
func TestDefaultModels_CoverProviders(t *testing.T) {
	for _, p := range AllEmbeddingProviders() {
		assert.NotEmpty(t, DefaultEmbeddingModels()[p], p)
	}
	for _, p := range AllLLMProviders() {
		assert.NotEmpty(t, DefaultLLMModels()[p], p)
	}
	assert.Equal(t, 3072, EmbeddingDimensions()["models/gemini-embedding-001"])
}
