package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedRPM       = "embedding.requests_per_minute"
	keyLLMProvider    = "llm.provider"
	keyLLMModel       = "llm.model"
	keyLLMBaseURL     = "llm.base_url"
	keyLLMAPIKey      = "llm.api_key"
	keyLLMMaxRetries  = "llm.max_retries"
	keyLLMRPM         = "llm.requests_per_minute"
	keyChunkSize      = "index.chunk_size"
	keyChunkOverlap   = "index.chunk_overlap"
	keySearchK        = "index.search_k"
	keyBatchSize      = "index.batch_size"
	keyBatchDelay     = "index.batch_delay_seconds"
	keyRetryAttempts  = "index.retry_attempts"
	keyIndexBaseDir   = "index.base_dir"
	keyIndexUploadDir = "index.upload_dir"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// intKeys are stored as integers; every other key is a string.
var intKeys = map[string]bool{
	keyEmbedRPM:      true,
	keyLLMMaxRetries: true,
	keyLLMRPM:        true,
	keyChunkSize:     true,
	keyChunkOverlap:  true,
	keySearchK:       true,
	keyBatchSize:     true,
	keyBatchDelay:    true,
	keyRetryAttempts: true,
}

// allKeys lists the supported keys in display order.
var allKeys = []string{
	keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey, keyEmbedRPM,
	keyLLMProvider, keyLLMModel, keyLLMBaseURL, keyLLMAPIKey, keyLLMMaxRetries, keyLLMRPM,
	keyChunkSize, keyChunkOverlap, keySearchK, keyBatchSize, keyBatchDelay, keyRetryAttempts,
	keyIndexBaseDir, keyIndexUploadDir,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithEnv replaces the environment lookup used for API keys.
func WithEnv(getenv func(string) string) SettingsOption {
	return func(s *SettingsService) {
		if getenv != nil {
			s.getenv = getenv
		}
	}
}

// NewSettingsService creates a new settings service.
// The aiValidator parameter is optional (can be nil).
func NewSettingsService(
	configStore driven.ConfigStore, aiValidator driven.AIConfigValidator, opts ...SettingsOption,
) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves current application settings.
// An API key missing from the config file is read from the provider's
// environment variable.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			RequestsPerMinute: s.getInt(keyEmbedRPM, defaults.Embedding.RequestsPerMinute),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			BaseURL:           s.configStore.GetString(keyLLMBaseURL),
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			MaxRetries:        s.getInt(keyLLMMaxRetries, defaults.LLM.MaxRetries),
			RequestsPerMinute: s.getInt(keyLLMRPM, defaults.LLM.RequestsPerMinute),
		},
		Index: domain.IndexSettings{
			ChunkSize:     s.getInt(keyChunkSize, defaults.Index.ChunkSize),
			ChunkOverlap:  s.getInt(keyChunkOverlap, defaults.Index.ChunkOverlap),
			SearchK:       s.getInt(keySearchK, defaults.Index.SearchK),
			BatchSize:     s.getInt(keyBatchSize, defaults.Index.BatchSize),
			BatchDelay:    time.Duration(s.getInt(keyBatchDelay, int(defaults.Index.BatchDelay/time.Second))) * time.Second,
			RetryAttempts: s.getInt(keyRetryAttempts, defaults.Index.RetryAttempts),
			BaseDir:       s.getString(keyIndexBaseDir, defaults.Index.BaseDir),
			UploadDir:     s.getString(keyIndexUploadDir, defaults.Index.UploadDir),
		},
	}

	settings.Embedding.Model = s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[settings.Embedding.Provider])
	settings.LLM.Model = s.getString(keyLLMModel, domain.DefaultLLMModels()[settings.LLM.Provider])

	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.envKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.envKey(settings.LLM.Provider)
	}

	return settings, nil
}

// Save persists application settings.
// API keys that came from the environment are not written to the config file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key string
		val any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedRPM, settings.Embedding.RequestsPerMinute},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMMaxRetries, settings.LLM.MaxRetries},
		{keyLLMRPM, settings.LLM.RequestsPerMinute},
		{keyChunkSize, settings.Index.ChunkSize},
		{keyChunkOverlap, settings.Index.ChunkOverlap},
		{keySearchK, settings.Index.SearchK},
		{keyBatchSize, settings.Index.BatchSize},
		{keyBatchDelay, int(settings.Index.BatchDelay / time.Second)},
		{keyRetryAttempts, settings.Index.RetryAttempts},
		{keyIndexBaseDir, settings.Index.BaseDir},
		{keyIndexUploadDir, settings.Index.UploadDir},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.val); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if key := settings.Embedding.APIKey; key != "" && key != s.envKey(settings.Embedding.Provider) {
		if err := s.configStore.Set(keyEmbedAPIKey, key); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}
	if key := settings.LLM.APIKey; key != "" && key != s.envKey(settings.LLM.Provider) {
		if err := s.configStore.Set(keyLLMAPIKey, key); err != nil {
			return fmt.Errorf("save %s: %w", keyLLMAPIKey, err)
		}
	}

	return s.configStore.Save()
}

// Set updates a single setting by key.
func (s *SettingsService) Set(key, value string) error {
	if !isKnownKey(key) {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var stored any = value
	switch {
	case intKeys[key]:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		stored = n
	case key == keyEmbedProvider || key == keyLLMProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, value)
		}
	}

	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return s.configStore.Save()
}

// Keys returns every supported config key in display order.
func (s *SettingsService) Keys() []string {
	return append([]string(nil), allKeys...)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate returns domain.ErrConfiguration when the settings cannot serve a session.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt returns defaultVal only when the key is absent, so an explicit
// zero (for example a disabled batch delay) is kept.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) envKey(p domain.AIProvider) string {
	name := p.APIKeyEnv()
	if name == "" {
		return ""
	}
	return s.getenv(name)
}

func isKnownKey(key string) bool {
	for _, k := range allKeys {
		if k == key {
			return true
		}
	}
	return false
}

func modelOrDefault(model, def string) string {
	if model != "" {
		return model
	}
	return def
}

// baseURLFor keeps a custom URL for local providers and clears it for cloud ones.
func baseURLFor(p domain.AIProvider, current string) string {
	if !p.IsLocal() {
		return ""
	}
	if current == "" {
		return defaultOllamaBaseURL
	}
	return current
}
