// Package gemini provides an embedding service adapter using the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/custodia-labs/docqa/internal/adapters/driven/httpx"
	geminillm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/gemini"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = geminillm.DefaultBaseURL
	DefaultModel      = "models/gemini-embedding-001"
	DefaultTimeout    = 60 * time.Second
	DefaultDimensions = 3072

	// MaxBatchSize is the largest request list batchEmbedContents accepts.
	MaxBatchSize = 100
)

// Task types tell the model how the vector will be used.
const (
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"
)

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Google API key (required).
	APIKey string

	// BaseURL is the API base URL.
	BaseURL string

	// Model is the embedding model to use (default: models/gemini-embedding-001).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions is the embedding vector size (model-dependent).
	Dimensions int

	// RequestsPerMinute throttles requests. Zero disables throttling.
	RequestsPerMinute int

	// NewBackOff overrides the retry schedule.
	NewBackOff func() backoff.BackOff
}

// EmbeddingService generates embeddings using the Gemini API.
// Retries of failed batches are left to the caller, so the client makes
// exactly one attempt per request.
type EmbeddingService struct {
	client     *httpx.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
}

type embedContentRequest struct {
	Model    string  `json:"model"`
	Content  content `json:"content"`
	TaskType string  `json:"taskType,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type values struct {
	Values []float32 `json:"values"`
}

type embedContentResponse struct {
	Embedding values `json:"embedding"`
}

type batchEmbedRequest struct {
	Requests []embedContentRequest `json:"requests"`
}

type batchEmbedResponse struct {
	Embeddings []values `json:"embeddings"`
}

// NewEmbeddingService creates a new Gemini embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	return &EmbeddingService{
		client: httpx.NewClient(httpx.Config{
			Provider:          "gemini",
			Timeout:           cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
			NewBackOff:        cfg.NewBackOff,
		}),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      geminillm.ModelPath(cfg.Model),
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed generates a query embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := embedContentRequest{
		Model:    s.model,
		Content:  content{Parts: []part{{Text: text}}},
		TaskType: taskQuery,
	}

	var resp embedContentResponse
	if err := s.client.PostJSON(ctx, s.baseURL+"/"+s.model+":embedContent", s.header(), reqBody, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini: no embedding returned")
	}
	return resp.Embedding.Values, nil
}

// EmbedBatch generates document embeddings for texts, in order.
// Lists longer than MaxBatchSize are sent as several requests.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += MaxBatchSize {
		end := min(start+MaxBatchSize, len(texts))

		reqBody := batchEmbedRequest{Requests: make([]embedContentRequest, 0, end-start)}
		for _, t := range texts[start:end] {
			reqBody.Requests = append(reqBody.Requests, embedContentRequest{
				Model:    s.model,
				Content:  content{Parts: []part{{Text: t}}},
				TaskType: taskDocument,
			})
		}

		var resp batchEmbedResponse
		url := s.baseURL + "/" + s.model + ":batchEmbedContents"
		if err := s.client.PostJSON(ctx, url, s.header(), reqBody, &resp); err != nil {
			return nil, err
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("gemini: got %d embeddings for %d texts", len(resp.Embeddings), end-start)
		}
		for _, e := range resp.Embeddings {
			out = append(out, e.Values)
		}
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the API key by fetching the model description.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, s.baseURL+"/"+s.model, s.header())
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func (s *EmbeddingService) header() http.Header {
	return http.Header{"X-Goog-Api-Key": {s.apiKey}}
}
