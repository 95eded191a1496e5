package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewEmbeddingService(Config{APIKey: "test-key", BaseURL: srv.URL, Dimensions: 2})
	require.NoError(t, err)
	return svc
}

// batchHandler answers batchEmbedContents with one vector per request,
// encoding the request's position in the first component.
func batchHandler(t *testing.T, sizes *[]int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-embedding-001:batchEmbedContents", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))

		var req batchEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*sizes = append(*sizes, len(req.Requests))

		parts := make([]string, len(req.Requests))
		for i, item := range req.Requests {
			assert.Equal(t, taskDocument, item.TaskType)
			assert.Equal(t, "models/gemini-embedding-001", item.Model)
			var n int
			_, err := fmt.Sscanf(item.Content.Parts[0].Text, "text %d", &n)
			require.NoError(t, err)
			parts[i] = fmt.Sprintf(`{"values":[%d,1]}`, n)
		}
		_, _ = fmt.Fprintf(w, `{"embeddings":[%s]}`, strings.Join(parts, ","))
	}
}

func TestNewEmbeddingService(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.Error(t, err)

	svc, err := NewEmbeddingService(Config{APIKey: "k", Model: "gemini-embedding-001"})
	require.NoError(t, err)
	assert.Equal(t, "models/gemini-embedding-001", svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
}

func TestEmbedBatch(t *testing.T) {
	var sizes []int
	svc := newTestService(t, batchHandler(t, &sizes))

	vecs, err := svc.EmbedBatch(context.Background(), []string{"text 0", "text 1", "text 2"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for i, v := range vecs {
		assert.Equal(t, []float32{float32(i), 1}, v)
	}
	assert.Equal(t, []int{3}, sizes)
}

func TestEmbedBatch_SplitsLargeLists(t *testing.T) {
	var sizes []int
	svc := newTestService(t, batchHandler(t, &sizes))

	texts := make([]string, MaxBatchSize+5)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}

	vecs, err := svc.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, len(texts))
	assert.Equal(t, float32(MaxBatchSize+4), vecs[MaxBatchSize+4][0])
	assert.Equal(t, []int{MaxBatchSize, 5}, sizes)
}

func TestEmbedBatch_Empty(t *testing.T) {
	svc := newTestService(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected")
	})

	vecs, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[{"values":[1,0]}]}`))
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestEmbedBatch_RateLimitedFailsFast(t *testing.T) {
	calls := 0
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"a"})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestEmbed(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-embedding-001:embedContent", r.URL.Path)
		var req embedContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, taskQuery, req.TaskType)
		assert.Equal(t, "what is it", req.Content.Parts[0].Text)
		_, _ = w.Write([]byte(`{"embedding":{"values":[0.5,0.25]}}`))
	})

	vec, err := svc.Embed(context.Background(), "what is it")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vec)
}

func TestEmbed_Empty(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":{"values":[]}}`))
	})

	_, err := svc.Embed(context.Background(), "x")
	assert.Error(t, err)
}
