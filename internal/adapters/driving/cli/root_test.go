package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// mockSearchableIndex is a mock implementation of driving.SearchableIndex.
type mockSearchableIndex struct {
	fp     domain.Fingerprint
	chunks []domain.Chunk
}

func (m *mockSearchableIndex) Fingerprint() domain.Fingerprint { return m.fp }

func (m *mockSearchableIndex) Search(_ context.Context, _ string, k int) ([]domain.Chunk, error) {
	if k < len(m.chunks) {
		return m.chunks[:k], nil
	}
	return m.chunks, nil
}

func (m *mockSearchableIndex) Len() int { return len(m.chunks) }

func (m *mockSearchableIndex) Close() error { return nil }

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	status    *domain.IndexStatus
	removeErr error
	err       error

	removed domain.Fingerprint
	saved   bool
}

func (m *mockIndexService) LoadOrCreate(_ context.Context, doc *domain.Document) (driving.SearchableIndex, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &mockSearchableIndex{fp: doc.Fingerprint(), chunks: testChunks()}, nil
}

func (m *mockIndexService) Status(_ context.Context, doc *domain.Document) (*domain.IndexStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.status != nil {
		return m.status, nil
	}
	return &domain.IndexStatus{Fingerprint: doc.Fingerprint(), Dir: "vector_stores/" + doc.Fingerprint().String()}, nil
}

func (m *mockIndexService) Remove(_ context.Context, fp domain.Fingerprint) error {
	m.removed = fp
	return m.removeErr
}

func (m *mockIndexService) SaveUpload(_ context.Context, doc *domain.Document) (string, error) {
	m.saved = true
	return filepath.Join("uploads", doc.Name), nil
}

// mockSessionService is a mock implementation of driving.SessionService.
type mockSessionService struct {
	result  domain.AnswerResult
	askErr  error
	openErr error

	asked  []string
	lastK  int
	closed bool
}

func (m *mockSessionService) Open(_ context.Context, doc *domain.Document) (*domain.Session, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	s := domain.NewSession("test", *doc)
	s.Fingerprint = doc.Fingerprint()
	s.State = domain.SessionReady
	return s, nil
}

func (m *mockSessionService) Ask(_ context.Context, s *domain.Session, query string) (domain.AnswerResult, error) {
	m.asked = append(m.asked, query)
	s.Record(query, m.result, m.askErr)
	return m.result, m.askErr
}

func (m *mockSessionService) Sources(_ context.Context, _ *domain.Session, _ string, k int) ([]domain.Chunk, error) {
	m.lastK = k
	chunks := testChunks()
	if k < len(chunks) {
		return chunks[:k], nil
	}
	return chunks, nil
}

func (m *mockSessionService) Close(*domain.Session) error {
	m.closed = true
	return nil
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	setErr      error

	setKey, setValue string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	m.setKey, m.setValue = key, value
	return m.setErr
}

func (m *mockSettingsService) Keys() []string {
	return []string{"embedding.provider", "llm.model", "index.chunk_size"}
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding.Provider = p
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.settings.LLM.Provider = p
	m.settings.LLM.Model = model
	m.settings.LLM.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return nil }

func (m *mockSettingsService) ValidateLLMConfig() error { return nil }

// testEnv holds the mocks installed by setupTestServices.
type testEnv struct {
	index     *mockIndexService
	sessions  *mockSessionService
	settings  *mockSettingsService
	observer  driven.Observer
	ephemeral bool
}

// setupTestServices installs mock services and returns a cleanup function
// restoring the previous ones.
func setupTestServices(t *testing.T) (*testEnv, func()) {
	t.Helper()

	env := &testEnv{
		index:    &mockIndexService{},
		sessions: &mockSessionService{},
		settings: newMockSettingsService(),
	}

	origSettings, origRuntime, origIndex := settingsService, openRuntime, openIndex
	SetServices(Services{
		Settings: env.settings,
		OpenRuntime: func(_ context.Context, opts RuntimeOptions) (*Runtime, error) {
			env.observer = opts.Observer
			env.ephemeral = opts.Ephemeral
			return NewRuntime(env.index, env.sessions, 3, nil), nil
		},
		OpenIndex: func() (driving.IndexService, error) {
			return env.index, nil
		},
	})

	return env, func() {
		settingsService, openRuntime, openIndex = origSettings, origRuntime, origIndex
	}
}

// execute runs rootCmd with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetIn(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func testChunks() []domain.Chunk {
	return []domain.Chunk{
		{Text: "Refunds are issued within 14 days.", Page: 2, Index: 4},
		{Text: "Contact support by email.", Page: 3, Index: 7},
		{Text: "Shipping is free over 50 euros.", Page: 5, Index: 11},
		{Text: "Warranty covers two years.", Page: 6, Index: 12},
	}
}

// writeTestDocument writes a small text document and returns its path.
func writeTestDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "handbook.txt")
	require.NoError(t, os.WriteFile(path, []byte("Refunds are issued within 14 days."), 0o600))
	return path
}

func TestRuntime_CloseOnce(t *testing.T) {
	calls := 0
	rt := NewRuntime(nil, nil, 3, func() error {
		calls++
		return errors.New("closed")
	})

	assert.EqualError(t, rt.Close(), "closed")
	assert.EqualError(t, rt.Close(), "closed")
	assert.Equal(t, 1, calls)
}

func TestRuntime_CloseNilCloser(t *testing.T) {
	rt := NewRuntime(nil, nil, 3, nil)
	assert.NoError(t, rt.Close())
}

func TestReadDocument(t *testing.T) {
	t.Run("reads content and name", func(t *testing.T) {
		path := writeTestDocument(t)

		doc, err := readDocument(path)

		require.NoError(t, err)
		assert.Equal(t, "handbook.txt", doc.Name)
		assert.Equal(t, path, doc.Path)
		assert.Equal(t, "Refunds are issued within 14 days.", string(doc.Content))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readDocument(filepath.Join(t.TempDir(), "missing.pdf"))
		assert.ErrorIs(t, err, domain.ErrSourceRead)
	})
}

func TestProgressObserver(t *testing.T) {
	buf := new(bytes.Buffer)
	obs := newProgressObserver(buf)

	obs.OnEvent(context.Background(), domain.Event{Stage: domain.StageEmbed, Message: "batch 1/2"})
	obs.OnEvent(context.Background(), domain.Event{Stage: domain.StageWait, Message: "pausing 1m0s"})

	assert.Equal(t, "[embed] batch 1/2\n[wait] pausing 1m0s\n", buf.String())
}

func TestRootCmd_QuietUsesNopObserver(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()

	quiet = true
	defer func() { quiet = false }()

	_, _, err := execute(t, "index", writeTestDocument(t))

	require.NoError(t, err)
	assert.IsType(t, driven.NopObserver{}, env.observer)
}

func TestRootCmd_RuntimeNotConfigured(t *testing.T) {
	origRuntime := openRuntime
	openRuntime = nil
	defer func() { openRuntime = origRuntime }()

	_, _, err := execute(t, "index", writeTestDocument(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "runtime not configured")
}

func TestRootCmd_RuntimeFactoryError(t *testing.T) {
	origRuntime := openRuntime
	openRuntime = func(context.Context, RuntimeOptions) (*Runtime, error) {
		return nil, domain.ErrConfiguration
	}
	defer func() { openRuntime = origRuntime }()

	_, _, err := execute(t, "ask", writeTestDocument(t), "anything?")

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRootCmd_EphemeralFlag(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	defer func() { ephemeral = false }()

	_, _, err := execute(t, "--ephemeral", "index", writeTestDocument(t))

	require.NoError(t, err)
	assert.True(t, env.ephemeral)
}
