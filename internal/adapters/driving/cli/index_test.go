package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestIndexCmd_Use(t *testing.T) {
	assert.Equal(t, "index <file>", indexCmd.Use)
}

func TestIndexCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0, len(indexCmd.Commands()))
	for _, c := range indexCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"status", "rm"}, names)
}

func TestIndexCmd_RequiresExactlyOneArg(t *testing.T) {
	_, _, err := execute(t, "index")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestIndexCmd_Builds(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()

	path := writeTestDocument(t)
	out, _, err := execute(t, "index", path)

	require.NoError(t, err)
	fp, err := domain.FingerprintFile(path)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed handbook.txt ("+fp.String()+"): 4 chunks")
	assert.False(t, env.index.saved)
}

func TestIndexCmd_KeepUpload(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	defer func() { keepUpload = false }()

	out, _, err := execute(t, "index", "--keep-upload", writeTestDocument(t))

	require.NoError(t, err)
	assert.True(t, env.index.saved)
	assert.Contains(t, out, "Saved copy to uploads/handbook.txt")
}

func TestIndexCmd_BuildError(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	env.index.err = domain.ErrEmbeddingService

	_, _, err := execute(t, "index", writeTestDocument(t))

	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
}

func TestIndexCmd_MissingFile(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	_, _, err := execute(t, "index", "/does/not/exist.pdf")

	assert.ErrorIs(t, err, domain.ErrSourceRead)
}

func TestIndexStatusCmd(t *testing.T) {
	tests := []struct {
		name     string
		status   *domain.IndexStatus
		expected []string
	}{
		{
			name:     "not indexed",
			status:   &domain.IndexStatus{Fingerprint: "abc", Dir: "vector_stores/abc"},
			expected: []string{"Fingerprint: abc", "Directory:   vector_stores/abc", "State:       not indexed"},
		},
		{
			name:     "incomplete",
			status:   &domain.IndexStatus{Fingerprint: "abc", Dir: "vector_stores/abc", Exists: true},
			expected: []string{"State:       incomplete (will be rebuilt)"},
		},
		{
			name: "ready with metadata",
			status: &domain.IndexStatus{
				Fingerprint: "abc",
				Dir:         "vector_stores/abc",
				Exists:      true,
				Complete:    true,
				Metadata: &domain.IndexMetadata{
					Hash:           "abc",
					ChunkCount:     12,
					EmbeddingModel: "models/gemini-embedding-001",
					CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
				},
			},
			expected: []string{"State:       ready", "Chunks:      12", "Model:       models/gemini-embedding-001", "Created:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, cleanup := setupTestServices(t)
			defer cleanup()
			env.index.status = tt.status

			out, _, err := execute(t, "index", "status", writeTestDocument(t))

			require.NoError(t, err)
			assert.Contains(t, out, "Document:    handbook.txt")
			for _, want := range tt.expected {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestIndexStatusCmd_DoesNotOpenRuntime(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	origRuntime := openRuntime
	openRuntime = nil
	defer func() { openRuntime = origRuntime }()

	_, _, err := execute(t, "index", "status", writeTestDocument(t))

	assert.NoError(t, err)
}

func TestIndexRemoveCmd(t *testing.T) {
	t.Run("removes by fingerprint", func(t *testing.T) {
		env, cleanup := setupTestServices(t)
		defer cleanup()

		path := writeTestDocument(t)
		out, _, err := execute(t, "index", "rm", path)

		require.NoError(t, err)
		fp, err := domain.FingerprintFile(path)
		require.NoError(t, err)
		assert.Equal(t, fp, env.index.removed)
		assert.Contains(t, out, "Removed index "+fp.String())
	})

	t.Run("nothing to remove", func(t *testing.T) {
		env, cleanup := setupTestServices(t)
		defer cleanup()
		env.index.removeErr = domain.ErrNotFound

		path := writeTestDocument(t)
		out, _, err := execute(t, "index", "remove", path)

		require.NoError(t, err)
		assert.Contains(t, out, "No index for "+path)
	})

	t.Run("index service not configured", func(t *testing.T) {
		origIndex := openIndex
		openIndex = nil
		defer func() { openIndex = origIndex }()

		_, _, err := execute(t, "index", "rm", writeTestDocument(t))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "index service not configured")
	})
}
