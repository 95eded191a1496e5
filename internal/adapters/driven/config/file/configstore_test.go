package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
	assert.NoFileExists(t, store.Path(), "constructor must not write")
}

func TestNewConfigStore_WithNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	_, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestDefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot determine home directory")
	}

	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".docqa"), dir)
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.provider", "gemini"))
	require.NoError(t, store.Set("index.batch_size", 50))

	val, ok := store.Get("llm.provider")
	assert.True(t, ok)
	assert.Equal(t, "gemini", val)
	assert.Equal(t, "gemini", store.GetString("llm.provider"))
	assert.Equal(t, 50, store.GetInt("index.batch_size"))

	// Wrong types and missing keys read as zero values.
	assert.Equal(t, "", store.GetString("index.batch_size"))
	assert.Equal(t, 0, store.GetInt("llm.provider"))
	assert.Equal(t, 0, store.GetInt("missing"))
	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_SetInvalidKey(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", ".leading", "trailing."} {
		assert.Error(t, store.Set(key, "x"), key)
	}
}

func TestConfigStore_SetDoesNotPersistUntilSave(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.model", "gemini-2.5-flash"))
	assert.NoFileExists(t, store.Path())

	require.NoError(t, store.Save())
	assert.FileExists(t, store.Path())
}

func TestConfigStore_SaveWritesTables(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("embedding.provider", "ollama"))
	require.NoError(t, store.Set("index.batch_size", 10))
	require.NoError(t, store.Save())

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "[embedding]")
	assert.Contains(t, content, "[index]")
	assert.Contains(t, content, "batch_size = 10")
}

func TestConfigStore_SaveReload_PreservesData(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.provider", "openai"))
	require.NoError(t, store.Set("llm.max_retries", 2))
	require.NoError(t, store.Set("index.base_dir", "/var/lib/docqa"))
	require.NoError(t, store.Save())

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "openai", reloaded.GetString("llm.provider"))
	assert.Equal(t, 2, reloaded.GetInt("llm.max_retries"))
	assert.Equal(t, "/var/lib/docqa", reloaded.GetString("index.base_dir"))
}

func TestConfigStore_SaveConflictingKeys(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("index", "flat"))
	require.NoError(t, store.Set("index.batch_size", 10))
	assert.Error(t, store.Save())
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.api_key", "secret"))
	require.NoError(t, store.Save())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_LoadHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[embedding]
provider = "gemini"
requests_per_minute = 60

[index]
batch_delay_seconds = 0
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "gemini", store.GetString("embedding.provider"))
	assert.Equal(t, 60, store.GetInt("embedding.requests_per_minute"))

	val, ok := store.Get("index.batch_delay_seconds")
	assert.True(t, ok)
	assert.Equal(t, int64(0), val)
}

func TestConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), nil, 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[index\nbroken"), 0600))

	_, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("index.search_k", n)
			_ = store.GetInt("index.search_k")
		}(i)
	}
	wg.Wait()

	assert.NoError(t, store.Save())
}

func TestNestMap(t *testing.T) {
	flat := map[string]any{"a.b": 1, "a.c": "x", "d": true}

	nested, err := nestMap(flat)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": map[string]any{"b": 1, "c": "x"},
		"d": true,
	}, nested)
	assert.Equal(t, flat, flattenMap(nested, ""))
}
