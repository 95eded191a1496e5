package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDocument_Fingerprint tests that identity depends on content only
func TestDocument_Fingerprint(t *testing.T) {
	a := Document{Name: "a.pdf", Path: "/tmp/a.pdf", Content: []byte("same bytes")}
	b := Document{Name: "renamed.pdf", Path: "/elsewhere/renamed.pdf", Content: []byte("same bytes")}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, ComputeFingerprint([]byte("same bytes")), a.Fingerprint())
}

// TestDocument_Title tests title derivation
func TestDocument_Title(t *testing.T) {
	tests := []struct {
		name     string
		doc      Document
		expected string
	}{
		{name: "strips extension", doc: Document{Name: "report.pdf"}, expected: "report"},
		{name: "replaces separators", doc: Document{Name: "annual_report-2024.pdf"}, expected: "annual report 2024"},
		{name: "falls back to path", doc: Document{Path: "/docs/user_guide.txt"}, expected: "user guide"},
		{name: "no extension", doc: Document{Name: "README"}, expected: "README"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.doc.Title())
		})
	}
}

// TestIndexMetadata_Matches tests the completion gate
func TestIndexMetadata_Matches(t *testing.T) {
	fp := ComputeFingerprint([]byte("doc"))

	assert.True(t, IndexMetadata{Hash: fp}.Matches(fp))
	assert.False(t, IndexMetadata{Hash: ComputeFingerprint([]byte("other"))}.Matches(fp))
	assert.False(t, IndexMetadata{}.Matches(fp))
	assert.False(t, IndexMetadata{}.Matches(""))
}

// TestIndexMetadata_JSON tests the persisted shape
func TestIndexMetadata_JSON(t *testing.T) {
	t.Run("minimal file is readable", func(t *testing.T) {
		var m IndexMetadata
		require.NoError(t, json.Unmarshal([]byte(`{"hash": "d41d8cd98f00b204e9800998ecf8427e"}`), &m))
		assert.True(t, m.Matches("d41d8cd98f00b204e9800998ecf8427e"))
		assert.Zero(t, m.ChunkCount)
	})

	t.Run("writes hash key", func(t *testing.T) {
		m := IndexMetadata{
			Hash:           "d41d8cd98f00b204e9800998ecf8427e",
			ChunkCount:     7,
			EmbeddingModel: "models/gemini-embedding-001",
			CreatedAt:      time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		}
		data, err := json.Marshal(m)
		require.NoError(t, err)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(data, &raw))
		assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", raw["hash"])
		assert.EqualValues(t, 7, raw["chunk_count"])
	})
}

func TestPagesFromText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Page
	}{
		{name: "no breaks", text: "one page", want: []Page{{Number: 1, Text: "one page"}}},
		{name: "empty", text: "", want: []Page{{Number: 1, Text: ""}}},
		{
			name: "trailing break",
			text: "first\fsecond\f",
			want: []Page{{Number: 1, Text: "first"}, {Number: 2, Text: "second"}},
		},
		{
			name: "blank page keeps numbering",
			text: "first\f\fthird",
			want: []Page{{Number: 1, Text: "first"}, {Number: 2, Text: ""}, {Number: 3, Text: "third"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PagesFromText(tt.text))
		})
	}
}
