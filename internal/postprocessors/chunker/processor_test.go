package chunker

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.overlap)
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		p := New(WithChunkSize(500))
		if p.chunkSize != 500 {
			t.Errorf("expected chunkSize 500, got %d", p.chunkSize)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		if p.overlap >= p.chunkSize {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1), WithSeparators())
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", p.overlap)
		}
		if len(p.separators) != len(DefaultSeparators) {
			t.Errorf("expected default separators, got %q", p.separators)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	p := New()
	if p.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", p.Name())
	}
}

func TestSplitText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    []string
	}{
		{
			name: "fits in one chunk",
			text: "short text",
			size: 100,
			want: []string{"short text"},
		},
		{
			name: "words without overlap",
			text: "aaaa bbbb cccc",
			size: 10,
			want: []string{"aaaa bbbb", "cccc"},
		},
		{
			name:    "words with overlap",
			text:    "aaaa bbbb cccc",
			size:    10,
			overlap: 5,
			want:    []string{"aaaa bbbb", "bbbb cccc"},
		},
		{
			name: "paragraphs first",
			text: "para one.\n\npara two.",
			size: 15,
			want: []string{"para one.", "para two."},
		},
		{
			name:    "no separators falls back to characters",
			text:    "abcdefghijklmnopqrstuvwxy",
			size:    10,
			overlap: 2,
			want:    []string{"abcdefghij", "ijklmnopqr", "qrstuvwxy"},
		},
		{
			name: "whitespace only",
			text: "   \n  ",
			size: 10,
			want: nil,
		},
		{
			name: "empty",
			text: "",
			size: 10,
			want: nil,
		},
		{
			name: "counts characters not bytes",
			text: "ééééé",
			size: 2,
			want: []string{"éé", "éé", "é"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(WithChunkSize(tt.size), WithOverlap(tt.overlap))
			assert.Equal(t, tt.want, p.SplitText(tt.text))
		})
	}
}

func TestSplitText_ChunksNeverExceedSize(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString("The quick brown fox jumps over the lazy dog. ")
		if i%7 == 0 {
			sb.WriteString("\n")
		}
		if i%23 == 0 {
			sb.WriteString("\n\n" + strings.Repeat("x", 130) + "\n\n")
		}
	}

	p := New(WithChunkSize(100), WithOverlap(20))
	chunks := p.SplitText(sb.String())
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 100)
		assert.Equal(t, strings.TrimSpace(c), c)
		assert.NotEmpty(t, c)
	}
}

func TestSplitText_Deterministic(t *testing.T) {
	text := strings.Repeat("alpha beta gamma\n", 300)
	p := New(WithChunkSize(120), WithOverlap(30))
	assert.Equal(t, p.SplitText(text), p.SplitText(text))
}

func TestSplit_PageProvenance(t *testing.T) {
	p := New(WithChunkSize(10), WithOverlap(0))
	pages := []domain.Page{
		{Number: 1, Text: "aaaa bbbb cccc"},
		{Number: 2, Text: "  "},
		{Number: 3, Text: "dd"},
	}

	chunks, err := p.Split(context.Background(), pages)
	require.NoError(t, err)

	assert.Equal(t, []domain.Chunk{
		{Text: "aaaa bbbb", Page: 1, Index: 0},
		{Text: "cccc", Page: 1, Index: 1},
		{Text: "dd", Page: 3, Index: 2},
	}, chunks)
}

func TestSplit_NoPages(t *testing.T) {
	chunks, err := New().Split(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Split(ctx, []domain.Page{{Number: 1, Text: "text"}})
	assert.ErrorIs(t, err, context.Canceled)
}
