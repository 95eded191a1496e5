package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
)

// RegisterDefaults registers all built-in splitters with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
}

// buildChunker creates a chunker from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - overlap (int): Overlapping characters between chunks (default: 100)
func buildChunker(cfg map[string]any) (Splitter, error) {
	var opts []chunker.Option

	size, hasSize := getIntFromConfig(cfg, "chunk_size")
	if hasSize {
		if size <= 0 {
			return nil, fmt.Errorf("%w: chunk_size must be positive", domain.ErrConfiguration)
		}
		opts = append(opts, chunker.WithChunkSize(size))
	}

	overlap, hasOverlap := getIntFromConfig(cfg, "overlap")
	if hasOverlap {
		if overlap < 0 || (hasSize && overlap >= size) {
			return nil, fmt.Errorf("%w: overlap must be in [0, chunk_size)", domain.ErrConfiguration)
		}
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
