package postprocessors

import (
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
	"github.com/quarrylabs/quarry/internal/postprocessors/chunker"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Maximum characters per chunk (default: 1000)
//   - chunk_overlap (int): Overlapping characters between chunks (default: 200)
//   - chunk_lookback (int): Boundary scan window (default: chunk_size / 5)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size := getIntFromConfig(cfg, "chunk_size"); size != 0 {
			opts = append(opts, chunker.WithChunkSize(size))
		}
		if overlap, ok := lookupIntFromConfig(cfg, "chunk_overlap"); ok {
			opts = append(opts, chunker.WithOverlap(overlap))
		}
		if lookback := getIntFromConfig(cfg, "chunk_lookback"); lookback != 0 {
			opts = append(opts, chunker.WithLookback(lookback))
		}
	}

	return chunker.New(opts...)
}

// getIntFromConfig safely extracts an int from generic config, or 0.
func getIntFromConfig(cfg map[string]any, key string) int {
	v, _ := lookupIntFromConfig(cfg, key)
	return v
}

// lookupIntFromConfig extracts an int from generic config.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func lookupIntFromConfig(cfg map[string]any, key string) (int, bool) {
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
