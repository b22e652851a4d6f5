package upload

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

// Config holds upload connector configuration.
type Config struct {
	// Path is the root directory to index.
	Path string

	// Patterns are glob patterns matched against file base names.
	// Empty means every file matches.
	Patterns []string
}

// ParseConfig extracts configuration from a Source.
func ParseConfig(source domain.Source) (*Config, error) {
	path := strings.TrimSpace(source.Config["path"])
	if path == "" {
		return nil, fmt.Errorf("%w: upload source requires a 'path'", domain.ErrInvalidConfig)
	}

	cfg := &Config{Path: path}

	if val := source.Config["patterns"]; val != "" {
		for _, raw := range strings.Split(val, ",") {
			pattern := strings.TrimSpace(raw)
			if pattern == "" || pattern == "*" {
				continue
			}
			if _, err := filepath.Match(pattern, "probe"); err != nil {
				return nil, fmt.Errorf("%w: bad pattern %q: %w", domain.ErrInvalidConfig, pattern, err)
			}
			cfg.Patterns = append(cfg.Patterns, pattern)
		}
	}

	return cfg, nil
}

// Matches reports whether a file base name passes the pattern filter.
func (c *Config) Matches(name string) bool {
	if len(c.Patterns) == 0 {
		return true
	}
	for _, pattern := range c.Patterns {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
