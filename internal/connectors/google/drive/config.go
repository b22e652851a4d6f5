package drive

import (
	"strconv"
	"strings"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

// maxPageSize is the largest page size the Drive API accepts.
const maxPageSize = 1000

// Config holds Google Drive connector configuration.
type Config struct {
	// FolderID limits syncing to the direct children of one folder
	// (optional). Empty means the whole drive.
	FolderID string

	// MimeTypeFilter limits syncing to specific MIME types (optional).
	MimeTypeFilter []string

	// PageSize is the page size for API requests.
	PageSize int64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		PageSize: 100,
	}
}

// ParseConfig extracts configuration from a Source.
func ParseConfig(source domain.Source) (*Config, error) {
	cfg := DefaultConfig()

	cfg.FolderID = strings.TrimSpace(source.Config["folder_id"])

	if val := source.Config["mime_types"]; val != "" {
		for _, raw := range strings.Split(val, ",") {
			if mt := strings.TrimSpace(raw); mt != "" {
				cfg.MimeTypeFilter = append(cfg.MimeTypeFilter, mt)
			}
		}
	}

	if val := source.Config["page_size"]; val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil && n > 0 {
			if n > maxPageSize {
				n = maxPageSize
			}
			cfg.PageSize = n
		}
	}

	return cfg, nil
}

// MatchesMimeType checks a MIME type against the configured filter.
// An empty filter matches everything.
func (c *Config) MatchesMimeType(mimeType string) bool {
	if len(c.MimeTypeFilter) == 0 {
		return true
	}
	for _, filter := range c.MimeTypeFilter {
		if mimeType == filter {
			return true
		}
	}
	return false
}
