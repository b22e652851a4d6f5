package services

import (
	"fmt"

	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driving"
)

// Ensure ConnectorRegistry implements the interface.
var _ driving.ConnectorRegistry = (*ConnectorRegistry)(nil)

// ConnectorRegistry describes the available connector types.
// The set is closed: documents come from local uploads or Google Drive.
type ConnectorRegistry struct {
	connectors map[string]domain.ConnectorType
}

// NewConnectorRegistry creates a registry with the built-in connectors.
func NewConnectorRegistry() *ConnectorRegistry {
	r := &ConnectorRegistry{
		connectors: make(map[string]domain.ConnectorType),
	}
	r.registerUpload()
	r.registerDrive()
	return r
}

func (r *ConnectorRegistry) registerUpload() {
	r.connectors[domain.SourceTypeUpload] = domain.ConnectorType{
		ID:          domain.SourceTypeUpload,
		Name:        "Local Upload",
		Description: "Index files from a local directory",
		ConfigKeys: []domain.ConfigKey{
			{
				Key:         "path",
				Label:       "Directory Path",
				Description: "Path to the directory to index",
				Required:    true,
			},
			{
				Key:         "patterns",
				Label:       "File Patterns",
				Description: "Glob patterns to match (e.g., *.md,*.txt)",
				Default:     "*",
			},
		},
	}
}

func (r *ConnectorRegistry) registerDrive() {
	r.connectors[domain.SourceTypeDrive] = domain.ConnectorType{
		ID:           domain.SourceTypeDrive,
		Name:         "Google Drive",
		Description:  "Index documents from Google Drive",
		RequiresAuth: true,
		ConfigKeys: []domain.ConfigKey{
			{
				Key:         "token",
				Label:       "OAuth Token",
				Description: "Stored OAuth2 token JSON with Drive read access",
				Required:    true,
			},
			{
				Key:         "client_id",
				Label:       "OAuth Client ID",
				Description: "Client ID for token refresh (optional)",
			},
			{
				Key:         "client_secret",
				Label:       "OAuth Client Secret",
				Description: "Client secret for token refresh (optional)",
			},
			{
				Key:         "folder_id",
				Label:       "Folder ID",
				Description: "Drive folder to sync (optional, defaults to all files)",
			},
			{
				Key:         "mime_types",
				Label:       "MIME Types",
				Description: "Filter by MIME types (optional)",
			},
			{
				Key:         "page_size",
				Label:       "Page Size",
				Description: "API page size (optional, default 100)",
			},
		},
	}
}

// Types returns all available connector types.
func (r *ConnectorRegistry) Types() []domain.ConnectorType {
	result := make([]domain.ConnectorType, 0, len(r.connectors))
	for _, c := range r.connectors {
		result = append(result, c)
	}
	return result
}

// Get returns a connector type by ID.
func (r *ConnectorRegistry) Get(id string) (*domain.ConnectorType, bool) {
	c, ok := r.connectors[id]
	if !ok {
		return nil, false
	}
	return &c, true
}

// ValidateConfig checks that all required config keys are present.
func (r *ConnectorRegistry) ValidateConfig(connectorType string, config map[string]string) error {
	connector, ok := r.connectors[connectorType]
	if !ok {
		return fmt.Errorf("%w: unknown connector type %q", domain.ErrUnsupportedType, connectorType)
	}

	var missing []string
	for _, key := range connector.ConfigKeys {
		if !key.Required {
			continue
		}
		if value, set := config[key.Key]; !set || value == "" {
			missing = append(missing, key.Key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required config keys %v for %s",
			domain.ErrInvalidInput, missing, connectorType)
	}
	return nil
}
