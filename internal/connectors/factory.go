package connectors

import (
	"context"
	"fmt"

	"github.com/quarrylabs/quarry/internal/connectors/google"
	"github.com/quarrylabs/quarry/internal/connectors/google/drive"
	"github.com/quarrylabs/quarry/internal/connectors/upload"
	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = (*Factory)(nil)

// Factory builds connectors from source configurations.
type Factory struct{}

// NewFactory creates a connector factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create builds a connector for the source's type. Drive sources carry
// their OAuth token in the source config; the token source refreshes it
// when client credentials are present.
func (f *Factory) Create(ctx context.Context, source domain.Source) (driven.Connector, error) {
	switch source.Type {
	case domain.SourceTypeUpload:
		return upload.New(source)

	case domain.SourceTypeDrive:
		cfg, err := drive.ParseConfig(source)
		if err != nil {
			return nil, err
		}

		ts, err := google.NewTokenSource(ctx, source.Config["token"], source.Config["client_id"], source.Config["client_secret"])
		if err != nil {
			return nil, fmt.Errorf("drive token for source %s: %w", source.ID, err)
		}

		svc, err := google.NewDriveService(ctx, ts)
		if err != nil {
			return nil, fmt.Errorf("drive service for source %s: %w", source.ID, err)
		}

		return drive.New(source.ID, cfg, svc), nil

	default:
		return nil, fmt.Errorf("%w: connector %q", domain.ErrUnsupportedType, source.Type)
	}
}
