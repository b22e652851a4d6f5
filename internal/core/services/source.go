package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
	"github.com/quarrylabs/quarry/internal/core/ports/driving"
	"github.com/quarrylabs/quarry/internal/logger"
)

// Ensure SourceService implements the interface.
var _ driving.SourceService = (*SourceService)(nil)

// SourceService manages source configurations.
type SourceService struct {
	sourceStore driven.SourceStore
	syncStore   driven.SyncStateStore
	docStore    driven.DocumentStore
	index       driven.IndexStore
	registry    driving.ConnectorRegistry
}

// NewSourceService creates a source service.
func NewSourceService(
	sourceStore driven.SourceStore,
	syncStore driven.SyncStateStore,
	docStore driven.DocumentStore,
	index driven.IndexStore,
	registry driving.ConnectorRegistry,
) *SourceService {
	return &SourceService{
		sourceStore: sourceStore,
		syncStore:   syncStore,
		docStore:    docStore,
		index:       index,
		registry:    registry,
	}
}

// Add validates and stores a new source configuration. A missing ID gets a
// generated one; defaults from the connector type fill absent config keys.
func (s *SourceService) Add(ctx context.Context, source domain.Source) (*domain.Source, error) {
	if source.Type == "" {
		return nil, fmt.Errorf("%w: source type is required", domain.ErrInvalidInput)
	}
	if source.Name == "" {
		return nil, fmt.Errorf("%w: source name is required", domain.ErrInvalidInput)
	}

	if s.registry != nil {
		if err := s.registry.ValidateConfig(source.Type, source.Config); err != nil {
			return nil, err
		}
		source.Config = s.applyDefaults(source.Type, source.Config)
	}

	if source.ID == "" {
		source.ID = uuid.New().String()
	} else if existing, err := s.sourceStore.Get(ctx, source.ID); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: source %s", domain.ErrAlreadyExists, source.ID)
	}

	now := time.Now()
	source.CreatedAt = now
	source.UpdatedAt = now

	if err := s.sourceStore.Save(ctx, source); err != nil {
		return nil, fmt.Errorf("save source: %w", err)
	}

	logger.Info("Added source %s (%s)", source.Name, source.Type)
	return &source, nil
}

// Get retrieves a source by ID.
func (s *SourceService) Get(ctx context.Context, id string) (*domain.Source, error) {
	return s.sourceStore.Get(ctx, id)
}

// List returns all configured sources.
func (s *SourceService) List(ctx context.Context) ([]domain.Source, error) {
	return s.sourceStore.List(ctx)
}

// Update modifies an existing source configuration.
func (s *SourceService) Update(ctx context.Context, source domain.Source) error {
	if source.ID == "" {
		return fmt.Errorf("%w: source ID is required", domain.ErrInvalidInput)
	}

	existing, err := s.sourceStore.Get(ctx, source.ID)
	if err != nil {
		return err
	}

	if s.registry != nil {
		if err := s.registry.ValidateConfig(source.Type, source.Config); err != nil {
			return err
		}
	}

	source.CreatedAt = existing.CreatedAt
	source.UpdatedAt = time.Now()

	if err := s.sourceStore.Save(ctx, source); err != nil {
		return fmt.Errorf("save source: %w", err)
	}

	logger.Info("Updated source %s", source.ID)
	return nil
}

// Remove deletes a source together with its sync state, its documents and
// their index entries.
func (s *SourceService) Remove(ctx context.Context, id string) error {
	if _, err := s.sourceStore.Get(ctx, id); err != nil {
		return err
	}

	if s.docStore != nil {
		docs, err := s.docStore.ListDocuments(ctx, id)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("list documents: %w", err)
		}
		for i := range docs {
			if s.index != nil {
				if err := s.index.Delete(ctx, docs[i].ID); err != nil {
					logger.Warn("Failed to delete index entries for %s: %v", docs[i].ID, err)
				}
			}
			if err := s.docStore.DeleteDocument(ctx, docs[i].ID); err != nil {
				logger.Warn("Failed to delete document %s: %v", docs[i].ID, err)
			}
		}
	}

	if s.syncStore != nil {
		if err := s.syncStore.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Failed to delete sync state for %s: %v", id, err)
		}
	}

	if err := s.sourceStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete source: %w", err)
	}

	logger.Info("Removed source %s", id)
	return nil
}

// applyDefaults fills unset config keys with the connector type's defaults.
func (s *SourceService) applyDefaults(connectorType string, config map[string]string) map[string]string {
	connType, ok := s.registry.Get(connectorType)
	if !ok {
		return config
	}

	if config == nil {
		config = make(map[string]string)
	}
	for _, key := range connType.ConfigKeys {
		if key.Default == "" {
			continue
		}
		if _, set := config[key.Key]; !set {
			config[key.Key] = key.Default
		}
	}
	return config
}
