package cli

import (
	"context"

	"github.com/stretchr/testify/assert"

	"github.com/quarrylabs/quarry/internal/adapters/driven/storage/memory"
	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driving"
)

// Shared mocks for command tests. Each implements just enough of its
// port to drive the happy and error paths.

type mockRetrieveService struct {
	results   []domain.RetrievalResult
	lastQuery string
	lastOpts  domain.RetrieveOptions
}

func (m *mockRetrieveService) Retrieve(_ context.Context, query string, opts domain.RetrieveOptions) ([]domain.RetrievalResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, nil
}

type mockRetrieveServiceError struct{}

func (m *mockRetrieveServiceError) Retrieve(_ context.Context, _ string, _ domain.RetrieveOptions) ([]domain.RetrievalResult, error) {
	return nil, assert.AnError
}

type mockSourceService struct {
	sources []domain.Source
}

func (m *mockSourceService) Add(_ context.Context, source domain.Source) (*domain.Source, error) {
	if source.ID == "" {
		source.ID = "source-new"
	}
	return &source, nil
}

func (m *mockSourceService) Get(_ context.Context, id string) (*domain.Source, error) {
	for i := range m.sources {
		if m.sources[i].ID == id {
			return &m.sources[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockSourceService) List(_ context.Context) ([]domain.Source, error) {
	return m.sources, nil
}

func (m *mockSourceService) Update(_ context.Context, _ domain.Source) error {
	return nil
}

func (m *mockSourceService) Remove(_ context.Context, _ string) error {
	return nil
}

type mockSourceServiceEmpty struct {
	mockSourceService
}

type mockSourceServiceError struct{}

func (m *mockSourceServiceError) Add(_ context.Context, _ domain.Source) (*domain.Source, error) {
	return nil, assert.AnError
}

func (m *mockSourceServiceError) Get(_ context.Context, _ string) (*domain.Source, error) {
	return nil, assert.AnError
}

func (m *mockSourceServiceError) List(_ context.Context) ([]domain.Source, error) {
	return nil, assert.AnError
}

func (m *mockSourceServiceError) Update(_ context.Context, _ domain.Source) error {
	return assert.AnError
}

func (m *mockSourceServiceError) Remove(_ context.Context, _ string) error {
	return assert.AnError
}

type mockSyncServiceError struct{}

func (m *mockSyncServiceError) Sync(_ context.Context, _ string) error {
	return assert.AnError
}

func (m *mockSyncServiceError) SyncAll(_ context.Context) error {
	return assert.AnError
}

func (m *mockSyncServiceError) Watch(_ context.Context, _ string) error {
	return assert.AnError
}

func (m *mockSyncServiceError) Status(_ context.Context, _ string) (*driving.SyncStatus, error) {
	return nil, nil
}

type mockConnectorRegistry struct{}

func (m *mockConnectorRegistry) Types() []domain.ConnectorType {
	return []domain.ConnectorType{
		{
			ID:   domain.SourceTypeUpload,
			Name: "Local Upload",
			ConfigKeys: []domain.ConfigKey{
				{Key: "path", Label: "Path", Description: "directory to index", Required: true},
			},
		},
		{
			ID:           domain.SourceTypeDrive,
			Name:         "Google Drive",
			RequiresAuth: true,
			ConfigKeys: []domain.ConfigKey{
				{Key: "token", Label: "Token", Description: "OAuth token JSON", Required: true},
				{Key: "folder_id", Label: "Folder", Description: "folder to scope the sync to"},
			},
		},
	}
}

func (m *mockConnectorRegistry) Get(id string) (*domain.ConnectorType, bool) {
	for _, ct := range m.Types() {
		if ct.ID == id {
			return &ct, true
		}
	}
	return nil, false
}

func (m *mockConnectorRegistry) ValidateConfig(_ string, _ map[string]string) error {
	return nil
}

type mockConnectorRegistryEmpty struct {
	mockConnectorRegistry
}

func (m *mockConnectorRegistryEmpty) Types() []domain.ConnectorType {
	return nil
}

// setupTestServices installs mock services with canned data and returns
// a cleanup that restores the previous wiring.
func setupTestServices() func() {
	oldRetrieve := retrieveService
	oldSource := sourceService
	oldSync := syncService
	oldRegistry := connectorRegistry
	oldConfig := configStore
	oldDocuments := documentStore
	oldBackground := backgroundSync

	retrieveService = &mockRetrieveService{
		results: []domain.RetrievalResult{
			{
				Entry: domain.IndexEntry{
					ChunkID:    "doc-1:1:0",
					DocumentID: "doc-1",
					Text:       "The failover procedure starts with the standby node",
				},
				Score:        0.95,
				VectorScore:  0.90,
				KeywordScore: 0.80,
				DocumentName: "runbook.md",
			},
		},
	}
	sourceService = &mockSourceService{
		sources: []domain.Source{
			{ID: "source-123", Name: "Notes", Type: domain.SourceTypeUpload},
		},
	}
	syncService = &mockSyncService{}
	connectorRegistry = &mockConnectorRegistry{}
	configStore = memory.NewConfigStore()
	documentStore = memory.NewDocumentStore()
	backgroundSync = nil

	return func() {
		retrieveService = oldRetrieve
		sourceService = oldSource
		syncService = oldSync
		connectorRegistry = oldRegistry
		configStore = oldConfig
		documentStore = oldDocuments
		backgroundSync = oldBackground
	}
}
