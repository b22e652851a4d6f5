package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

func TestExtractSourceID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid source documents URI",
			uri:      "quarry://sources/src-123/documents",
			expected: "src-123",
		},
		{
			name:     "invalid prefix",
			uri:      "file://sources/src-123/documents",
			expected: "",
		},
		{
			name:     "missing documents suffix",
			uri:      "quarry://sources/src-123",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractSourceID(tt.uri)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid document URI",
			uri:      "quarry://documents/doc-456",
			expected: "doc-456",
		},
		{
			name:     "invalid prefix",
			uri:      "file://documents/doc-456",
			expected: "",
		},
		{
			name:     "document list URI has no ID",
			uri:      "quarry://documents",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractDocumentID(tt.uri)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleSourcesResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil source service returns empty list", func(t *testing.T) {
		ports := &Ports{Retrieve: &mockRetrieveService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://sources")
		result, err := server.handleSourcesResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns sources successfully", func(t *testing.T) {
		mockSource := &mockSourceService{
			sources: []domain.Source{
				{
					ID:     "src-1",
					Name:   "My Docs",
					Type:   domain.SourceTypeUpload,
					Config: map[string]string{"path": "/home/docs"},
				},
			},
		}

		ports := &Ports{Retrieve: &mockRetrieveService{}, Source: mockSource}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://sources")
		result, err := server.handleSourcesResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "src-1")
		assert.Contains(t, result.Contents[0].Text, "My Docs")
		assert.Contains(t, result.Contents[0].Text, "/home/docs")
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		mockSource := &mockSourceService{
			err: errors.New("database error"),
		}

		ports := &Ports{Retrieve: &mockRetrieveService{}, Source: mockSource}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://sources")
		_, err = server.handleSourcesResource(ctx, req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing sources")
	})

	t.Run("handles source without path config", func(t *testing.T) {
		mockSource := &mockSourceService{
			sources: []domain.Source{
				{
					ID:     "src-2",
					Name:   "Team Drive",
					Type:   domain.SourceTypeDrive,
					Config: map[string]string{"folder_id": "abc123"},
				},
			},
		}

		ports := &Ports{Retrieve: &mockRetrieveService{}, Source: mockSource}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://sources")
		result, err := server.handleSourcesResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		// URI should be empty since there's no "path" in config
		assert.Contains(t, result.Contents[0].Text, `"uri": ""`)
	})
}

func TestServer_handleAllDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil document store returns not found", func(t *testing.T) {
		ports := &Ports{Retrieve: &mockRetrieveService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://documents")
		_, err = server.handleAllDocumentsResource(ctx, req)

		require.Error(t, err)
	})

	t.Run("returns documents with resolved web URLs", func(t *testing.T) {
		mockDocs := &mockDocumentStore{
			documents: []domain.Document{
				{
					ID:         "doc-1",
					SourceID:   "src-1",
					SourceType: domain.SourceTypeUpload,
					Name:       "readme.md",
					URI:        "file:///home/docs/readme.md",
					Version:    3,
				},
				{
					ID:         "doc-2",
					SourceID:   "src-2",
					SourceType: domain.SourceTypeDrive,
					Name:       "Q3 Plan",
					URI:        "gdrive://files/abc123",
					Version:    1,
				},
			},
		}

		ports := &Ports{Retrieve: &mockRetrieveService{}, Documents: mockDocs}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://documents")
		result, err := server.handleAllDocumentsResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		text := result.Contents[0].Text
		assert.Contains(t, text, "doc-1")
		assert.Contains(t, text, "readme.md")
		assert.Contains(t, text, "/home/docs/readme.md")
		assert.Contains(t, text, "doc-2")
		assert.Contains(t, text, "https://drive.google.com/file/d/abc123/view")
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		mockDocs := &mockDocumentStore{
			err: errors.New("storage error"),
		}

		ports := &Ports{Retrieve: &mockRetrieveService{}, Documents: mockDocs}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://documents")
		_, err = server.handleAllDocumentsResource(ctx, req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing documents")
	})
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil document store returns not found", func(t *testing.T) {
		ports := &Ports{Retrieve: &mockRetrieveService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://sources/src-123/documents")
		_, err = server.handleDocumentsResource(ctx, req)

		require.Error(t, err)
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		mockDocs := &mockDocumentStore{}
		ports := &Ports{Retrieve: &mockRetrieveService{}, Documents: mockDocs}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://invalid/uri")
		_, err = server.handleDocumentsResource(ctx, req)

		require.Error(t, err)
	})

	t.Run("returns documents successfully", func(t *testing.T) {
		mockDocs := &mockDocumentStore{
			documents: []domain.Document{
				{ID: "doc-1", Name: "README.md", URI: "file:///path/to/readme.md"},
				{ID: "doc-2", Name: "Guide.md", URI: "file:///path/to/guide.md"},
			},
		}

		ports := &Ports{Retrieve: &mockRetrieveService{}, Documents: mockDocs}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://sources/src-123/documents")
		result, err := server.handleDocumentsResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "doc-1")
		assert.Contains(t, result.Contents[0].Text, "README.md")
		assert.Contains(t, result.Contents[0].Text, "doc-2")
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		mockDocs := &mockDocumentStore{
			err: errors.New("storage error"),
		}

		ports := &Ports{Retrieve: &mockRetrieveService{}, Documents: mockDocs}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://sources/src-123/documents")
		_, err = server.handleDocumentsResource(ctx, req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing documents")
	})

	t.Run("handles empty document list", func(t *testing.T) {
		mockDocs := &mockDocumentStore{
			documents: []domain.Document{},
		}

		ports := &Ports{Retrieve: &mockRetrieveService{}, Documents: mockDocs}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://sources/src-123/documents")
		result, err := server.handleDocumentsResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})
}

func TestServer_handleDocumentContentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil document store returns not found", func(t *testing.T) {
		ports := &Ports{Retrieve: &mockRetrieveService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://documents/doc-123")
		_, err = server.handleDocumentContentResource(ctx, req)

		require.Error(t, err)
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		mockDocs := &mockDocumentStore{}
		ports := &Ports{Retrieve: &mockRetrieveService{}, Documents: mockDocs}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://invalid/uri")
		_, err = server.handleDocumentContentResource(ctx, req)

		require.Error(t, err)
	})

	t.Run("returns content successfully", func(t *testing.T) {
		mockDocs := &mockDocumentStore{
			document: &domain.Document{
				ID:      "doc-123",
				Content: "# Hello World\n\nThis is the document content.",
			},
		}

		ports := &Ports{Retrieve: &mockRetrieveService{}, Documents: mockDocs}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://documents/doc-123")
		result, err := server.handleDocumentContentResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "# Hello World\n\nThis is the document content.", result.Contents[0].Text)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
	})

	t.Run("missing document returns not found", func(t *testing.T) {
		mockDocs := &mockDocumentStore{}

		ports := &Ports{Retrieve: &mockRetrieveService{}, Documents: mockDocs}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://documents/doc-123")
		_, err = server.handleDocumentContentResource(ctx, req)

		require.Error(t, err)
	})

	t.Run("returns error on store failure", func(t *testing.T) {
		mockDocs := &mockDocumentStore{
			err: errors.New("storage offline"),
		}

		ports := &Ports{Retrieve: &mockRetrieveService{}, Documents: mockDocs}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://documents/doc-123")
		_, err = server.handleDocumentContentResource(ctx, req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting document")
	})
}
