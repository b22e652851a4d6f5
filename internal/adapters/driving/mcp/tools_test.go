package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns retrieval results", func(t *testing.T) {
		mockRetrieve := &mockRetrieveService{
			results: []domain.RetrievalResult{
				{
					Entry: domain.IndexEntry{
						ChunkID:    "doc-1:3:0",
						DocumentID: "doc-1",
						Text:       "This is the chunk text",
					},
					Score:        0.95,
					VectorScore:  0.90,
					KeywordScore: 0.80,
					DocumentName: "README.md",
				},
			},
		}

		ports := &Ports{Retrieve: mockRetrieve}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := RetrieveInput{Query: "test", K: 10}
		_, output, err := server.handleRetrieve(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		assert.Len(t, output.Results, 1)
		assert.Equal(t, "doc-1:3:0", output.Results[0].ChunkID)
		assert.Equal(t, "doc-1", output.Results[0].DocumentID)
		assert.Equal(t, "README.md", output.Results[0].DocumentName)
		assert.Equal(t, "This is the chunk text", output.Results[0].Text)
		assert.Equal(t, 0.95, output.Results[0].Score)
		assert.Equal(t, 0.90, output.Results[0].VectorScore)
		assert.Equal(t, 0.80, output.Results[0].KeywordScore)
	})

	t.Run("passes options through unchanged", func(t *testing.T) {
		mockRetrieve := &mockRetrieveService{}
		ports := &Ports{Retrieve: mockRetrieve}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := RetrieveInput{Query: "test", K: 3, VectorWeight: 0.6, KeywordWeight: 0.4}
		_, output, err := server.handleRetrieve(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Equal(t, 3, mockRetrieve.lastOpts.K)
		assert.Equal(t, 0.6, mockRetrieve.lastOpts.VectorWeight)
		assert.Equal(t, 0.4, mockRetrieve.lastOpts.KeywordWeight)
	})

	t.Run("zero options defer to configured defaults", func(t *testing.T) {
		mockRetrieve := &mockRetrieveService{}
		ports := &Ports{Retrieve: mockRetrieve}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := RetrieveInput{Query: "test"}
		_, _, err = server.handleRetrieve(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, domain.RetrieveOptions{}, mockRetrieve.lastOpts)
	})

	t.Run("returns error on retrieve failure", func(t *testing.T) {
		mockRetrieve := &mockRetrieveService{
			err: errors.New("retrieve failed"),
		}

		ports := &Ports{Retrieve: mockRetrieve}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := RetrieveInput{Query: "test"}
		_, _, err = server.handleRetrieve(ctx, nil, input)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "retrieve failed")
	})
}
