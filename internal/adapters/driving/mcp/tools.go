package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query         string  `json:"query" jsonschema:"the query to retrieve relevant document chunks for"`
	K             int     `json:"k,omitempty" jsonschema:"number of results to return (0 uses the configured default)"`
	VectorWeight  float64 `json:"vector_weight,omitempty" jsonschema:"fusion weight of the vector channel (0 with keyword_weight 0 uses the configured defaults)"`
	KeywordWeight float64 `json:"keyword_weight,omitempty" jsonschema:"fusion weight of the keyword channel (0 with vector_weight 0 uses the configured defaults)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Results []RetrieveResultOutput `json:"results"`
	Count   int                    `json:"count"`
}

// RetrieveResultOutput represents a single retrieved chunk.
type RetrieveResultOutput struct {
	ChunkID      string  `json:"chunk_id"`
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name,omitempty"`
	Text         string  `json:"text"`
	Score        float64 `json:"score"`
	VectorScore  float64 `json:"vector_score"`
	KeywordScore float64 `json:"keyword_score"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Retrieve the most relevant indexed document chunks for a query",
	}, s.handleRetrieve)
}

// handleRetrieve handles the retrieve tool invocation. Zero options
// defer to the configured retrieval defaults.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	opts := domain.RetrieveOptions{
		K:             input.K,
		VectorWeight:  input.VectorWeight,
		KeywordWeight: input.KeywordWeight,
	}

	results, err := s.ports.Retrieve.Retrieve(ctx, input.Query, opts)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Results: make([]RetrieveResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		output.Results[i] = RetrieveResultOutput{
			ChunkID:      results[i].Entry.ChunkID,
			DocumentID:   results[i].Entry.DocumentID,
			DocumentName: results[i].DocumentName,
			Text:         results[i].Entry.Text,
			Score:        results[i].Score,
			VectorScore:  results[i].VectorScore,
			KeywordScore: results[i].KeywordScore,
		}
	}

	return nil, output, nil
}
