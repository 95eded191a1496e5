package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer about the document"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer            string        `json:"answer"`
	Intent            string        `json:"intent"`
	FallbackKnowledge bool          `json:"fallback_knowledge"`
	Sources           []ChunkOutput `json:"sources"`
}

// SourcesInput is the input schema for the sources tool.
type SourcesInput struct {
	Query string `json:"query" jsonschema:"text to find similar passages for"`
	K     int    `json:"k,omitempty" jsonschema:"maximum number of passages to return"`
}

// SourcesOutput is the output schema for the sources tool.
type SourcesOutput struct {
	Chunks []ChunkOutput `json:"chunks"`
	Count  int           `json:"count"`
}

// ChunkOutput is one retrieved passage.
type ChunkOutput struct {
	Page  int    `json:"page"`
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "ask",
		Description: "Answer a question about the open document. General questions are answered " +
			"from the whole text, specific ones from the most relevant passages.",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sources",
		Description: "Return the passages of the open document most similar to a query",
	}, s.handleSources)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, AskOutput{}, errors.New("question is required")
	}

	s.mu.Lock()
	result, err := s.ports.Sessions.Ask(ctx, s.ports.Session, question)
	s.mu.Unlock()
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:            result.Text,
		Intent:            result.Intent.String(),
		FallbackKnowledge: result.UsedFallbackKnowledge(),
		Sources:           toChunkOutputs(result.Sources),
	}, nil
}

// handleSources handles the sources tool invocation.
func (s *Server) handleSources(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SourcesInput,
) (*mcp.CallToolResult, SourcesOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SourcesOutput{}, errors.New("query is required")
	}

	k := input.K
	if k <= 0 {
		k = s.ports.SearchK
	}

	chunks, err := s.ports.Sessions.Sources(ctx, s.ports.Session, input.Query, k)
	if err != nil {
		return nil, SourcesOutput{}, err
	}

	return nil, SourcesOutput{
		Chunks: toChunkOutputs(chunks),
		Count:  len(chunks),
	}, nil
}

func toChunkOutputs(chunks []domain.Chunk) []ChunkOutput {
	out := make([]ChunkOutput, len(chunks))
	for i, c := range chunks {
		out[i] = ChunkOutput{Page: c.Page, Index: c.Index, Text: c.Text}
	}
	return out
}
