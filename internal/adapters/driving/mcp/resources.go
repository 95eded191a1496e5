package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for docqa resources.
	uriScheme = "docqa://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "document",
		Name:        "document",
		Description: "Name, fingerprint and state of the open document",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "document/text",
		Name:        "document-text",
		Description: "Full extracted text of the open document",
		MIMEType:    "text/plain",
	}, s.handleTextResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "transcript/{turn}",
		Name:        "transcript-turn",
		Description: "One question and answer from this session, numbered from 1",
		MIMEType:    "application/json",
	}, s.handleTurnResource)
}

// handleDocumentResource describes the open document.
func (s *Server) handleDocumentResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	session := s.ports.Session

	s.mu.Lock()
	turns := len(session.Transcript)
	s.mu.Unlock()

	info := struct {
		Name        string `json:"name"`
		Fingerprint string `json:"fingerprint"`
		State       string `json:"state"`
		Characters  int    `json:"characters"`
		Turns       int    `json:"turns"`
	}{
		Name:        session.Document.Name,
		Fingerprint: session.Fingerprint.String(),
		State:       session.State.String(),
		Characters:  len([]rune(session.FullText)),
		Turns:       turns,
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling document: %w", err)
	}
	return jsonResult(req.Params.URI, data), nil
}

// handleTextResource returns the document text.
func (s *Server) handleTextResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     s.ports.Session.FullText,
		}},
	}, nil
}

// handleTurnResource returns one transcript turn.
func (s *Server) handleTurnResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	n := extractTurn(req.Params.URI)

	s.mu.Lock()
	transcript := s.ports.Session.Transcript
	if n < 1 || n > len(transcript) {
		s.mu.Unlock()
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	t := transcript[n-1]
	s.mu.Unlock()

	out := struct {
		Question string        `json:"question"`
		Answer   string        `json:"answer,omitempty"`
		Intent   string        `json:"intent,omitempty"`
		Error    string        `json:"error,omitempty"`
		Sources  []ChunkOutput `json:"sources,omitempty"`
		At       time.Time     `json:"at"`
	}{
		Question: t.Query,
		Answer:   t.Result.Text,
		Intent:   t.Result.Intent.String(),
		Sources:  toChunkOutputs(t.Result.Sources),
		At:       t.At,
	}
	if t.Err != nil {
		out.Error = t.Err.Error()
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling turn: %w", err)
	}
	return jsonResult(req.Params.URI, data), nil
}

func jsonResult(uri string, data []byte) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}
}

// extractTurn extracts the turn number from a URI like docqa://transcript/{turn}.
// It returns 0 when the URI does not name a turn.
func extractTurn(uri string) int {
	const prefix = uriScheme + "transcript/"

	if !strings.HasPrefix(uri, prefix) {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(uri, prefix))
	if err != nil || n < 1 {
		return 0
	}
	return n
}
