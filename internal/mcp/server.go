// Package mcp exposes the corpus to MCP clients over stdio.
package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"gigdex/internal/corpus"
	"gigdex/internal/docproc"
	"gigdex/internal/version"
)

// IngestInput is the input for gigdex_ingest.
type IngestInput struct {
	Text    string `json:"text" jsonschema:"The full document text to ingest."`
	Caption string `json:"caption,omitempty" jsonschema:"Optional caption. Generated from the text when omitted."`
}

// SearchInput is the input for gigdex_search.
type SearchInput struct {
	Query string `json:"query" jsonschema:"Natural language query to search the corpus with."`
	K     int    `json:"k,omitempty" jsonschema:"Maximum number of results to return. Defaults to 5."`
}

// StatusInput is the input for gigdex_status (empty).
type StatusInput struct{}

// Server wraps the official MCP SDK server around a corpus.
type Server struct {
	server *sdkmcp.Server
	corpus *corpus.Corpus
}

// NewServer creates an MCP server for the given corpus.
func NewServer(c *corpus.Corpus) *Server {
	s := &Server{corpus: c}

	s.server = sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "gigdex",
		Version: version.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: "gigdex stores concert and tour documents and retrieves them by " +
			"semantic similarity. Use gigdex_ingest to add a document, gigdex_search " +
			"to find passages relevant to a query, and gigdex_status for corpus statistics.",
	})

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "gigdex_ingest",
		Description: "Ingest a document into the corpus. The text is chunked, embedded, and indexed; returns the new document's ID.",
	}, s.handleIngest)

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "gigdex_search",
		Description: "Semantic search over the corpus. Returns the most similar chunks with their document captions and scores.",
	}, s.handleSearch)

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "gigdex_status",
		Description: "Get corpus statistics: document count, chunk count, and embedding dimension.",
	}, s.handleStatus)

	return s
}

// Run serves MCP over stdio until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &sdkmcp.StdioTransport{})
}

func errorResult(msg string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: msg}},
		IsError: true,
	}
}

func textResult(msg string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: msg}},
	}
}

// handleIngest handles the gigdex_ingest tool.
func (s *Server) handleIngest(ctx context.Context, req *sdkmcp.CallToolRequest, input IngestInput) (*sdkmcp.CallToolResult, any, error) {
	if input.Text == "" {
		return errorResult("Error: 'text' parameter is required."), nil, nil
	}

	caption := input.Caption
	if caption == "" {
		caption = docproc.Caption(input.Text)
	}

	docID, err := s.corpus.Ingest(ctx, input.Text, caption)
	if err != nil {
		return errorResult(fmt.Sprintf("Ingest failed: %v", err)), nil, nil
	}

	doc, err := s.corpus.GetDocument(docID)
	if err != nil {
		return errorResult(fmt.Sprintf("Ingest succeeded but lookup failed: %v", err)), nil, nil
	}

	return textResult(fmt.Sprintf("Ingested document %s (%d chunks)\nCaption: %s",
		doc.ID, len(doc.ChunkIDs), doc.Caption)), doc, nil
}

// handleSearch handles the gigdex_search tool.
func (s *Server) handleSearch(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchInput) (*sdkmcp.CallToolResult, any, error) {
	if input.Query == "" {
		return errorResult("Error: 'query' parameter is required."), nil, nil
	}
	k := input.K
	if k <= 0 {
		k = 5
	}

	results, err := s.corpus.Search(ctx, input.Query, k)
	if err != nil {
		return errorResult(fmt.Sprintf("Search failed: %v", err)), nil, nil
	}
	if len(results) == 0 {
		return textResult("No results. The corpus may be empty."), results, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d results for %q:\n\n", len(results), input.Query)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. [score %.3f] %s\n", i+1, r.Score, r.Caption)
		fmt.Fprintf(&b, "   %s\n\n", strings.TrimSpace(r.Text))
	}

	return textResult(b.String()), results, nil
}

// handleStatus handles the gigdex_status tool.
func (s *Server) handleStatus(ctx context.Context, req *sdkmcp.CallToolRequest, input StatusInput) (*sdkmcp.CallToolResult, any, error) {
	stats := s.corpus.Stats()
	return textResult(fmt.Sprintf("Documents: %d\nChunks: %d\nEmbedding dimensions: %d",
		stats.Documents, stats.Chunks, stats.Dimensions)), stats, nil
}
