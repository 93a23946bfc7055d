// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Perthro review tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/perthro/internal/anki"
	"github.com/starford/perthro/internal/apperr"
	"github.com/starford/perthro/internal/reviewservice"
)

// Server wraps the MCP server with Perthro tools.
type Server struct {
	mcp *server.MCPServer
	svc *reviewservice.Service
}

// New creates a new MCP server with all Perthro tools registered.
func New(svc *reviewservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Perthro",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("review_queue",
		mcp.WithDescription("List review items that are currently due, earliest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of items to return (default 20)")),
	), s.reviewQueue)

	s.mcp.AddTool(mcp.NewTool("read_item",
		mcp.WithDescription("Read one review item: its scheduling state and note content. "+
			"For cloze items the rendered question and answer are included."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Review item identifier")),
	), s.readItem)

	s.mcp.AddTool(mcp.NewTool("review_summary",
		mcp.WithDescription("Per-status counts of all review items plus the number due now."),
	), s.reviewSummary)

	s.mcp.AddTool(mcp.NewTool("import_collection",
		mcp.WithDescription("Import an Anki collection into the vault. The collection must "+
			"not be open in Anki while importing."),
		mcp.WithString("collectionPath", mcp.Required(), mcp.Description("Path to the collection.anki2 file")),
		mcp.WithString("profileDir", mcp.Description("Profile directory holding the media files")),
		mcp.WithString("deckFilter", mcp.Description("Deck selection pattern, e.g. 'Japanese::*'")),
		mcp.WithBoolean("includeHistory", mcp.Description("Also migrate the review log")),
	), s.importCollection)

	// Resource: sidecar format contract.
	s.mcp.AddResource(
		mcp.NewResource("perthro://sidecar-format", "Sidecar Format Contract",
			mcp.WithResourceDescription("Canonical scheduling sidecar format written by imports and read by review tools."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSidecarFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) reviewQueue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	items, err := s.svc.Queue(ctx, time.Now(), limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(detail, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) reviewSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	counts, err := s.svc.Summary(ctx, time.Now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(counts, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) importCollection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collectionPath, err := req.RequireString("collectionPath")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := anki.DefaultOptions(collectionPath)
	opts.ProfileDir = req.GetString("profileDir", "")
	opts.DeckFilter = req.GetString("deckFilter", "")
	opts.IncludeHistory = req.GetBool("includeHistory", false)

	summary, err := s.svc.Import(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(anki.Describe(summary)), nil
}

func (s *Server) readSidecarFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "perthro://sidecar-format",
			MIMEType: "text/markdown",
			Text:     SidecarFormatContract,
		},
	}, nil
}
