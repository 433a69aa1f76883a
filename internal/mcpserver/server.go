// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the caller's notes as tools over stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notely/internal/apperr"
	"github.com/starford/notely/internal/auth"
	"github.com/starford/notely/internal/models"
	"github.com/starford/notely/internal/notes"
)

// Server wraps the MCP server with note tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *notes.Service
	userID string
}

// New creates a new MCP server with all note tools registered. Every tool
// call runs as userID.
func New(svc *notes.Service, userID string) *Server {
	s := &Server{svc: svc, userID: userID}

	s.mcp = server.NewMCPServer(
		"Notely",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes, most recently updated first."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a single note including its content and summary."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note ID")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note body")),
		mcp.WithString("summary", mcp.Description("Optional summary")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Update a note. Only the given fields change; an empty summary clears it."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note ID")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("content", mcp.Description("New content")),
		mcp.WithString("summary", mcp.Description("New summary")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note ID")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("summarize_note",
		mcp.WithDescription("Generate an AI summary for a note and store it."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note ID")),
	), s.summarizeNote)

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

func (s *Server) caller(ctx context.Context) context.Context {
	return auth.WithUserID(ctx, s.userID)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(id string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id))
	case errors.Is(err, apperr.ErrAuthRequired):
		return mcp.NewToolResultError("no user configured: set auth.dev_user_id")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

// optionalString returns a pointer to the named argument, or nil when absent.
func optionalString(req mcp.CallToolRequest, name string) *string {
	v, ok := req.GetArguments()[name]
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func (s *Server) listNotes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.List(s.caller(ctx))
	if err != nil {
		return toolError("", err), nil
	}
	return jsonResult(items)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Get(s.caller(ctx), id)
	if err != nil {
		return toolError(id, err), nil
	}
	return jsonResult(n)
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if title == "" || content == "" {
		return mcp.NewToolResultError("title and content must not be empty"), nil
	}
	n, err := s.svc.Create(s.caller(ctx), models.NoteInput{
		Title:   title,
		Content: content,
		Summary: optionalString(req, "summary"),
	})
	if err != nil {
		return toolError("", err), nil
	}
	return jsonResult(n)
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	patch := models.NotePatch{
		Title:   optionalString(req, "title"),
		Content: optionalString(req, "content"),
	}
	if summary := optionalString(req, "summary"); summary != nil {
		if *summary == "" {
			patch.ClearSummary = true
		} else {
			patch.Summary = summary
		}
	}
	if patch.Empty() {
		return mcp.NewToolResultError("nothing to update: pass title, content or summary"), nil
	}
	n, err := s.svc.Update(s.caller(ctx), id, patch)
	if err != nil {
		return toolError(id, err), nil
	}
	return jsonResult(n)
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.Delete(s.caller(ctx), id); err != nil {
		return toolError(id, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted note: %s", id)), nil
}

func (s *Server) summarizeNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, ok, err := s.svc.SummarizeNote(s.caller(ctx), id)
	if err != nil {
		return toolError(id, err), nil
	}
	if !ok {
		return mcp.NewToolResultError("no summary could be generated"), nil
	}
	return jsonResult(n)
}
