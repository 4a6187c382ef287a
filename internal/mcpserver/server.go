// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the memo journal and daily notes via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/voicememo/internal/apperr"
	"github.com/starford/voicememo/internal/dailynote"
	"github.com/starford/voicememo/internal/ledger"
	"github.com/starford/voicememo/internal/notecontext"
	"github.com/starford/voicememo/internal/storage"
)

const formatURI = "voicememo://memo-format"

// Server wraps the MCP server with voicememo tools.
type Server struct {
	mcp      *server.MCPServer
	store    storage.Provider
	journal  ledger.Journal
	dailyDir string
	context  notecontext.Reader
	now      func() time.Time
}

// New creates a new MCP server with all voicememo tools registered.
// dailyDir is the vault-relative daily note directory.
func New(store storage.Provider, journal ledger.Journal, dailyDir string, reader notecontext.Reader) *Server {
	s := &Server{
		store:    store,
		journal:  journal,
		dailyDir: dailyDir,
		context:  reader,
		now:      time.Now,
	}

	s.mcp = server.NewMCPServer(
		"voicememo",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_memos",
		mcp.WithDescription("List processed voice memos from the journal, newest first."),
		mcp.WithString("status", mcp.Description("Optional status filter: processed, note_failed, failed, archive_failed")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of memos to return (default 50)")),
	), s.listMemos)

	s.mcp.AddTool(mcp.NewTool("get_memo",
		mcp.WithDescription("Get one journal record by its ID."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Memo ID as returned by list_memos")),
	), s.getMemo)

	s.mcp.AddTool(mcp.NewTool("read_daily_note",
		mcp.WithDescription("Read the daily note for a date, including appended voice memo sections."),
		mcp.WithString("date", mcp.Description("Date in YYYY-MM-DD format (default today)")),
	), s.readDailyNote)

	s.mcp.AddTool(mcp.NewTool("list_daily_notes",
		mcp.WithDescription("List the daily notes present in the vault."),
	), s.listDailyNotes)

	s.mcp.AddTool(mcp.NewTool("recent_context",
		mcp.WithDescription("Return the recent-notes context that accompanies every memo sent for transcription."),
	), s.recentContext)

	s.mcp.AddTool(mcp.NewTool("get_memo_format",
		mcp.WithDescription("Returns the format of voice memo sections appended to daily notes."),
	), s.getMemoFormat)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Voice Memo Section Format",
			mcp.WithResourceDescription("How transcribed voice memos are appended to daily notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMemoFormatResource,
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

func (s *Server) listMemos(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := ledger.Filter{}
	if v, err := req.RequireString("status"); err == nil {
		f.Status = v
	}
	if v, err := req.RequireInt("limit"); err == nil {
		f.Limit = v
	}

	items, total, err := s.journal.List(f)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{"memos": items, "total": total}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getMemo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.journal.Get(id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("memo not found: %s", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDailyNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.dailyDir == "" {
		return mcp.NewToolResultError("daily note path not configured"), nil
	}
	day := s.now()
	if v, err := req.RequireString("date"); err == nil && v != "" {
		parsed, pErr := time.ParseInLocation(time.DateOnly, v, time.Local)
		if pErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid date %q: want YYYY-MM-DD", v)), nil
		}
		day = parsed
	}

	rel := dailynote.RelPath(s.dailyDir, day)
	data, err := s.store.Read(rel)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", rel)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listDailyNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.dailyDir == "" {
		return mcp.NewToolResultError("daily note path not configured"), nil
	}
	metas, err := s.store.List(s.dailyDir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText("no daily notes found"), nil
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) recentContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.context.Context(ctx)), nil
}

func (s *Server) getMemoFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MemoFormat), nil
}

func (s *Server) readMemoFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     MemoFormat,
		},
	}, nil
}
