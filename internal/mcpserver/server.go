// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes mdview tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mdview/internal/codeblock"
	"github.com/starford/mdview/internal/docservice"
	"github.com/starford/mdview/internal/models"
	"github.com/starford/mdview/internal/render"
	"github.com/starford/mdview/internal/style"
)

// Server wraps the MCP server with mdview tools.
type Server struct {
	mcp      *server.MCPServer
	docs     *docservice.Service
	clip     codeblock.Clipboard
	termOpts TerminalOptions
}

// TerminalOptions configures the terminal render format.
type TerminalOptions struct {
	Style string
	Width int
}

// New creates a new MCP server with all mdview tools registered.
func New(docs *docservice.Service, clip codeblock.Clipboard, term TerminalOptions) *Server {
	s := &Server{docs: docs, clip: clip, termOpts: term}

	s.mcp = server.NewMCPServer(
		"mdview",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_markdown_files",
		mcp.WithDescription("List the Markdown files of the docs directory."),
	), s.listFiles)

	s.mcp.AddTool(mcp.NewTool("read_markdown_file",
		mcp.WithDescription("Read the raw Markdown of a docs file."),
		mcp.WithString("name", mcp.Required(), mcp.Description("File name (e.g. README.md)")),
	), s.readFile)

	s.mcp.AddTool(mcp.NewTool("render_markdown",
		mcp.WithDescription("Render Markdown to styled HTML or terminal text. "+
			"Pass either content or the name of a docs file."),
		mcp.WithString("content", mcp.Description("Markdown source")),
		mcp.WithString("name", mcp.Description("Docs file to render instead of content")),
		mcp.WithString("format", mcp.Description("Output format"), mcp.Enum("html", "terminal")),
	), s.renderMarkdown)

	s.mcp.AddTool(mcp.NewTool("list_code_blocks",
		mcp.WithDescription("List the fenced and indented code blocks of a docs file."),
		mcp.WithString("name", mcp.Required(), mcp.Description("File name")),
	), s.listCodeBlocks)

	s.mcp.AddTool(mcp.NewTool("copy_code_block",
		mcp.WithDescription("Copy the n-th code block of a docs file to the clipboard of the host running mdview."),
		mcp.WithString("name", mcp.Required(), mcp.Description("File name")),
		mcp.WithNumber("n", mcp.Required(), mcp.Description("1-based block position")),
	), s.copyCodeBlock)

	s.mcp.AddResource(
		mcp.NewResource(StyleMapURI, "Style Map",
			mcp.WithResourceDescription("How each Markdown node kind is presented."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readStyleMapResource,
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

func (s *Server) listFiles(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names := models.Names(s.docs.ListFiles(ctx))
	if len(names) == 0 {
		return mcp.NewToolResultText("no markdown files found"), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) readFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.docs.ReadFile(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) renderMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := []byte(req.GetString("content", ""))
	if name := req.GetString("name", ""); name != "" {
		data, err := s.docs.ReadFile(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		content = data
	}

	switch req.GetString("format", "html") {
	case "terminal":
		out, err := render.Terminal(content, s.termOpts.Style, s.termOpts.Width)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	case "html":
		return mcp.NewToolResultText(s.docs.Render(ctx, content, nil).HTML), nil
	default:
		return mcp.NewToolResultError("format must be html or terminal"), nil
	}
}

func (s *Server) listCodeBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.docs.GetDocument(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(doc.Blocks, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) copyCodeBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := req.RequireInt("n")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := CopyBlock(ctx, s.docs, s.clip, name, n)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if res.ClipboardErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s (clipboard unavailable: %v)", res.State.Label(), res.ClipboardErr)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s %s block %d (%s, %d bytes)",
		res.State.Label(), name, n, res.Block.Language, len(res.Block.Code))), nil
}

// CopyBlock copies the n-th (1-based) code block of a docs file through a
// one-shot controller.
func CopyBlock(ctx context.Context, docs *docservice.Service, clip codeblock.Clipboard, name string, n int) (codeblock.Result, error) {
	b, err := docs.Block(ctx, name, n)
	if err != nil {
		return codeblock.Result{}, err
	}
	ctrl := codeblock.NewController(clip)
	defer ctrl.Close()
	ctrl.SetBlocks([]codeblock.Block{b})
	return ctrl.Copy(ctx, b.ID)
}

func (s *Server) readStyleMapResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      StyleMapURI,
			MIMEType: "text/markdown",
			Text:     StyleMap(style.Default()),
		},
	}, nil
}
