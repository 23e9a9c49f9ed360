// Package mcp exposes a launcher session to MCP clients.
//
// Tools mirror the HTTP routes: render_state, type_input, press_row,
// preview_row and go_back all answer with the resulting view. Script filters
// finish in the background, so a view may come back busy; render_state picks
// up the rows once they arrive.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/arvis/internal/logging"
	"github.com/aretw0/arvis/pkg/domain"
	"github.com/aretw0/arvis/pkg/session"
)

// ExtensionsURI is the resource listing the installed extensions.
const ExtensionsURI = "arvis://extensions"

// Session is the part of session.Session the tools drive.
type Session interface {
	Type(ctx context.Context, text string) error
	Press(ctx context.Context, index int, mod domain.Modifier) error
	Preview(ctx context.Context, index int, mod domain.Modifier) error
	Back(ctx context.Context) error
	Snapshot(ctx context.Context) (session.View, error)
}

// ExtensionLister lists installed extensions. arvis.Launcher implements it.
type ExtensionLister interface {
	Extensions() []domain.Extension
}

// Server wraps a launcher session and exposes it as an MCP server.
type Server struct {
	session    Session
	extensions ExtensionLister
	version    string
	logger     *slog.Logger
	mcpServer  *server.MCPServer
}

// Option configures the server.
type Option func(*Server)

// WithExtensions serves the list_extensions tool and the extensions resource from l.
func WithExtensions(l ExtensionLister) Option {
	return func(s *Server) { s.extensions = l }
}

// WithVersion sets the version reported to clients.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a new MCP server for sess.
func NewServer(sess Session, opts ...Option) *Server {
	s := &Server{
		session: sess,
		version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("arvis-mcp", strings.TrimSpace(s.version))
	s.registerTools()
	if s.extensions != nil {
		s.registerResources()
	}
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves newline-delimited JSON-RPC on in and out until ctx is done
// or in is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	return stdio.Listen(ctx, in, out)
}

// InputArgs are the arguments of type_input.
type InputArgs struct {
	Text string `json:"text"`
}

// RowArgs are the arguments of press_row and preview_row.
type RowArgs struct {
	Index     int    `json:"index"`
	Modifiers string `json:"modifiers,omitempty"`
}

type noArgs struct{}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("render_state",
		mcp.WithDescription("Return the launcher window: input, rows, selection and whether a script filter is still running."),
		mcp.WithOutputSchema[session.View](),
	), mcp.NewStructuredToolHandler(s.handleRenderState))

	s.mcpServer.AddTool(mcp.NewTool("type_input",
		mcp.WithDescription("Replace the input text. Lists matching commands or feeds the active script filter."),
		mcp.WithString("text", mcp.Required(), mcp.Description("The full input text, e.g. \"gh react\"")),
		mcp.WithOutputSchema[session.View](),
	), mcp.NewStructuredToolHandler(s.handleTypeInput))

	s.mcpServer.AddTool(mcp.NewTool("press_row",
		mcp.WithDescription("Activate a visible row and run its action chain."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based row index")),
		mcp.WithString("modifiers", mcp.Description("Held modifiers, e.g. \"cmd+shift\"")),
		mcp.WithOutputSchema[session.View](),
	), mcp.NewStructuredToolHandler(s.handlePressRow))

	s.mcpServer.AddTool(mcp.NewTool("preview_row",
		mcp.WithDescription("Show a row as it looks while modifiers are held. No modifiers restores the rows."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based row index")),
		mcp.WithString("modifiers", mcp.Description("Held modifiers, e.g. \"alt\"")),
		mcp.WithOutputSchema[session.View](),
	), mcp.NewStructuredToolHandler(s.handlePreviewRow))

	s.mcpServer.AddTool(mcp.NewTool("go_back",
		mcp.WithDescription("Leave the current mode and restore the previous one."),
		mcp.WithOutputSchema[session.View](),
	), mcp.NewStructuredToolHandler(s.handleGoBack))

	if s.extensions == nil {
		return
	}
	s.mcpServer.AddTool(mcp.NewTool("list_extensions",
		mcp.WithDescription("List installed extensions and their keywords."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.Marshal(summarize(s.extensions.Extensions()))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

func (s *Server) handleRenderState(ctx context.Context, request mcp.CallToolRequest, _ noArgs) (session.View, error) {
	return s.view(ctx)
}

func (s *Server) handleTypeInput(ctx context.Context, request mcp.CallToolRequest, args InputArgs) (session.View, error) {
	if err := s.session.Type(ctx, args.Text); err != nil {
		return session.View{}, fmt.Errorf("input failed: %w", err)
	}
	return s.view(ctx)
}

func (s *Server) handlePressRow(ctx context.Context, request mcp.CallToolRequest, args RowArgs) (session.View, error) {
	if err := s.session.Press(ctx, args.Index, domain.ParseModifier(args.Modifiers)); err != nil {
		s.logger.Warn("MCP press failed", "index", args.Index, "error", err)
		return session.View{}, fmt.Errorf("press failed: %w", err)
	}
	return s.view(ctx)
}

func (s *Server) handlePreviewRow(ctx context.Context, request mcp.CallToolRequest, args RowArgs) (session.View, error) {
	if err := s.session.Preview(ctx, args.Index, domain.ParseModifier(args.Modifiers)); err != nil {
		return session.View{}, fmt.Errorf("preview failed: %w", err)
	}
	return s.view(ctx)
}

func (s *Server) handleGoBack(ctx context.Context, request mcp.CallToolRequest, _ noArgs) (session.View, error) {
	if err := s.session.Back(ctx); err != nil {
		return session.View{}, fmt.Errorf("back failed: %w", err)
	}
	return s.view(ctx)
}

func (s *Server) view(ctx context.Context) (session.View, error) {
	v, err := s.session.Snapshot(ctx)
	if err != nil {
		return session.View{}, fmt.Errorf("snapshot failed: %w", err)
	}
	if v.Rows == nil {
		v.Rows = []session.Row{}
	}
	return v, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ExtensionsURI, "Installed extensions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(summarize(s.extensions.Extensions()))
		if err != nil {
			return nil, fmt.Errorf("failed to encode extensions: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ExtensionsURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

// extensionSummary leaves out variables, which may hold tokens.
type extensionSummary struct {
	BundleID string               `json:"bundleId"`
	Name     string               `json:"name"`
	Type     domain.ExtensionType `json:"type"`
	Version  string               `json:"version,omitempty"`
	Enabled  bool                 `json:"enabled"`
	Keywords []string             `json:"keywords"`
}

func summarize(exts []domain.Extension) []extensionSummary {
	out := make([]extensionSummary, 0, len(exts))
	for _, ext := range exts {
		sum := extensionSummary{
			BundleID: ext.BundleID,
			Name:     ext.Name,
			Type:     ext.Type,
			Version:  ext.Version,
			Enabled:  ext.Enabled,
			Keywords: []string{},
		}
		for _, cmd := range ext.Commands {
			if cmd.Command != "" {
				sum.Keywords = append(sum.Keywords, cmd.Command)
			}
		}
		out = append(out, sum)
	}
	return out
}
