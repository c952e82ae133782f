package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/griffinb3/agvisor/internal/advisor"
	"github.com/griffinb3/agvisor/internal/panel"
	"github.com/griffinb3/agvisor/internal/profile"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Panel    *panel.Panel
	Profiles profile.Store
}

// NewMCPServer creates an MCP server exposing the advisory panel as tools,
// so local agents can consult the advisors over stdio.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"agvisor",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("agvisor — a panel of agricultural business advisors for crop, finance, operations, marketing, sustainability, legal, and insurance questions."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("ask_advisor",
			mcp.WithDescription("Ask one advisor a question. Unknown advisor ids fall back to the chief agronomist."),
			mcp.WithString("advisor", mcp.Description("Advisor id (see list_advisors)"), mcp.Required()),
			mcp.WithString("message", mcp.Description("The question to ask"), mcp.Required()),
			mcp.WithString("session", mcp.Description("Session id for conversation continuity (default \"default\")")),
		),
		mcpAskAdvisor(deps),
	)

	s.AddTool(
		mcp.NewTool("ask_panel",
			mcp.WithDescription("Put a question to the whole advisory panel. Messages addressed to a specific advisor are routed to them alone."),
			mcp.WithString("message", mcp.Description("The question to ask"), mcp.Required()),
			mcp.WithString("session", mcp.Description("Session id for conversation continuity (default \"default\")")),
		),
		mcpAskPanel(deps),
	)

	s.AddTool(
		mcp.NewTool("list_advisors",
			mcp.WithDescription("List the available advisors with their specialties."),
		),
		mcpListAdvisors(),
	)

	s.AddResource(
		mcp.NewResource(
			"agvisor://advisors",
			"Advisory Panel",
			mcp.WithResourceDescription("All registered advisors as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceAdvisors(),
	)

	return s
}

func mcpSessionProfile(deps MCPDeps, sessionID string) *profile.Profile {
	p, ok, err := deps.Profiles.Get(sessionID)
	if err != nil || !ok {
		return nil
	}
	return &p
}

func mcpAskAdvisor(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		advisorID, err := req.RequireString("advisor")
		if err != nil {
			return mcpError("advisor is required"), nil
		}
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}
		sessionID := req.GetString("session", DefaultSessionID)

		prof := mcpSessionProfile(deps, sessionID)
		res := deps.Panel.Respond(ctx, advisorID, sessionID, message, prof)
		if res.Failed {
			return mcpError(res.Text), nil
		}

		return mcpText(fmt.Sprintf("%s (%s):\n%s", res.Name, res.Title, res.Text)), nil
	}
}

func mcpAskPanel(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}
		sessionID := req.GetString("session", DefaultSessionID)

		prof := mcpSessionProfile(deps, sessionID)
		mode, results := deps.Panel.Ask(ctx, sessionID, message, prof)

		b, err := json.Marshal(map[string]any{
			"mode":      mode,
			"responses": results,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpListAdvisors() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		b, err := json.Marshal(advisorList())
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal advisors: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceAdvisors() server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(advisorList())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal advisors: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

type advisorInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Specialty string `json:"specialty"`
	Icon      string `json:"icon"`
	Optional  bool   `json:"optional"`
}

func advisorList() []advisorInfo {
	all := advisor.All()
	out := make([]advisorInfo, len(all))
	for i, a := range all {
		out[i] = advisorInfo{
			ID:        a.ID,
			Name:      a.Name,
			Title:     a.Title,
			Specialty: a.Specialty,
			Icon:      a.Icon,
			Optional:  a.Optional,
		}
	}
	return out
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
