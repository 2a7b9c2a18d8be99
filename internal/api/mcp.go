package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/mentortable/internal/mentor"
	"github.com/kalambet/mentortable/internal/storage"
	"github.com/kalambet/mentortable/internal/table"
	"github.com/kalambet/mentortable/internal/textutil"
)

const recentProblemRunes = 200

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Table *table.Service
	Store *storage.Store // optional
	// Timeout bounds one consult_mentors call.
	Timeout time.Duration
}

// NewMCPServer creates an MCP server exposing the mentor table.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"mentortable",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("mentortable: ask a table of simulated mentors for first-person perspectives on a worry."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("consult_mentors",
			mcp.WithDescription("Ask several simulated mentors how they would likely respond to a problem. Returns one reply per mentor plus a safety assessment."),
			mcp.WithString("problem", mcp.Description("The worry or problem to discuss"), mcp.Required()),
			mcp.WithArray("mentors", mcp.Description("Mentor IDs or names, e.g. bill_gates or \"Grandma\""), mcp.Required()),
			mcp.WithString("language", mcp.Description("Preferred reply language: en or zh-CN")),
		),
		mcpConsultMentors(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"mentors://catalog",
			"Mentor Catalog",
			mcp.WithResourceDescription("Built-in mentor personas as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceCatalog(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"consultations://recent",
			"Recent Consultations",
			mcp.WithResourceDescription("Last 10 stored consultations (problems and mentors only)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	return s
}

func mcpConsultMentors(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		problem, err := req.RequireString("problem")
		if err != nil {
			return mcpError("problem is required"), nil
		}
		names := req.GetStringSlice("mentors", nil)
		mentors := make([]mentor.Profile, 0, len(names))
		for _, n := range names {
			mentors = append(mentors, mentor.Profile{ID: n})
		}

		if deps.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, deps.Timeout)
			defer cancel()
		}

		resp, err := deps.Table.Consult(ctx, table.Request{
			Problem:  problem,
			Language: req.GetString("language", ""),
			Mentors:  mentors,
		})
		var verr *table.ValidationError
		switch {
		case errors.As(err, &verr):
			return mcpError(verr.Msg), nil
		case errors.Is(err, context.DeadlineExceeded):
			return mcpError("Upstream LLM request timed out"), nil
		case err != nil:
			return mcpError(fmt.Sprintf("consultation failed: %v", err)), nil
		}

		if _, err := recordConsultation(deps.Store, problem, resp); err != nil {
			slog.Warn("failed to store consultation", "error", err)
		}

		b, err := json.Marshal(resp)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal response: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceCatalog(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Table.Catalog().All())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal catalog: %w", err)
		}
		return jsonResource(req.Params.URI, b), nil
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		if deps.Store == nil {
			return nil, errors.New("consultation storage is disabled")
		}
		consultations, err := deps.Store.ListConsultations(10)
		if err != nil {
			return nil, fmt.Errorf("failed to list consultations: %w", err)
		}

		type consultationSummary struct {
			ID        string   `json:"id"`
			CreatedAt string   `json:"created_at"`
			Problem   string   `json:"problem"`
			MentorIDs []string `json:"mentor_ids"`
			Provider  string   `json:"provider"`
		}

		summaries := make([]consultationSummary, len(consultations))
		for i, c := range consultations {
			problem := c.Problem
			if short := textutil.Truncate(problem, recentProblemRunes); short != problem {
				problem = short + "..."
			}
			summaries[i] = consultationSummary{
				ID:        c.ID,
				CreatedAt: c.CreatedAt.Format(time.RFC3339),
				Problem:   problem,
				MentorIDs: c.MentorIDs,
				Provider:  c.Provider,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal consultations: %w", err)
		}
		return jsonResource(req.Params.URI, b), nil
	}
}

func jsonResource(uri string, b []byte) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}
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
