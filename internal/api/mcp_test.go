package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kalambet/mentortable/internal/mentor"
	"github.com/kalambet/mentortable/internal/storage"
)

func newTestMCPDeps(t *testing.T, upstreamURL string) (MCPDeps, *storage.Store) {
	t.Helper()
	store := newTestStore(t)
	return MCPDeps{
		Table:   newTestTable(upstreamURL, "test-key", nil),
		Store:   store,
		Timeout: 5 * time.Second,
	}, store
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestMCPTool_ConsultMentors(t *testing.T) {
	srv := replyingUpstream(t)
	deps, store := newTestMCPDeps(t, srv.URL)
	handler := mcpConsultMentors(deps)

	req := makeCallToolRequest("consult_mentors", map[string]any{
		"problem":  "I keep procrastinating on my thesis.",
		"mentors":  []any{"bill_gates", "Grandma"},
		"language": "en",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	var resp mentor.Response
	if err := json.Unmarshal([]byte(toolText(t, result)), &resp); err != nil {
		t.Fatalf("tool output is not a response: %v", err)
	}
	if len(resp.MentorReplies) != 2 {
		t.Fatalf("got %d replies, want 2", len(resp.MentorReplies))
	}
	if resp.MentorReplies[0].MentorID != mentor.BillGates {
		t.Errorf("first reply = %q", resp.MentorReplies[0].MentorID)
	}
	if resp.MentorReplies[1].MentorName != "Grandma" {
		t.Errorf("second reply name = %q, want Grandma", resp.MentorReplies[1].MentorName)
	}

	if n, _ := store.CountConsultations(); n != 1 {
		t.Errorf("stored %d consultations, want 1", n)
	}
}

func TestMCPTool_ConsultMentors_InvalidInput(t *testing.T) {
	deps, _ := newTestMCPDeps(t, "http://127.0.0.1:1")
	handler := mcpConsultMentors(deps)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing problem", map[string]any{"mentors": []any{"bill_gates"}}, "problem is required"},
		{"no mentors", map[string]any{"problem": "help"}, "mentors must be a non-empty list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handler(context.Background(), makeCallToolRequest("consult_mentors", tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.IsError {
				t.Fatal("expected tool error")
			}
			if got := toolText(t, result); !strings.Contains(got, tt.want) {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMCPResource_Catalog(t *testing.T) {
	deps, _ := newTestMCPDeps(t, "http://127.0.0.1:1")

	contents, err := mcpResourceCatalog(deps)(context.Background(), makeReadResourceRequest("mentors://catalog"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	if tc.URI != "mentors://catalog" || tc.MIMEType != "application/json" {
		t.Errorf("uri = %q, mime = %q", tc.URI, tc.MIMEType)
	}
	var profiles []mentor.Profile
	if err := json.Unmarshal([]byte(tc.Text), &profiles); err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if len(profiles) != len(mentor.DefaultCatalog().All()) {
		t.Errorf("got %d profiles", len(profiles))
	}
}

func TestMCPResource_Recent(t *testing.T) {
	deps, store := newTestMCPDeps(t, "http://127.0.0.1:1")
	seedConsultation(t, store, "c1", time.Now())
	err := store.SaveConsultation(storage.Consultation{
		ID:        "c2",
		CreatedAt: time.Now().Add(time.Minute),
		Problem:   strings.Repeat("担心", 150),
	})
	if err != nil {
		t.Fatalf("SaveConsultation: %v", err)
	}

	contents, err := mcpResourceRecent(deps)(context.Background(), makeReadResourceRequest("consultations://recent"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}

	var summaries []struct {
		ID      string `json:"id"`
		Problem string `json:"problem"`
	}
	if err := json.Unmarshal([]byte(tc.Text), &summaries); err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 consultations, got %d", len(summaries))
	}
	if summaries[0].ID != "c2" {
		t.Errorf("newest first: got %s", summaries[0].ID)
	}
	if want := strings.Repeat("担心", 100) + "..."; summaries[0].Problem != want {
		t.Errorf("long problem not truncated to %d runes", recentProblemRunes)
	}
}

func TestMCPResource_RecentWithoutStore(t *testing.T) {
	deps := MCPDeps{Table: newTestTable("http://127.0.0.1:1", "test-key", nil)}

	if _, err := mcpResourceRecent(deps)(context.Background(), makeReadResourceRequest("consultations://recent")); err == nil {
		t.Fatal("expected error without a store")
	}
}

func TestNewMCPServer(t *testing.T) {
	deps, _ := newTestMCPDeps(t, "http://127.0.0.1:1")
	if NewMCPServer(deps) == nil {
		t.Fatal("NewMCPServer returned nil")
	}
}
