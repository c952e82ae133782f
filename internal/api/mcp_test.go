package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/griffinb3/agvisor/internal/history"
	"github.com/griffinb3/agvisor/internal/panel"
	"github.com/griffinb3/agvisor/internal/profile"
	"github.com/griffinb3/agvisor/internal/proxy"
)

// mcpFakeCompleter answers with a canned reply derived from the persona in
// the system prompt so tests can tell advisors apart.
type mcpFakeCompleter struct {
	fail map[string]error
}

func (f *mcpFakeCompleter) Chat(ctx context.Context, messages []proxy.Message, maxTokens int) (string, error) {
	name := completerPersona(messages)
	if err, ok := f.fail[name]; ok {
		return "", err
	}
	return "reply from " + name, nil
}

func completerPersona(messages []proxy.Message) string {
	if len(messages) == 0 {
		return ""
	}
	sys := messages[0].Content
	rest, ok := strings.CutPrefix(sys, "You are ")
	if !ok {
		return ""
	}
	if i := strings.Index(rest, ","); i >= 0 {
		return rest[:i]
	}
	return rest
}

func newTestMCPDeps(completer panel.Completer) MCPDeps {
	responder := panel.NewResponder(completer, history.NewMemoryStore())
	return MCPDeps{
		Panel:    panel.New(responder),
		Profiles: profile.NewMemoryStore(),
	}
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
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

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("tool content is %T, want TextContent", result.Content[0])
	}
	return text.Text
}

func TestMCPToolAskAdvisor(t *testing.T) {
	deps := newTestMCPDeps(&mcpFakeCompleter{})
	handler := mcpAskAdvisor(deps)

	result, err := handler(context.Background(), makeCallToolRequest("ask_advisor", map[string]interface{}{
		"advisor": "financial",
		"message": "Should I lease or buy a tractor?",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	text := toolText(t, result)
	if !strings.Contains(text, "Marcus Thompson (Agricultural Finance Director):") {
		t.Errorf("missing advisor attribution in %q", text)
	}
	if !strings.Contains(text, "reply from Marcus Thompson") {
		t.Errorf("missing reply body in %q", text)
	}
}

func TestMCPToolAskAdvisorUnknownFallsBack(t *testing.T) {
	deps := newTestMCPDeps(&mcpFakeCompleter{})
	handler := mcpAskAdvisor(deps)

	result, err := handler(context.Background(), makeCallToolRequest("ask_advisor", map[string]interface{}{
		"advisor": "astrologer",
		"message": "When should I plant?",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}
	if !strings.Contains(toolText(t, result), "Dr. Sarah Chen") {
		t.Errorf("unknown advisor should fall back to the agronomist, got %q", toolText(t, result))
	}
}

func TestMCPToolAskAdvisorMissingMessage(t *testing.T) {
	deps := newTestMCPDeps(&mcpFakeCompleter{})
	handler := mcpAskAdvisor(deps)

	result, err := handler(context.Background(), makeCallToolRequest("ask_advisor", map[string]interface{}{
		"advisor": "financial",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for missing message")
	}
}

func TestMCPToolAskPanelBroadcast(t *testing.T) {
	deps := newTestMCPDeps(&mcpFakeCompleter{})
	handler := mcpAskPanel(deps)

	result, err := handler(context.Background(), makeCallToolRequest("ask_panel", map[string]interface{}{
		"message": "How do I prepare the farm for next season?",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	var payload struct {
		Mode      string         `json:"mode"`
		Responses []panel.Result `json:"responses"`
	}
	if err := json.Unmarshal([]byte(toolText(t, result)), &payload); err != nil {
		t.Fatalf("unmarshaling panel payload: %v", err)
	}
	if payload.Mode != panel.ModeAll {
		t.Errorf("mode = %q, want %q", payload.Mode, panel.ModeAll)
	}
	if len(payload.Responses) != 5 {
		t.Fatalf("got %d responses, want 5 base advisors", len(payload.Responses))
	}
	if payload.Responses[0].AdvisorID != "agronomist" {
		t.Errorf("first response from %q, want agronomist", payload.Responses[0].AdvisorID)
	}
}

func TestMCPToolAskPanelRoutesToNamedAdvisor(t *testing.T) {
	deps := newTestMCPDeps(&mcpFakeCompleter{})
	handler := mcpAskPanel(deps)

	result, err := handler(context.Background(), makeCallToolRequest("ask_panel", map[string]interface{}{
		"message": "ask the marketing strategist about CSA pricing",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var payload struct {
		Mode      string         `json:"mode"`
		Responses []panel.Result `json:"responses"`
	}
	if err := json.Unmarshal([]byte(toolText(t, result)), &payload); err != nil {
		t.Fatalf("unmarshaling panel payload: %v", err)
	}
	if payload.Mode != panel.ModeSingle {
		t.Errorf("mode = %q, want %q", payload.Mode, panel.ModeSingle)
	}
	if len(payload.Responses) != 1 || payload.Responses[0].AdvisorID != "marketing" {
		t.Errorf("responses = %+v, want single marketing reply", payload.Responses)
	}
}

func TestMCPToolListAdvisors(t *testing.T) {
	handler := mcpListAdvisors()

	result, err := handler(context.Background(), makeCallToolRequest("list_advisors", nil))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var advisors []advisorInfo
	if err := json.Unmarshal([]byte(toolText(t, result)), &advisors); err != nil {
		t.Fatalf("unmarshaling advisors: %v", err)
	}
	if len(advisors) != 7 {
		t.Fatalf("got %d advisors, want 7", len(advisors))
	}
	if advisors[0].ID != "agronomist" {
		t.Errorf("first advisor %q, want agronomist", advisors[0].ID)
	}
	optional := 0
	for _, a := range advisors {
		if a.Optional {
			optional++
		}
	}
	if optional != 2 {
		t.Errorf("got %d optional advisors, want 2", optional)
	}
}

func TestMCPResourceAdvisors(t *testing.T) {
	handler := mcpResourceAdvisors()

	contents, err := handler(context.Background(), makeReadResourceRequest("agvisor://advisors"))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents is %T, want TextResourceContents", contents[0])
	}
	if text.URI != "agvisor://advisors" {
		t.Errorf("URI = %q", text.URI)
	}
	if text.MIMEType != "application/json" {
		t.Errorf("MIMEType = %q", text.MIMEType)
	}
	var advisors []advisorInfo
	if err := json.Unmarshal([]byte(text.Text), &advisors); err != nil {
		t.Fatalf("unmarshaling advisors: %v", err)
	}
	if len(advisors) != 7 {
		t.Errorf("got %d advisors, want 7", len(advisors))
	}
}
