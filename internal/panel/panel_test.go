package panel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/griffinb3/agvisor/internal/advisor"
	"github.com/griffinb3/agvisor/internal/history"
	"github.com/griffinb3/agvisor/internal/profile"
	"github.com/griffinb3/agvisor/internal/proxy"
)

// fakeCompleter answers per-advisor, identified by the persona name in the
// system message. Delays simulate out-of-order completion; fail forces a
// remote error for that advisor.
type fakeCompleter struct {
	mu       sync.Mutex
	delays   map[string]time.Duration // advisor name → delay
	fail     map[string]bool          // advisor name → force failure
	requests []proxy.ChatRequest
}

func (f *fakeCompleter) Chat(ctx context.Context, messages []proxy.Message, maxTokens int) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, proxy.ChatRequest{Messages: messages, MaxCompletionTokens: maxTokens})
	f.mu.Unlock()

	name := personaName(messages)
	if d, ok := f.delays[name]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.fail[name] {
		return "", errors.New("upstream unavailable")
	}
	return "reply from " + name, nil
}

// personaName extracts the advisor's name from the composed system prompt
// ("You are <name>, ...").
func personaName(messages []proxy.Message) string {
	if len(messages) == 0 || messages[0].Role != history.RoleSystem {
		return ""
	}
	content := messages[0].Content
	content = strings.TrimPrefix(content, "You are ")
	if i := strings.IndexByte(content, ','); i > 0 {
		return content[:i]
	}
	return ""
}

func newTestPanel(f *fakeCompleter) (*Panel, *history.MemoryStore) {
	hist := history.NewMemoryStore()
	return New(NewResponder(f, hist)), hist
}

func resultIDs(results []Result) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.AdvisorID
	}
	return ids
}

func TestAsk_BroadcastCanonicalOrder(t *testing.T) {
	// Make the first advisor the slowest so completion order inverts
	// canonical order.
	f := &fakeCompleter{delays: map[string]time.Duration{
		"Dr. Sarah Chen":  40 * time.Millisecond,
		"Marcus Thompson": 20 * time.Millisecond,
	}}
	p, _ := newTestPanel(f)

	mode, results := p.Ask(context.Background(), "s1", "how do I grow my farm?", nil)
	if mode != ModeAll {
		t.Fatalf("expected mode %q, got %q", ModeAll, mode)
	}

	want := advisor.ActiveIDs(nil)
	got := resultIDs(results)
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("broadcast order %v, want canonical %v", got, want)
		}
	}
}

func TestAsk_PartialFailureKeepsBatchShape(t *testing.T) {
	f := &fakeCompleter{fail: map[string]bool{"Marcus Thompson": true}}
	p, _ := newTestPanel(f)

	_, results := p.Ask(context.Background(), "s1", "general question", nil)

	if len(results) != len(advisor.ActiveIDs(nil)) {
		t.Fatalf("partial failure changed batch size: %d", len(results))
	}
	var failed int
	for _, r := range results {
		if r.AdvisorID == "financial" {
			if !r.Failed {
				t.Error("failing advisor not marked failed")
			}
			if r.Title != "Agricultural Finance Director" || r.Icon == "" {
				t.Error("failed result lost advisor metadata")
			}
			if !strings.Contains(r.Text, "unavailable") {
				t.Errorf("failed result text not human-readable: %q", r.Text)
			}
			failed++
		} else if r.Failed {
			t.Errorf("advisor %s unexpectedly failed", r.AdvisorID)
		}
	}
	if failed != 1 {
		t.Errorf("expected exactly one failed result, got %d", failed)
	}
}

func TestAsk_RoutedSingle(t *testing.T) {
	f := &fakeCompleter{}
	p, _ := newTestPanel(f)
	prof := &profile.Profile{SessionID: "s1", OptionalAdvisors: []string{"legal"}}

	mode, results := p.Ask(context.Background(), "s1", "talk to the legal specialist about my lease", prof)
	if mode != ModeSingle {
		t.Fatalf("expected mode %q, got %q", ModeSingle, mode)
	}
	if len(results) != 1 || results[0].AdvisorID != "legal" {
		t.Fatalf("expected single legal result, got %v", resultIDs(results))
	}
}

func TestAsk_RoutedMessageUsesDirectBudget(t *testing.T) {
	f := &fakeCompleter{}
	p, _ := newTestPanel(f)

	p.Ask(context.Background(), "s1", "ask the agronomist about soil", nil)
	p.Ask(context.Background(), "s1", "what do you all think?", nil)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.requests[0].MaxCompletionTokens != DefaultDirectMaxTokens {
		t.Errorf("routed call budget = %d, want %d", f.requests[0].MaxCompletionTokens, DefaultDirectMaxTokens)
	}
	for _, req := range f.requests[1:] {
		if req.MaxCompletionTokens != DefaultPanelMaxTokens {
			t.Errorf("broadcast call budget = %d, want %d", req.MaxCompletionTokens, DefaultPanelMaxTokens)
		}
	}
}

func TestRespond_RecordsExchange(t *testing.T) {
	f := &fakeCompleter{}
	p, hist := newTestPanel(f)

	res := p.Respond(context.Background(), "agronomist", "s1", "how deep to plant corn?", nil)
	if res.Failed {
		t.Fatalf("unexpected failure: %s", res.Text)
	}

	turns, _ := hist.Turns(history.Key("s1", "agronomist"))
	if len(turns) != 2 {
		t.Fatalf("expected 2 recorded turns, got %d", len(turns))
	}
	if turns[0].Role != history.RoleUser || turns[0].Content != "how deep to plant corn?" {
		t.Errorf("user turn wrong: %+v", turns[0])
	}
	if turns[1].Role != history.RoleAssistant || turns[1].Content != res.Text {
		t.Errorf("assistant turn wrong: %+v", turns[1])
	}
}

func TestRespond_FailureLeavesHistoryUntouched(t *testing.T) {
	f := &fakeCompleter{fail: map[string]bool{"Dr. Sarah Chen": true}}
	p, hist := newTestPanel(f)

	res := p.Respond(context.Background(), "agronomist", "s1", "hello?", nil)
	if !res.Failed {
		t.Fatal("expected failed result")
	}

	turns, _ := hist.Turns(history.Key("s1", "agronomist"))
	if len(turns) != 0 {
		t.Errorf("failed call must not record turns, got %d", len(turns))
	}
}

func TestRespond_ReplaysHistoryInOrder(t *testing.T) {
	f := &fakeCompleter{}
	p, hist := newTestPanel(f)
	key := history.Key("s1", "financial")
	hist.Append(key,
		history.Turn{Role: history.RoleUser, Content: "first question"},
		history.Turn{Role: history.RoleAssistant, Content: "first answer"},
	)

	p.Respond(context.Background(), "financial", "s1", "follow-up", nil)

	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.requests[0].Messages
	if len(msgs) != 4 {
		t.Fatalf("expected system + 2 history + user = 4 messages, got %d", len(msgs))
	}
	if msgs[0].Role != history.RoleSystem {
		t.Error("first message must be the composed system prompt")
	}
	if msgs[1].Content != "first question" || msgs[2].Content != "first answer" {
		t.Error("history not replayed in order")
	}
	if msgs[3].Role != history.RoleUser || msgs[3].Content != "follow-up" {
		t.Error("new user message must come last")
	}
}

func TestRespond_UnknownAdvisorFallsBack(t *testing.T) {
	f := &fakeCompleter{}
	p, hist := newTestPanel(f)

	res := p.Respond(context.Background(), "astrologer", "s1", "hi", nil)
	if res.AdvisorID != advisor.DefaultID {
		t.Errorf("expected fallback to %q, got %q", advisor.DefaultID, res.AdvisorID)
	}
	if res.Title != advisor.Lookup(advisor.DefaultID).Title {
		t.Error("fallback result missing default advisor metadata")
	}

	// History lands under the resolved advisor id.
	turns, _ := hist.Turns(history.Key("s1", advisor.DefaultID))
	if len(turns) != 2 {
		t.Errorf("expected exchange recorded under resolved id, got %d turns", len(turns))
	}
}

func TestAsk_OptionalAdvisorJoinsBroadcast(t *testing.T) {
	f := &fakeCompleter{}
	p, _ := newTestPanel(f)
	prof := &profile.Profile{SessionID: "s1", OptionalAdvisors: []string{"legal", "insurance"}}

	_, results := p.Ask(context.Background(), "s1", "what should we focus on next season?", prof)
	ids := resultIDs(results)
	want := advisor.ActiveIDs(prof.OptionalAdvisors)
	if fmt.Sprint(ids) != fmt.Sprint(want) {
		t.Errorf("broadcast ids %v, want %v", ids, want)
	}
}
