// Package panel turns a user message into advisor replies: either a single
// advisor picked by the router, or a concurrent fan-out across the whole
// active panel.
package panel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/griffinb3/agvisor/internal/advisor"
	"github.com/griffinb3/agvisor/internal/composer"
	"github.com/griffinb3/agvisor/internal/history"
	"github.com/griffinb3/agvisor/internal/profile"
	"github.com/griffinb3/agvisor/internal/proxy"
)

// Default output budgets. Panel calls trade reply length for latency since N
// of them run at once.
const (
	DefaultDirectMaxTokens = 2048
	DefaultPanelMaxTokens  = 1024
)

// Completer is the remote chat completion call the responder depends on.
// Implemented by proxy.Client.
type Completer interface {
	Chat(ctx context.Context, messages []proxy.Message, maxTokens int) (string, error)
}

// Result is one advisor's answer. A failed remote call produces a Result with
// Failed set and a human-readable description in Text; advisor metadata is
// always populated so callers can render partial failures inline.
type Result struct {
	AdvisorID string `json:"advisor"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Icon      string `json:"icon"`
	Text      string `json:"response"`
	Failed    bool   `json:"error,omitempty"`
}

// Responder answers a message as one advisor, maintaining that advisor's
// conversation history for the session.
type Responder struct {
	client  Completer
	history history.Store
}

// NewResponder creates a Responder backed by the given completion client and
// history store.
func NewResponder(client Completer, hist history.Store) *Responder {
	return &Responder{client: client, history: hist}
}

// Respond composes the advisor's prompt, replays stored history, sends the
// new message, and records the exchange. It never returns an error: remote
// failures come back as an error-flavored Result, and history is left
// untouched so a failed turn is not recorded without its answer.
func (r *Responder) Respond(ctx context.Context, advisorID, sessionID, message string, prof *profile.Profile, maxTokens int) Result {
	a := advisor.Lookup(advisorID)
	key := history.Key(sessionID, a.ID)

	res := Result{
		AdvisorID: a.ID,
		Name:      a.Name,
		Title:     a.Title,
		Icon:      a.Icon,
	}

	turns, err := r.history.Turns(key)
	if err != nil {
		slog.Error("loading history", "key", key, "error", err)
		res.Text = fmt.Sprintf("%s is unavailable right now: %v", a.Name, err)
		res.Failed = true
		return res
	}

	messages := make([]proxy.Message, 0, len(turns)+2)
	messages = append(messages, proxy.Message{Role: history.RoleSystem, Content: composer.Compose(a.ID, prof)})
	for _, t := range turns {
		messages = append(messages, proxy.Message{Role: t.Role, Content: t.Content})
	}
	messages = append(messages, proxy.Message{Role: history.RoleUser, Content: message})

	reply, err := r.client.Chat(ctx, messages, maxTokens)
	if err != nil {
		slog.Warn("completion call failed", "advisor", a.ID, "session", sessionID, "error", err)
		res.Text = fmt.Sprintf("%s is unavailable right now: %v", a.Name, err)
		res.Failed = true
		return res
	}

	if err := r.history.Append(key,
		history.Turn{Role: history.RoleUser, Content: message},
		history.Turn{Role: history.RoleAssistant, Content: reply},
	); err != nil {
		// The reply already exists; surface it and log the storage fault.
		slog.Error("recording history", "key", key, "error", err)
	}

	res.Text = reply
	return res
}
