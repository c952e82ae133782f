package panel

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/griffinb3/agvisor/internal/advisor"
	"github.com/griffinb3/agvisor/internal/profile"
	"github.com/griffinb3/agvisor/internal/router"
)

// Modes reported to callers: a routed single-advisor answer or a full
// panel broadcast.
const (
	ModeSingle = "single"
	ModeAll    = "all"
)

// Panel fans a message out across the active advisors.
type Panel struct {
	responder       *Responder
	directMaxTokens int
	panelMaxTokens  int
}

// New creates a Panel over the given responder with the default token budgets.
func New(r *Responder) *Panel {
	return &Panel{
		responder:       r,
		directMaxTokens: DefaultDirectMaxTokens,
		panelMaxTokens:  DefaultPanelMaxTokens,
	}
}

// NewWithBudgets creates a Panel with explicit direct and broadcast output
// budgets. Non-positive values fall back to the defaults.
func NewWithBudgets(r *Responder, direct, broadcast int) *Panel {
	p := New(r)
	if direct > 0 {
		p.directMaxTokens = direct
	}
	if broadcast > 0 {
		p.panelMaxTokens = broadcast
	}
	return p
}

// Respond answers a message as a single named advisor with the direct budget.
func (p *Panel) Respond(ctx context.Context, advisorID, sessionID, message string, prof *profile.Profile) Result {
	return p.responder.Respond(ctx, advisorID, sessionID, message, prof, p.directMaxTokens)
}

// Ask routes the message: if the router detects a specific target among the
// active advisors, that advisor alone answers (mode "single"); otherwise
// every active advisor answers concurrently (mode "all"). Broadcast results
// come back in canonical advisor order regardless of completion order, one
// result per active advisor even when some remote calls fail.
func (p *Panel) Ask(ctx context.Context, sessionID, message string, prof *profile.Profile) (string, []Result) {
	var optional []string
	if prof != nil {
		optional = prof.OptionalAdvisors
	}
	activeIDs := advisor.ActiveIDs(optional)

	if target, ok := router.DetectTarget(message, activeIDs); ok {
		res := p.responder.Respond(ctx, target, sessionID, message, prof, p.directMaxTokens)
		return ModeSingle, []Result{res}
	}

	results := make([]Result, len(activeIDs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(len(activeIDs))

	for i, id := range activeIDs {
		g.Go(func() error {
			// Respond never errors, so one advisor's failure cannot
			// cancel the rest of the batch.
			results[i] = p.responder.Respond(gCtx, id, sessionID, message, prof, p.panelMaxTokens)
			return nil
		})
	}
	g.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		return advisor.CanonicalIndex(results[i].AdvisorID) < advisor.CanonicalIndex(results[j].AdvisorID)
	})
	return ModeAll, results
}
