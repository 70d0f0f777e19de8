package draw

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lotto-engine/internal/model"
)

// ErrConfigMissing is returned when no window record exists for a draw/role.
// Nothing may be persisted for such a submission.
var ErrConfigMissing = errors.New("no block time configuration found for draw")

// WindowStore is the subset of the draw-window repository the gate needs.
type WindowStore interface {
	// Get returns the window for an exact (label, role) key, or nil when
	// no record exists.
	Get(ctx context.Context, drawLabel, role string) (*model.DrawWindow, error)
	// GetFold is a case-insensitive variant of Get.
	GetFold(ctx context.Context, drawLabel, role string) (*model.DrawWindow, error)
}

// Decision is the gate's verdict for one submission instant.
type Decision struct {
	Blocked        bool
	SettlementDate string
	Window         *model.DrawWindow
}

// Gate decides whether a submission instant falls inside a draw's blocked
// window and which calendar date it settles against.
type Gate struct {
	store WindowStore
	loc   *time.Location
}

// NewGate creates a Gate evaluating windows in the given location.
func NewGate(store WindowStore, loc *time.Location) *Gate {
	return &Gate{store: store, loc: loc}
}

// Lookup resolves the window record for a draw/role: exact label first, then
// the ticket-code normal form, then a case-insensitive match on it.
func (g *Gate) Lookup(ctx context.Context, drawLabel, role string) (*model.DrawWindow, error) {
	w, err := g.store.Get(ctx, drawLabel, role)
	if err != nil {
		return nil, fmt.Errorf("failed to look up draw window: %w", err)
	}
	if w == nil {
		w, err = g.store.Get(ctx, TicketCode(drawLabel), role)
		if err != nil {
			return nil, fmt.Errorf("failed to look up draw window: %w", err)
		}
	}
	if w == nil {
		w, err = g.store.GetFold(ctx, TicketCode(drawLabel), role)
		if err != nil {
			return nil, fmt.Errorf("failed to look up draw window: %w", err)
		}
	}
	if w == nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigMissing, drawLabel)
	}
	return w, nil
}

// Check evaluates the window for drawLabel/role at instant now.
// Blocked is true when blockTime <= now < unblockTime on now's calendar day.
// The settlement date is tomorrow once now passed the unblock time, today
// otherwise; every downstream quota and credit key uses this date.
func (g *Gate) Check(ctx context.Context, drawLabel, role string, now time.Time) (*Decision, error) {
	w, err := g.Lookup(ctx, drawLabel, role)
	if err != nil {
		return nil, err
	}

	local := now.In(g.loc)
	block, err := atClock(local, w.BlockTime)
	if err != nil {
		return nil, fmt.Errorf("invalid block time %q: %w", w.BlockTime, err)
	}
	unblock, err := atClock(local, w.UnblockTime)
	if err != nil {
		return nil, fmt.Errorf("invalid unblock time %q: %w", w.UnblockTime, err)
	}

	if !local.Before(block) && local.Before(unblock) {
		return &Decision{Blocked: true, Window: w}, nil
	}

	settle := local
	if !local.Before(unblock) {
		settle = settle.AddDate(0, 0, 1)
	}
	return &Decision{
		Blocked:        false,
		SettlementDate: FormatDate(settle, g.loc),
		Window:         w,
	}, nil
}

// atClock places an "HH:MM" clock value on t's calendar day.
func atClock(t time.Time, hhmm string) (time.Time, error) {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return time.Time{}, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return time.Time{}, fmt.Errorf("out of range")
	}
	return time.Date(t.Year(), t.Month(), t.Day(), h, m, 0, 0, t.Location()), nil
}
